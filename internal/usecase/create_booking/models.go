package create_booking

import (
	"time"

	"github.com/LitKanna/TF-PickupService/internal/domain"
	"github.com/LitKanna/TF-PickupService/pkg/types"
)

// Request модель запроса на создание бронирования.
// Либо указывается SlotID (бронь по каталогу), либо точное окно
// StartTime+DurationMinutes. Для слота с AllowExactTime допустимо и то и другое.
type Request struct {
	UserID   int64
	OrderRef *string // ссылка на заказ (опционально)

	BayID  int64
	SlotID *int64

	Date            time.Time
	StartTime       types.TimeString // обязательно без слота; внутри слота при AllowExactTime
	DurationMinutes int              // 0 означает длительность слота

	VehicleType  *domain.VehicleType
	VehiclePlate *string
	DriverName   *string

	// AutoConfirm создаёт бронирование сразу в статусе confirmed.
	// Используется оплаченными заказами и материализацией расписаний.
	AutoConfirm bool
	Paid        bool

	// Recurring помечает бронирование как материализованное из расписания
	Recurring bool
}

// Response модель ответа с созданным бронированием
type Response struct {
	ID               int64            `json:"id"`
	Reference        string           `json:"reference"`
	ConfirmationCode string           `json:"confirmation_code"`
	UserID           int64            `json:"user_id"`
	BayID            int64            `json:"bay_id"`
	SlotID           *int64           `json:"slot_id,omitempty"`
	PickupDate       string           `json:"pickup_date"`
	StartTime        types.TimeString `json:"start_time"`
	EndTime          types.TimeString `json:"end_time"`
	DurationMinutes  int              `json:"duration_minutes"`
	Status           string           `json:"status"`
	QRPayload        *string          `json:"qr_payload,omitempty"`
	Fee              float64          `json:"fee"`
	Paid             bool             `json:"paid"`
	CreatedAt        time.Time        `json:"created_at"`
}
