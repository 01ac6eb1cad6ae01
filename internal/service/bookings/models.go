package bookings

import (
	"time"

	"github.com/LitKanna/TF-PickupService/internal/domain"
	"github.com/LitKanna/TF-PickupService/pkg/types"
)

// BookingResponse модель бронирования для API
type BookingResponse struct {
	ID               int64            `json:"id"`
	Reference        string           `json:"reference"`
	ConfirmationCode string           `json:"confirmation_code"`
	UserID           int64            `json:"user_id"`
	OrderRef         *string          `json:"order_ref,omitempty"`
	BayID            int64            `json:"bay_id"`
	SlotID           *int64           `json:"slot_id,omitempty"`
	PickupDate       string           `json:"pickup_date"`
	StartTime        types.TimeString `json:"start_time"`
	EndTime          types.TimeString `json:"end_time"`
	DurationMinutes  int              `json:"duration_minutes"`
	Type             string           `json:"type"`
	Status           string           `json:"status"`

	VehicleType  *string `json:"vehicle_type,omitempty"`
	VehiclePlate *string `json:"vehicle_plate,omitempty"`
	DriverName   *string `json:"driver_name,omitempty"`

	QRPayload *string `json:"qr_payload,omitempty"`
	Fee       float64 `json:"fee"`
	Paid      bool    `json:"paid"`

	CancellationReason *string    `json:"cancellation_reason,omitempty"`
	CancelledBy        *string    `json:"cancelled_by,omitempty"`
	CheckedInAt        *time.Time `json:"checked_in_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BookingListResponse список бронирований
type BookingListResponse struct {
	Bookings []*BookingResponse `json:"bookings"`
	Total    int                `json:"total"`
}

// CancelRequest запрос отмены бронирования
type CancelRequest struct {
	BookingID int64
	UserID    int64  // инициатор; проверяется только для actor=buyer
	Actor     string // buyer, seller, staff, system
	Reason    string
}

// FromDomainBooking конвертирует доменное бронирование в API модель
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	resp := &BookingResponse{
		ID:                 b.ID,
		Reference:          b.Reference,
		ConfirmationCode:   b.ConfirmationCode,
		UserID:             b.UserID,
		OrderRef:           b.OrderRef,
		BayID:              b.BayID,
		SlotID:             b.SlotID,
		PickupDate:         b.PickupDate.Format(domain.DateFormat),
		StartTime:          b.StartTime,
		EndTime:            b.EndTime,
		DurationMinutes:    b.DurationMinutes,
		Type:               string(b.Type),
		Status:             string(b.Status),
		VehiclePlate:       b.VehiclePlate,
		DriverName:         b.DriverName,
		QRPayload:          b.QRPayload,
		Fee:                b.Fee,
		Paid:               b.Paid,
		CancellationReason: b.CancellationReason,
		CancelledBy:        b.CancelledBy,
		CheckedInAt:        b.CheckedInAt,
		CompletedAt:        b.CompletedAt,
		CancelledAt:        b.CancelledAt,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
	if b.VehicleType != nil {
		vt := string(*b.VehicleType)
		resp.VehicleType = &vt
	}
	return resp
}

// FromDomainBookingList конвертирует список доменных бронирований
func FromDomainBookingList(bookings []*domain.Booking) *BookingListResponse {
	resp := &BookingListResponse{
		Bookings: make([]*BookingResponse, 0, len(bookings)),
		Total:    len(bookings),
	}
	for _, b := range bookings {
		resp.Bookings = append(resp.Bookings, FromDomainBooking(b))
	}
	return resp
}
