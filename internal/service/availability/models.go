package availability

import (
	"time"

	"github.com/LitKanna/TF-PickupService/internal/domain"
	"github.com/LitKanna/TF-PickupService/pkg/types"
)

// Причины отказа в SlotCheck
const (
	ReasonConflict    = "conflict"
	ReasonBlocked     = "blocked"
	ReasonBayInactive = "bay_inactive"
)

// AvailableBaysRequest запрос свободных боксов на окно
type AvailableBaysRequest struct {
	Date            time.Time
	StartTime       types.TimeString
	DurationMinutes int
	VehicleType     domain.VehicleType
}

// AvailableBay свободный бокс вместе с данными его зоны
type AvailableBay struct {
	BayID                int64            `json:"bay_id"`
	Number               string           `json:"number"`
	Type                 domain.BayType   `json:"type"`
	ZoneID               int64            `json:"zone_id"`
	ZoneCode             string           `json:"zone_code"`
	ZoneName             string           `json:"zone_name"`
	DistanceFromEntrance float64          `json:"distance_from_entrance"`
}

// AvailableBaysResponse ответ со свободными боксами на окно
type AvailableBaysResponse struct {
	Date      string           `json:"date"`
	StartTime types.TimeString `json:"start_time"`
	EndTime   types.TimeString `json:"end_time"`
	Bays      []AvailableBay   `json:"bays"`
}

// SlotAvailability слот каталога с остатком вместимости на дату
type SlotAvailability struct {
	SlotID          int64            `json:"slot_id"`
	Name            string           `json:"name"`
	Type            domain.SlotType  `json:"type"`
	StartTime       types.TimeString `json:"start_time"`
	EndTime         types.TimeString `json:"end_time"`
	DurationMinutes int              `json:"duration_minutes"`
	MaxBookings     int              `json:"max_bookings"`
	BookedCount     int              `json:"booked_count"`
	Remaining       int              `json:"remaining"`
	PriceMultiplier float64          `json:"price_multiplier"`
	AllowExactTime  bool             `json:"allow_exact_time"`
	Available       bool             `json:"available"`
}

// TimeSlotsResponse ответ со слотами каталога на дату
type TimeSlotsResponse struct {
	Date  string             `json:"date"`
	Slots []SlotAvailability `json:"slots"`
}

// ZoneAvailability сводка доступности по одной зоне на дату
type ZoneAvailability struct {
	ZoneID         int64   `json:"zone_id"`
	Code           string  `json:"code"`
	Name           string  `json:"name"`
	TotalBays      int     `json:"total_bays"`
	AvailableBays  int     `json:"available_bays"`
	UtilizationPct float64 `json:"utilization_pct"`
	HasForklift    bool    `json:"has_forklift"`
	HasTrolleyArea bool    `json:"has_trolley_area"`
	Covered        bool    `json:"covered"`
}

// ZoneAvailabilityResponse ответ с доступностью всех активных зон
type ZoneAvailabilityResponse struct {
	Date  string             `json:"date"`
	Zones []ZoneAvailability `json:"zones"`
}

// NextSlotRequest запрос поиска ближайшего свободного слота.
// Пустой VehicleType не ограничивает тип бокса, nil PreferredZoneID
// не ограничивает зону.
type NextSlotRequest struct {
	From            time.Time
	VehicleType     domain.VehicleType
	DurationMinutes int
	PreferredZoneID *int64
}

// NextSlotResult первый свободный слот в пределах горизонта поиска
type NextSlotResult struct {
	Date      string           `json:"date"`
	SlotID    int64            `json:"slot_id"`
	SlotName  string           `json:"slot_name"`
	SlotType  domain.SlotType  `json:"slot_type"`
	StartTime types.TimeString `json:"start_time"`
	EndTime   types.TimeString `json:"end_time"`
	BayID     int64            `json:"bay_id"`
	BayNumber string           `json:"bay_number"`
}

// SlotCheck результат точечной проверки окна на боксе.
// Недоступность окна это бизнес-исход, а не ошибка.
type SlotCheck struct {
	Available       bool     `json:"available"`
	Reason          string   `json:"reason,omitempty"`
	ConflictingRefs []string `json:"conflicting_refs,omitempty"`
	BlockReason     *string  `json:"block_reason,omitempty"`
}

// AlternativeBay альтернативный бокс; боксы той же зоны идут первыми
type AlternativeBay struct {
	AvailableBay
	SameZone bool `json:"same_zone"`
}

// PeakHoursRequest запрос анализа загрузки за период
type PeakHoursRequest struct {
	StartDate time.Time
	EndDate   time.Time
}

// PeakHoursAnalysis распределение бронирований по часам и типам слотов.
// AveragePerHour считается по часам, в которых была хоть одна выдача.
type PeakHoursAnalysis struct {
	StartDate      string         `json:"start_date"`
	EndDate        string         `json:"end_date"`
	TotalBookings  int            `json:"total_bookings"`
	ByHour         [24]int        `json:"by_hour"`
	PeakHour       int            `json:"peak_hour"`
	PeakHourCount  int            `json:"peak_hour_count"`
	AveragePerHour float64        `json:"average_per_hour"`
	BySlotType     map[string]int `json:"by_slot_type"`
	ByWeekday      map[string]int `json:"by_weekday"`
}
