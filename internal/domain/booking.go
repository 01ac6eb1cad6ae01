package domain

import (
	"time"

	"github.com/LitKanna/TF-PickupService/pkg/types"
)

// BookingStatus represents the status of a pickup booking
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCheckedIn BookingStatus = "checked_in"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
	StatusNoShow    BookingStatus = "no_show"
)

// BookingType distinguishes ad-hoc bookings from ones materialized
// out of a recurring schedule
type BookingType string

const (
	BookingOneTime   BookingType = "one_time"
	BookingRecurring BookingType = "recurring"
)

// Booking is the central aggregate: one bay, one time window, one user.
type Booking struct {
	ID               int64
	Reference        string // globally unique, "PB" + 8 chars
	ConfirmationCode string // globally unique, 6 chars

	UserID   int64
	OrderRef *string // optional link to the originating order
	BayID    int64
	SlotID   *int64 // optional time-slot template the booking was taken from

	PickupDate      time.Time
	StartTime       types.TimeString
	EndTime         types.TimeString // always StartTime + DurationMinutes
	DurationMinutes int

	Type   BookingType
	Status BookingStatus

	// Vehicle / driver metadata
	VehicleType  *VehicleType
	VehiclePlate *string
	DriverName   *string

	QRPayload *string // JSON payload handed to the external QR renderer
	Fee       float64
	Paid      bool

	CancellationReason *string
	CancelledBy        *string

	// Audit timestamps
	CheckedInAt    *time.Time
	CompletedAt    *time.Time
	CancelledAt    *time.Time
	ReminderSentAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// legalTransitions is the closed transition table of the booking state
// machine. Creation enters at pending or confirmed; completed, cancelled
// and no_show are terminal.
var legalTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCheckedIn, StatusCancelled, StatusNoShow},
	StatusCheckedIn: {StatusCompleted},
	StatusCompleted: {},
	StatusCancelled: {},
	StatusNoShow:    {},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to BookingStatus) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsValidStatus reports whether s is a known booking status.
func IsValidStatus(s BookingStatus) bool {
	_, ok := legalTransitions[s]
	return ok
}

// IsTerminal returns true for statuses with no outgoing transitions.
func (b *Booking) IsTerminal() bool {
	return len(legalTransitions[b.Status]) == 0
}

// IsActive returns true while the booking still occupies its bay window.
func (b *Booking) IsActive() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed || b.Status == StatusCheckedIn
}

// CanBeCancelled returns true if the booking can still be cancelled.
// Checked-in and terminal bookings cannot.
func (b *Booking) CanBeCancelled() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

// CanBeUpdated returns true if bay/date/time changes are still permitted.
func (b *Booking) CanBeUpdated() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

// Window returns the booking's half-open time-of-day interval.
func (b *Booking) Window() Interval {
	return Interval{Start: b.StartTime, End: b.EndTime}
}

// PickupAt returns the full pickup instant (date + start time).
func (b *Booking) PickupAt() (time.Time, error) {
	return b.StartTime.At(b.PickupDate)
}

// ActiveStatuses are statuses that occupy a bay window.
var ActiveStatuses = []BookingStatus{StatusPending, StatusConfirmed, StatusCheckedIn}

// CountableStatuses are statuses counted in utilisation analytics.
var CountableStatuses = []BookingStatus{StatusConfirmed, StatusCheckedIn, StatusCompleted}

// SameDayStatuses are statuses that mark a bay as taken for the coarse
// zone-level same-day view.
var SameDayStatuses = []BookingStatus{StatusConfirmed, StatusCheckedIn}
