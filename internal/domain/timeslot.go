package domain

import (
	"time"

	"github.com/LitKanna/TF-PickupService/pkg/types"
)

// SlotType classifies a time slot template by demand tier
type SlotType string

const (
	SlotTypePremium  SlotType = "premium"
	SlotTypeStandard SlotType = "standard"
	SlotTypeOffPeak  SlotType = "off_peak"
)

// TimeSlot is a named recurring time window template. It is not itself
// schedulable; it contributes capacity and pricing to concrete bookings.
type TimeSlot struct {
	ID              int64
	Name            string
	Type            SlotType
	StartTime       types.TimeString
	EndTime         types.TimeString
	DurationMinutes int

	// MaxBookings caps bookings per occurrence of the slot (per date).
	MaxBookings     int
	PriceMultiplier float64

	// DaysOfWeek the slot applies to (time.Weekday values).
	DaysOfWeek []time.Weekday

	// AllowExactTime permits booking a sub-window inside the slot
	// instead of the whole slot window.
	AllowExactTime bool

	// Advance-booking window
	MinAdvanceHours int
	MaxAdvanceDays  int

	// Priority drives iteration order during next-slot search; lower is better.
	Priority int

	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AppliesOn returns true if the slot template is valid on the given weekday.
func (s *TimeSlot) AppliesOn(day time.Weekday) bool {
	for _, d := range s.DaysOfWeek {
		if d == day {
			return true
		}
	}
	return false
}

// Window returns the slot's half-open time-of-day interval.
func (s *TimeSlot) Window() Interval {
	return Interval{Start: s.StartTime, End: s.EndTime}
}

// WithinAdvanceWindow checks that a pickup at date/start respects the slot's
// min-hours / max-days advance booking constraints relative to now.
func (s *TimeSlot) WithinAdvanceWindow(pickupAt, now time.Time) bool {
	if s.MinAdvanceHours > 0 {
		if pickupAt.Before(now.Add(time.Duration(s.MinAdvanceHours) * time.Hour)) {
			return false
		}
	}
	if s.MaxAdvanceDays > 0 {
		limit := now.AddDate(0, 0, s.MaxAdvanceDays)
		if pickupAt.After(limit) {
			return false
		}
	}
	return true
}
