package domain

import "time"

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// Booking code formats
const (
	BookingReferencePrefix = "PB"
	BookingReferenceLength = 8 // random chars after the prefix
	ConfirmationCodeLength = 6

	ReferenceAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// Scheduling windows
const (
	// CheckInWindow is the allowed deviation around the scheduled pickup time,
	// on both sides, inclusive.
	CheckInWindow = 30 * time.Minute

	// ReminderLead is how long before the pickup time the reminder fires.
	ReminderLead = time.Hour

	// NextSlotSearchHorizonDays bounds the forward day-by-day search for a free slot.
	NextSlotSearchHorizonDays = 30
)

// Business validation constants
const (
	MinBookingDurationMinutes = 15
	MaxBookingDurationMinutes = 240
	MaxAlternativeBays        = 5
)

// BaseRates base pickup fee per bay type; multiplied by the slot price multiplier.
var BaseRates = map[BayType]float64{
	BayTypeTruck: 25.0,
	BayTypeVan:   15.0,
	BayTypeCar:   10.0,
}

// ComputeFee returns the pickup fee for a bay type under a slot multiplier.
// A nil slot (exact-time booking outside the catalog) uses multiplier 1.0.
func ComputeFee(bayType BayType, slot *TimeSlot) float64 {
	rate := BaseRates[bayType]
	if slot == nil {
		return rate
	}
	return rate * slot.PriceMultiplier
}
