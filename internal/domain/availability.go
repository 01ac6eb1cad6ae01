package domain

import (
	"time"

	"github.com/LitKanna/TF-PickupService/pkg/types"
)

// AvailabilityStatus classifies a bay availability block
type AvailabilityStatus string

const (
	AvailabilityBooked      AvailabilityStatus = "booked"
	AvailabilityMaintenance AvailabilityStatus = "maintenance"
	AvailabilityBlocked     AvailabilityStatus = "blocked"
)

// BayAvailability is a per-bay, per-date block record and the source of
// truth for the overlap test. Every committed booking owns exactly one
// block of status "booked"; maintenance/blocked rows are operator-imposed.
type BayAvailability struct {
	ID        int64
	BayID     int64
	Date      time.Time
	StartTime types.TimeString
	EndTime   types.TimeString
	Status    AvailabilityStatus

	// BookingID links a "booked" block to its booking; nil for operator blocks.
	BookingID *int64

	// Reason explains an operator block; nil for booked blocks.
	Reason *string

	CreatedAt time.Time
}

// Interval returns the block's half-open time-of-day interval.
func (a *BayAvailability) Interval() Interval {
	return Interval{Start: a.StartTime, End: a.EndTime}
}

// IsOperatorBlock returns true for maintenance/blocked rows.
func (a *BayAvailability) IsOperatorBlock() bool {
	return a.Status == AvailabilityMaintenance || a.Status == AvailabilityBlocked
}
