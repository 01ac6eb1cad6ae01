package domain

import "github.com/LitKanna/TF-PickupService/pkg/types"

// Interval is a half-open time-of-day interval [Start, End).
type Interval struct {
	Start types.TimeString
	End   types.TimeString
}

// NewInterval builds an interval from a start time and a duration in minutes.
func NewInterval(start types.TimeString, durationMinutes int) (Interval, error) {
	end, err := start.AddMinutes(durationMinutes)
	if err != nil {
		return Interval{}, err
	}
	return Interval{Start: start, End: end}, nil
}

// Overlaps reports whether two half-open intervals intersect.
// Touching boundaries (a.End == b.Start) do not overlap.
func (a Interval) Overlaps(b Interval) bool {
	return a.Start.IsBefore(b.End) && b.Start.IsBefore(a.End)
}

// Contains reports whether the instant t falls inside [Start, End).
func (a Interval) Contains(t types.TimeString) bool {
	return !t.IsBefore(a.Start) && t.IsBefore(a.End)
}
