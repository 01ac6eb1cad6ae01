package domain

import "time"

// Zone represents a physical pickup area grouping bays that share
// location and equipment.
type Zone struct {
	ID       int64
	Code     string
	Name     string
	Location string

	// Equipment flags
	HasForklift    bool
	HasTrolleyArea bool
	Covered        bool

	// Bay-type counts, kept denormalized for reporting
	TruckBays int
	VanBays   int
	CarSpots  int

	// Priority drives ordering in availability views; lower is better.
	Priority int

	// DistanceFromEntrance in meters, used to rank alternative bays.
	DistanceFromEntrance float64

	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TotalBays returns the total number of bays the zone is configured for.
func (z *Zone) TotalBays() int {
	return z.TruckBays + z.VanBays + z.CarSpots
}
