package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    BookingStatus
		to      BookingStatus
		allowed bool
	}{
		{"pending to confirmed", StatusPending, StatusConfirmed, true},
		{"pending to cancelled", StatusPending, StatusCancelled, true},
		{"confirmed to checked_in", StatusConfirmed, StatusCheckedIn, true},
		{"confirmed to cancelled", StatusConfirmed, StatusCancelled, true},
		{"confirmed to no_show", StatusConfirmed, StatusNoShow, true},
		{"checked_in to completed", StatusCheckedIn, StatusCompleted, true},
		// Недопустимые переходы
		{"pending to checked_in", StatusPending, StatusCheckedIn, false},
		{"pending to no_show", StatusPending, StatusNoShow, false},
		{"pending to completed", StatusPending, StatusCompleted, false},
		{"checked_in to cancelled", StatusCheckedIn, StatusCancelled, false},
		{"checked_in to no_show", StatusCheckedIn, StatusNoShow, false},
		{"completed is terminal", StatusCompleted, StatusConfirmed, false},
		{"cancelled is terminal", StatusCancelled, StatusPending, false},
		{"no_show is terminal", StatusNoShow, StatusConfirmed, false},
		{"unknown status", BookingStatus("bogus"), StatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))
		})
	}
}

func TestBookingLifecyclePredicates(t *testing.T) {
	cancellable := map[BookingStatus]bool{
		StatusPending:   true,
		StatusConfirmed: true,
		StatusCheckedIn: false,
		StatusCompleted: false,
		StatusCancelled: false,
		StatusNoShow:    false,
	}

	for status, want := range cancellable {
		b := &Booking{Status: status}
		assert.Equal(t, want, b.CanBeCancelled(), "CanBeCancelled for %s", status)
		assert.Equal(t, want, b.CanBeUpdated(), "CanBeUpdated for %s", status)
	}

	assert.True(t, (&Booking{Status: StatusCheckedIn}).IsActive())
	assert.False(t, (&Booking{Status: StatusNoShow}).IsActive())
	assert.True(t, (&Booking{Status: StatusCompleted}).IsTerminal())
	assert.False(t, (&Booking{Status: StatusConfirmed}).IsTerminal())
}

func TestBookingPickupAt(t *testing.T) {
	b := &Booking{
		PickupDate: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		StartTime:  "14:30",
		EndTime:    "15:00",
	}

	at, err := b.PickupAt()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 10, 14, 30, 0, 0, time.UTC), at)

	window := b.Window()
	assert.True(t, window.Contains("14:30"))
	assert.False(t, window.Contains("15:00"))
}

func TestCompatibleBayTypes(t *testing.T) {
	assert.Equal(t, []BayType{BayTypeTruck}, CompatibleBayTypes(VehicleTruck))
	assert.Equal(t, []BayType{BayTypeVan, BayTypeTruck}, CompatibleBayTypes(VehicleVan))
	assert.Equal(t, []BayType{BayTypeCar, BayTypeVan}, CompatibleBayTypes(VehicleCar))
	assert.Empty(t, CompatibleBayTypes(VehicleType("bicycle")))
}

func TestComputeFee(t *testing.T) {
	assert.Equal(t, 25.0, ComputeFee(BayTypeTruck, nil))
	assert.Equal(t, 10.0, ComputeFee(BayTypeCar, nil))

	premium := &TimeSlot{PriceMultiplier: 1.5}
	assert.Equal(t, 22.5, ComputeFee(BayTypeVan, premium))
}
