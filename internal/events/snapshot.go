package events

import (
	"github.com/LitKanna/TF-PickupService/internal/domain"
)

// SnapshotOf captures the event payload of a booking. Bay number and zone
// code are optional denormalized extras the caller fills in when it has
// them loaded.
func SnapshotOf(b *domain.Booking) BookingSnapshot {
	return BookingSnapshot{
		BookingID:        b.ID,
		Reference:        b.Reference,
		ConfirmationCode: b.ConfirmationCode,
		UserID:           b.UserID,
		OrderRef:         b.OrderRef,
		BayID:            b.BayID,
		PickupDate:       b.PickupDate.Format(domain.DateFormat),
		StartTime:        b.StartTime.String(),
		EndTime:          b.EndTime.String(),
		Status:           string(b.Status),
		Fee:              b.Fee,
		Paid:             b.Paid,
	}
}
