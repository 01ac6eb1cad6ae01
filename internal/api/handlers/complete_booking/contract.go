package complete_booking

import (
	"context"

	bookingsSvc "github.com/LitKanna/TF-PickupService/internal/service/bookings"
)

type BookingService interface {
	CompletePickup(ctx context.Context, id int64) (*bookingsSvc.BookingResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
