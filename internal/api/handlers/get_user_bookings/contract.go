package get_user_bookings

import (
	"context"

	bookingsSvc "github.com/LitKanna/TF-PickupService/internal/service/bookings"
)

type BookingService interface {
	GetUserBookings(ctx context.Context, userID int64, status *string) (*bookingsSvc.BookingListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
