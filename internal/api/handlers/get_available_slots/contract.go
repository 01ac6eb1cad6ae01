package get_available_slots

import (
	"context"
	"time"

	availabilitySvc "github.com/LitKanna/TF-PickupService/internal/service/availability"
)

type AvailabilityService interface {
	GetAvailableTimeSlots(ctx context.Context, date time.Time, bayID *int64) (*availabilitySvc.TimeSlotsResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
