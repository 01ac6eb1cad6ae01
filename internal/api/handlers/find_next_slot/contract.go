package find_next_slot

import (
	"context"

	availabilitySvc "github.com/LitKanna/TF-PickupService/internal/service/availability"
)

type AvailabilityService interface {
	FindNextAvailableSlot(ctx context.Context, req *availabilitySvc.NextSlotRequest) (*availabilitySvc.NextSlotResult, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
