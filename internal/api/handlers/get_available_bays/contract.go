package get_available_bays

import (
	"context"

	availabilitySvc "github.com/LitKanna/TF-PickupService/internal/service/availability"
)

type AvailabilityService interface {
	GetAvailableBays(ctx context.Context, req *availabilitySvc.AvailableBaysRequest) (*availabilitySvc.AvailableBaysResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
