package get_peak_hours

import (
	"context"

	availabilitySvc "github.com/LitKanna/TF-PickupService/internal/service/availability"
)

type AvailabilityService interface {
	GetPeakHoursAnalysis(ctx context.Context, req *availabilitySvc.PeakHoursRequest) (*availabilitySvc.PeakHoursAnalysis, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
