package get_zone_availability

import (
	"context"
	"time"

	availabilitySvc "github.com/LitKanna/TF-PickupService/internal/service/availability"
)

type AvailabilityService interface {
	GetZoneAvailability(ctx context.Context, date time.Time) (*availabilitySvc.ZoneAvailabilityResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
