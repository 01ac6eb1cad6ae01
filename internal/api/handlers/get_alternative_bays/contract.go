package get_alternative_bays

import (
	"context"
	"time"

	availabilitySvc "github.com/LitKanna/TF-PickupService/internal/service/availability"
	"github.com/LitKanna/TF-PickupService/pkg/types"
)

type AvailabilityService interface {
	GetAlternativeBays(ctx context.Context, bayID int64, date time.Time, start types.TimeString, durationMinutes int) ([]availabilitySvc.AlternativeBay, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
