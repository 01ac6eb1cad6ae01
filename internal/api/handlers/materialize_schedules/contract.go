package materialize_schedules

import (
	"context"

	scheduleSvc "github.com/LitKanna/TF-PickupService/internal/service/schedule"
)

type ScheduleService interface {
	MaterializeDue(ctx context.Context) (*scheduleSvc.MaterializeReport, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
