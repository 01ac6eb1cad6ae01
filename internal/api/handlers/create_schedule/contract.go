package create_schedule

import (
	"context"

	scheduleSvc "github.com/LitKanna/TF-PickupService/internal/service/schedule"
)

type ScheduleService interface {
	Create(ctx context.Context, req *scheduleSvc.CreateRequest) (*scheduleSvc.ScheduleResponse, error)
	GetByID(ctx context.Context, id int64, userID int64) (*scheduleSvc.ScheduleResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
