package schedule

import (
	"context"
	"time"

	"github.com/LitKanna/TF-PickupService/internal/domain"
	"github.com/LitKanna/TF-PickupService/internal/usecase/create_booking"
)

// ScheduleRepository интерфейс репозитория расписаний
type ScheduleRepository interface {
	Create(ctx context.Context, s *domain.RecurringPickupSchedule) (*domain.RecurringPickupSchedule, error)
	GetByID(ctx context.Context, id int64) (*domain.RecurringPickupSchedule, error)
	ListDue(ctx context.Context, asOf time.Time) ([]*domain.RecurringPickupSchedule, error)
	AdvanceNextDate(ctx context.Context, id int64, next time.Time) error
	Flag(ctx context.Context, id int64, lastError string) error
	Deactivate(ctx context.Context, id int64) error
}

// RegistryRepository интерфейс репозитория зон и боксов
type RegistryRepository interface {
	GetBay(ctx context.Context, id int64) (*domain.Bay, error)
}

// BookingCreator интерфейс создания бронирования из расписания
type BookingCreator interface {
	Execute(ctx context.Context, req *create_booking.Request) (*create_booking.Response, error)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
