package notifications

import (
	"context"
	"time"

	"github.com/LitKanna/TF-PickupService/internal/domain"
	"github.com/LitKanna/TF-PickupService/internal/events"
	"github.com/LitKanna/TF-PickupService/internal/infra/storage/booking"
)

// Notifier интерфейс клиента сервиса уведомлений
type Notifier interface {
	SendEmail(ctx context.Context, userID int64, subject, body string) error
	SendPush(ctx context.Context, userID int64, subject, body string) error
}

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	ListRemindersDue(ctx context.Context, filter booking.ReminderDueFilter) ([]*domain.Booking, error)
	MarkReminderSent(ctx context.Context, id int64, at time.Time) (bool, error)
}

// EventBus интерфейс шины событий жизненного цикла
type EventBus interface {
	Subscribe(eventType string, handler events.Handler)
	Publish(event events.Event)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
