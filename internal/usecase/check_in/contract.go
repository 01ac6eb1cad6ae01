package check_in

import (
	"context"
	"time"

	"github.com/LitKanna/TF-PickupService/internal/domain"
	"github.com/LitKanna/TF-PickupService/internal/events"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByReference(ctx context.Context, reference string) (*domain.Booking, error)
	SetCheckedIn(ctx context.Context, id int64, at time.Time) error
	SetNoShow(ctx context.Context, id int64) error
}

// AvailabilityRepository интерфейс репозитория блоков занятости
type AvailabilityRepository interface {
	DeleteByBookingID(ctx context.Context, bookingID int64) error
}

// RegistryRepository интерфейс репозитория зон и боксов
type RegistryRepository interface {
	UpdateBayStatus(ctx context.Context, id int64, status domain.BayStatus) error
}

// OrderServiceClient интерфейс клиента Order-контекста
type OrderServiceClient interface {
	UpdateOrderStatus(ctx context.Context, orderRef string, status string) error
}

// EventBus интерфейс шины событий жизненного цикла
type EventBus interface {
	Publish(event events.Event)
}

// CacheInvalidator интерфейс сброса кеша доступности
type CacheInvalidator interface {
	InvalidateBayDate(ctx context.Context, bayID int64, date time.Time)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
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
