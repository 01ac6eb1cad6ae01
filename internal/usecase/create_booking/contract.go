package create_booking

import (
	"context"
	"time"

	"github.com/LitKanna/TF-PickupService/internal/domain"
	"github.com/LitKanna/TF-PickupService/internal/events"
	"github.com/LitKanna/TF-PickupService/internal/infra/storage/registry"
	"github.com/LitKanna/TF-PickupService/pkg/types"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	CountBySlotAndDate(ctx context.Context, slotID int64, date time.Time, statuses []domain.BookingStatus) (int, error)
}

// AvailabilityRepository интерфейс репозитория блоков занятости
type AvailabilityRepository interface {
	ListOverlapping(ctx context.Context, bayID int64, date time.Time, start, end types.TimeString) ([]*domain.BayAvailability, error)
	InsertBlock(ctx context.Context, block *domain.BayAvailability) (*domain.BayAvailability, error)
}

// RegistryRepository интерфейс репозитория зон и боксов
type RegistryRepository interface {
	GetBay(ctx context.Context, id int64) (*domain.Bay, error)
	GetZone(ctx context.Context, id int64) (*domain.Zone, error)
	ListBays(ctx context.Context, filter registry.BayFilter) ([]*domain.Bay, error)
}

// SlotRepository интерфейс репозитория каталога временных слотов
type SlotRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.TimeSlot, error)
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
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
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
