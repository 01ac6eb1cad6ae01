package availability

import (
	"context"
	"time"

	"github.com/LitKanna/TF-PickupService/internal/domain"
	"github.com/LitKanna/TF-PickupService/internal/infra/storage/registry"
	"github.com/LitKanna/TF-PickupService/pkg/types"
)

// RegistryRepository интерфейс репозитория зон и боксов
type RegistryRepository interface {
	ListZones(ctx context.Context, activeOnly bool) ([]*domain.Zone, error)
	GetZone(ctx context.Context, id int64) (*domain.Zone, error)
	ListBays(ctx context.Context, filter registry.BayFilter) ([]*domain.Bay, error)
	GetBay(ctx context.Context, id int64) (*domain.Bay, error)
}

// SlotRepository интерфейс репозитория каталога временных слотов
type SlotRepository interface {
	ListActiveForWeekday(ctx context.Context, day time.Weekday) ([]*domain.TimeSlot, error)
	ListActive(ctx context.Context) ([]*domain.TimeSlot, error)
	GetByID(ctx context.Context, id int64) (*domain.TimeSlot, error)
}

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	ListForDate(ctx context.Context, date time.Time, statuses []domain.BookingStatus) ([]*domain.Booking, error)
	ListBetween(ctx context.Context, startDate, endDate time.Time, statuses []domain.BookingStatus) ([]*domain.Booking, error)
	CountBySlotAndDate(ctx context.Context, slotID int64, date time.Time, statuses []domain.BookingStatus) (int, error)
}

// AvailabilityRepository интерфейс репозитория блоков занятости
type AvailabilityRepository interface {
	ListOverlapping(ctx context.Context, bayID int64, date time.Time, start, end types.TimeString) ([]*domain.BayAvailability, error)
	ListForBayAndDate(ctx context.Context, bayID int64, date time.Time) ([]*domain.BayAvailability, error)
	ListForDate(ctx context.Context, date time.Time) ([]*domain.BayAvailability, error)
}

// Cache интерфейс кеша витрин доступности. Реализация обязана быть
// отказоустойчивой: промах и ошибка Redis неразличимы для сервиса.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{})
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
