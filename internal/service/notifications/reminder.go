package notifications

import (
	"context"
	"time"

	"github.com/LitKanna/TF-PickupService/internal/domain"
	"github.com/LitKanna/TF-PickupService/internal/events"
	"github.com/LitKanna/TF-PickupService/internal/infra/storage/booking"
)

// reminderBatchLimit ограничивает один тик, чтобы разовый бэклог
// не растягивал обработку на весь интервал
const reminderBatchLimit = 200

// ReminderScheduler раз в интервал находит подтверждённые бронирования,
// до которых остался час, и шлёт напоминание. Отметка reminder_sent_at
// обновляется условно, поэтому повторная отправка исключена даже при
// нескольких экземплярах сервиса.
type ReminderScheduler struct {
	bookingRepo  BookingRepository
	bus          EventBus
	timeProvider TimeProvider
	interval     time.Duration
	logger       Logger
}

// NewReminderScheduler создает новый планировщик напоминаний
func NewReminderScheduler(
	bookingRepo BookingRepository,
	bus EventBus,
	timeProvider TimeProvider,
	interval time.Duration,
	logger Logger,
) *ReminderScheduler {
	return &ReminderScheduler{
		bookingRepo:  bookingRepo,
		bus:          bus,
		timeProvider: timeProvider,
		interval:     interval,
		logger:       logger,
	}
}

// Run крутит цикл напоминаний до отмены контекста
func (r *ReminderScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reminders: scheduler started, interval=%s", r.interval)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reminders: scheduler stopped")
			return
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}

// Tick обрабатывает один проход: выбирает должников и отправляет напоминания
func (r *ReminderScheduler) Tick(ctx context.Context) {
	now := r.timeProvider.Now()

	due, err := r.bookingRepo.ListRemindersDue(ctx, booking.ReminderDueFilter{
		DueBy: now.Add(domain.ReminderLead),
		Limit: reminderBatchLimit,
	})
	if err != nil {
		r.logger.Error("reminders: failed to list due bookings: %v", err)
		return
	}

	for _, b := range due {
		// Условная отметка: false значит другой экземпляр успел раньше
		claimed, err := r.bookingRepo.MarkReminderSent(ctx, b.ID, now)
		if err != nil {
			r.logger.Error("reminders: failed to mark booking=%s: %v", b.Reference, err)
			continue
		}
		if !claimed {
			continue
		}

		r.bus.Publish(events.NewEvent(events.BookingReminder, events.SnapshotOf(b)))
		r.logger.Info("reminders: sent for booking=%s at %s", b.Reference, b.StartTime)
	}
}
