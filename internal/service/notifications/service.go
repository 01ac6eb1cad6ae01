package notifications

import (
	"context"
	"fmt"

	"github.com/LitKanna/TF-PickupService/internal/events"
)

// Service переводит события жизненного цикла бронирований в сообщения
// покупателю. Отправка идёт после коммита и никогда не влияет на сам
// переход состояния: сбой здесь только логируется.
type Service struct {
	notifier Notifier
	logger   Logger
}

// NewService создает новый экземпляр сервиса уведомлений
func NewService(notifier Notifier, logger Logger) *Service {
	return &Service{
		notifier: notifier,
		logger:   logger,
	}
}

// RegisterOn подписывает сервис на события жизненного цикла
func (s *Service) RegisterOn(bus EventBus) {
	bus.Subscribe(events.BookingCreated, s.handle)
	bus.Subscribe(events.BookingConfirmed, s.handle)
	bus.Subscribe(events.BookingUpdated, s.handle)
	bus.Subscribe(events.BookingCancelled, s.handle)
	bus.Subscribe(events.BookingCheckedIn, s.handle)
	bus.Subscribe(events.BookingCompleted, s.handle)
	bus.Subscribe(events.BookingNoShow, s.handle)
	bus.Subscribe(events.BookingReminder, s.handle)
}

func (s *Service) handle(event events.Event) {
	subject, body, ok := composeMessage(event)
	if !ok {
		return
	}

	ctx := context.Background()
	b := event.Booking

	if err := s.notifier.SendEmail(ctx, b.UserID, subject, body); err != nil {
		s.logger.Error("notifications: email failed for booking=%s event=%s: %v", b.Reference, event.Type, err)
	}
	if err := s.notifier.SendPush(ctx, b.UserID, subject, body); err != nil {
		s.logger.Error("notifications: push failed for booking=%s event=%s: %v", b.Reference, event.Type, err)
	}

	s.logger.Info("notifications: booking=%s event=%s delivered to user=%d", b.Reference, event.Type, b.UserID)
}

// composeMessage строит тему и текст сообщения по типу события
func composeMessage(event events.Event) (subject, body string, ok bool) {
	b := event.Booking
	when := fmt.Sprintf("%s %s-%s", b.PickupDate, b.StartTime, b.EndTime)
	place := b.BayNumber
	if b.ZoneCode != "" {
		place = fmt.Sprintf("%s (zone %s)", b.BayNumber, b.ZoneCode)
	}

	switch event.Type {
	case events.BookingCreated:
		return fmt.Sprintf("Pickup booking %s created", b.Reference),
			fmt.Sprintf("Your pickup is booked for %s. Confirmation code: %s.", when, b.ConfirmationCode),
			true

	case events.BookingConfirmed:
		return fmt.Sprintf("Pickup booking %s confirmed", b.Reference),
			fmt.Sprintf("Your pickup on %s is confirmed. Confirmation code: %s.", when, b.ConfirmationCode),
			true

	case events.BookingUpdated:
		body := fmt.Sprintf("Your pickup %s was moved to %s.", b.Reference, when)
		if event.OldValues != nil {
			body = fmt.Sprintf("Your pickup %s was moved from %s %s to %s.",
				b.Reference, event.OldValues.PickupDate, event.OldValues.StartTime, when)
		}
		return fmt.Sprintf("Pickup booking %s updated", b.Reference), body, true

	case events.BookingCancelled:
		body := fmt.Sprintf("Your pickup %s on %s was cancelled.", b.Reference, when)
		if event.Reason != nil {
			body += " Reason: " + *event.Reason + "."
		}
		return fmt.Sprintf("Pickup booking %s cancelled", b.Reference), body, true

	case events.BookingCheckedIn:
		return fmt.Sprintf("Checked in for pickup %s", b.Reference),
			fmt.Sprintf("You are checked in. Please proceed to bay %s.", place),
			true

	case events.BookingCompleted:
		return fmt.Sprintf("Pickup %s completed", b.Reference),
			"Your pickup is complete. Thank you!",
			true

	case events.BookingNoShow:
		return fmt.Sprintf("Missed pickup %s", b.Reference),
			fmt.Sprintf("The check-in window for your pickup on %s has closed. Please book a new slot.", when),
			true

	case events.BookingReminder:
		return fmt.Sprintf("Pickup %s starts soon", b.Reference),
			fmt.Sprintf("Reminder: your pickup is at %s, bay %s. Confirmation code: %s.", when, place, b.ConfirmationCode),
			true
	}
	return "", "", false
}
