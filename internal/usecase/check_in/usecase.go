package check_in

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/LitKanna/TF-PickupService/internal/domain"
	"github.com/LitKanna/TF-PickupService/internal/events"
	bookingRepo "github.com/LitKanna/TF-PickupService/internal/infra/storage/booking"
	"github.com/LitKanna/TF-PickupService/internal/integrations/orderservice"
)

// Request модель запроса чек-ина со стойки выдачи
type Request struct {
	Reference        string
	ConfirmationCode string
}

// Response модель ответа с результатом чек-ина
type Response struct {
	BookingID   int64     `json:"booking_id"`
	Reference   string    `json:"reference"`
	BayID       int64     `json:"bay_id"`
	Status      string    `json:"status"`
	CheckedInAt time.Time `json:"checked_in_at"`
}

// UseCase use case чек-ина покупателя по коду подтверждения
type UseCase struct {
	bookingRepo  BookingRepository
	availRepo    AvailabilityRepository
	registryRepo RegistryRepository
	orderClient  OrderServiceClient
	txManager    TransactionManager
	bus          EventBus
	cache        CacheInvalidator
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	availRepo AvailabilityRepository,
	registryRepo RegistryRepository,
	orderClient OrderServiceClient,
	txManager TransactionManager,
	bus EventBus,
	cache CacheInvalidator,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		availRepo:    availRepo,
		registryRepo: registryRepo,
		orderClient:  orderClient,
		txManager:    txManager,
		bus:          bus,
		cache:        cache,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Execute выполняет чек-ин. Окно чек-ина это плюс-минус полчаса вокруг
// времени выдачи, обе границы включительно. Ранний приход отклоняется и
// может быть повторён; опоздание необратимо переводит бронь в no_show и
// освобождает окно бокса.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	if req.Reference == "" || req.ConfirmationCode == "" {
		return nil, fmt.Errorf("%w: reference and confirmation code are required", ErrInvalidInput)
	}

	booking, err := uc.bookingRepo.GetByReference(ctx, req.Reference)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			uc.logger.Warn("CheckIn: booking reference=%s not found", req.Reference)
			return nil, ErrBookingNotFound
		}
		uc.logger.Error("CheckIn: failed to get booking reference=%s: %v", req.Reference, err)
		return nil, fmt.Errorf("%w: failed to get booking: %v", ErrInternal, err)
	}

	if subtle.ConstantTimeCompare([]byte(booking.ConfirmationCode), []byte(req.ConfirmationCode)) != 1 {
		uc.logger.Warn("CheckIn: invalid confirmation code for booking=%s", booking.Reference)
		return nil, ErrInvalidCode
	}

	if !domain.CanTransition(booking.Status, domain.StatusCheckedIn) {
		uc.logger.Warn("CheckIn: booking=%s in status=%s cannot check in", booking.Reference, booking.Status)
		return nil, ErrNotConfirmed
	}

	now := uc.timeProvider.Now()
	pickupAt, err := booking.PickupAt()
	if err != nil {
		return nil, fmt.Errorf("%w: corrupt pickup time: %v", ErrInternal, err)
	}

	if !sameDay(booking.PickupDate, now) {
		uc.logger.Warn("CheckIn: booking=%s is for %s, not today",
			booking.Reference, booking.PickupDate.Format(domain.DateFormat))
		return nil, ErrWrongDay
	}

	windowOpen := pickupAt.Add(-domain.CheckInWindow)
	windowClose := pickupAt.Add(domain.CheckInWindow)

	if now.Before(windowOpen) {
		uc.logger.Info("CheckIn: booking=%s too early, window opens at %s", booking.Reference, windowOpen)
		return nil, ErrTooEarly
	}

	if now.After(windowClose) {
		return nil, uc.markNoShow(ctx, booking)
	}

	err = uc.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := uc.bookingRepo.SetCheckedIn(txCtx, booking.ID, now); err != nil {
			return fmt.Errorf("set checked in: %w", err)
		}
		if err := uc.registryRepo.UpdateBayStatus(txCtx, booking.BayID, domain.BayStatusOccupied); err != nil {
			return fmt.Errorf("occupy bay: %w", err)
		}
		return nil
	})
	if err != nil {
		uc.logger.Error("CheckIn: transaction failed for booking=%s: %v", booking.Reference, err)
		return nil, fmt.Errorf("%w: transaction failed: %v", ErrInternal, err)
	}

	booking.Status = domain.StatusCheckedIn
	booking.CheckedInAt = &now

	uc.cache.InvalidateBayDate(ctx, booking.BayID, booking.PickupDate)

	// Продавец узнаёт о прибытии покупателя; сбой не откатывает чек-ин
	if booking.OrderRef != nil {
		if err := uc.orderClient.UpdateOrderStatus(ctx, *booking.OrderRef, orderservice.StatusBuyerArrived); err != nil {
			uc.logger.Error("CheckIn: arrival notification failed for booking=%s: %v", booking.Reference, err)
		}
	}

	uc.bus.Publish(events.NewEvent(events.BookingCheckedIn, events.SnapshotOf(booking)))

	uc.logger.Info("CheckIn: booking=%s checked in at bay=%d", booking.Reference, booking.BayID)
	return &Response{
		BookingID:   booking.ID,
		Reference:   booking.Reference,
		BayID:       booking.BayID,
		Status:      string(booking.Status),
		CheckedInAt: now,
	}, nil
}

// markNoShow переводит опоздавшую бронь в no_show и освобождает окно бокса
func (uc *UseCase) markNoShow(ctx context.Context, booking *domain.Booking) error {
	err := uc.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := uc.bookingRepo.SetNoShow(txCtx, booking.ID); err != nil {
			return fmt.Errorf("set no show: %w", err)
		}
		if err := uc.availRepo.DeleteByBookingID(txCtx, booking.ID); err != nil {
			return fmt.Errorf("release availability block: %w", err)
		}
		return nil
	})
	if err != nil {
		uc.logger.Error("CheckIn: no-show transition failed for booking=%s: %v", booking.Reference, err)
		return fmt.Errorf("%w: no-show transition failed: %v", ErrInternal, err)
	}

	booking.Status = domain.StatusNoShow
	uc.cache.InvalidateBayDate(ctx, booking.BayID, booking.PickupDate)
	uc.bus.Publish(events.NewEvent(events.BookingNoShow, events.SnapshotOf(booking)))

	uc.logger.Warn("CheckIn: booking=%s marked no_show, window closed", booking.Reference)
	return ErrWindowClosed
}

// sameDay проверяет, что две даты относятся к одному и тому же дню
func sameDay(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
