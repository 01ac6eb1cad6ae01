package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/LitKanna/TF-PickupService/internal/domain"
	"github.com/LitKanna/TF-PickupService/internal/events"
	bookingRepo "github.com/LitKanna/TF-PickupService/internal/infra/storage/booking"
	"github.com/LitKanna/TF-PickupService/internal/integrations/orderservice"
)

// Акторы отмены бронирования
const (
	ActorBuyer  = "buyer"
	ActorSeller = "seller"
	ActorStaff  = "staff"
	ActorSystem = "system"
)

// Service сервис чтения и простых переходов жизненного цикла бронирований.
// Транзакционные сценарии создания, переноса и чек-ина живут в usecase-слое.
type Service struct {
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

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	bookingRepo BookingRepository,
	availRepo AvailabilityRepository,
	registryRepo RegistryRepository,
	orderClient OrderServiceClient,
	txManager TransactionManager,
	bus EventBus,
	cache CacheInvalidator,
	timeProvider TimeProvider,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo:  bookingRepo,
		availRepo:    availRepo,
		registryRepo: registryRepo,
		orderClient:  orderClient,
		txManager:    txManager,
		bus:          bus,
		cache:        cache,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// GetByID получает бронирование по ID.
// Пользователь видит только собственные бронирования.
func (s *Service) GetByID(ctx context.Context, id int64, userID int64) (*BookingResponse, error) {
	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		s.logger.Warn("GetByID: access denied for user=%d to booking id=%d", userID, id)
		return nil, ErrAccessDenied
	}
	return FromDomainBooking(booking), nil
}

// GetByReference получает бронирование по публичной ссылке.
// Используется стойками выдачи, проверка владельца не выполняется.
func (s *Service) GetByReference(ctx context.Context, reference string) (*BookingResponse, error) {
	if reference == "" {
		return nil, fmt.Errorf("%w: reference is required", ErrInvalidInput)
	}

	booking, err := s.bookingRepo.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			return nil, ErrBookingNotFound
		}
		s.logger.Error("GetByReference: repository error for reference=%s: %v", reference, err)
		return nil, fmt.Errorf("%w: GetByReference - repository error: %v", ErrInternal, err)
	}
	return FromDomainBooking(booking), nil
}

// GetUserBookings получает историю бронирований пользователя
// с необязательным фильтром по статусу
func (s *Service) GetUserBookings(ctx context.Context, userID int64, status *string) (*BookingListResponse, error) {
	var domainStatus *domain.BookingStatus
	if status != nil {
		st := domain.BookingStatus(*status)
		if !domain.IsValidStatus(st) {
			return nil, fmt.Errorf("%w: invalid status %q", ErrInvalidInput, *status)
		}
		domainStatus = &st
	}

	bookings, err := s.bookingRepo.ListByUser(ctx, userID, domainStatus)
	if err != nil {
		s.logger.Error("GetUserBookings: repository error for user=%d: %v", userID, err)
		return nil, fmt.Errorf("%w: GetUserBookings - repository error: %v", ErrInternal, err)
	}
	return FromDomainBookingList(bookings), nil
}

// Cancel отменяет бронирование и освобождает блок занятости атомарно.
// Для оплаченных бронирований после коммита запускается внешний refund,
// его сбой не откатывает отмену.
func (s *Service) Cancel(ctx context.Context, req *CancelRequest) (*BookingResponse, error) {
	if req.Reason == "" {
		return nil, fmt.Errorf("%w: cancellation reason is required", ErrInvalidInput)
	}

	booking, err := s.load(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if req.Actor == ActorBuyer && booking.UserID != req.UserID {
		s.logger.Warn("Cancel: access denied for user=%d to booking id=%d", req.UserID, req.BookingID)
		return nil, ErrAccessDenied
	}
	if !booking.CanBeCancelled() {
		s.logger.Warn("Cancel: booking id=%d in status=%s cannot be cancelled", booking.ID, booking.Status)
		return nil, ErrCannotCancel
	}

	now := s.timeProvider.Now()
	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := s.bookingRepo.Cancel(txCtx, booking.ID, req.Reason, req.Actor, now); err != nil {
			return fmt.Errorf("cancel booking: %w", err)
		}
		if err := s.availRepo.DeleteByBookingID(txCtx, booking.ID); err != nil {
			return fmt.Errorf("release availability block: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Cancel: transaction failed for booking id=%d: %v", booking.ID, err)
		return nil, fmt.Errorf("%w: Cancel - transaction failed: %v", ErrInternal, err)
	}

	booking.Status = domain.StatusCancelled
	booking.CancellationReason = &req.Reason
	booking.CancelledBy = &req.Actor
	booking.CancelledAt = &now

	s.cache.InvalidateBayDate(ctx, booking.BayID, booking.PickupDate)

	// Возврат адресуется сервису заказов по OrderRef, поэтому оплаченная
	// бронь без привязки к заказу возвращается вне этого сервиса
	if booking.Paid {
		if booking.OrderRef != nil {
			if err := s.orderClient.TriggerRefund(ctx, *booking.OrderRef, booking.Reference); err != nil {
				s.logger.Error("Cancel: refund trigger failed for booking=%s: %v", booking.Reference, err)
			}
		} else {
			s.logger.Warn("Cancel: paid booking=%s has no order reference, refund skipped", booking.Reference)
		}
	}

	event := events.NewEvent(events.BookingCancelled, events.SnapshotOf(booking))
	event.Reason = &req.Reason
	s.bus.Publish(event)

	s.logger.Info("Cancel: booking=%s cancelled by %s", booking.Reference, req.Actor)
	return FromDomainBooking(booking), nil
}

// CompletePickup завершает выдачу после чек-ина и освобождает бокс.
// Для связанного заказа после коммита проставляется статус fulfilled.
func (s *Service) CompletePickup(ctx context.Context, id int64) (*BookingResponse, error) {
	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(booking.Status, domain.StatusCompleted) {
		s.logger.Warn("CompletePickup: booking id=%d in status=%s cannot be completed", booking.ID, booking.Status)
		return nil, ErrInvalidState
	}

	now := s.timeProvider.Now()
	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := s.bookingRepo.SetCompleted(txCtx, booking.ID, now); err != nil {
			return fmt.Errorf("complete booking: %w", err)
		}
		if err := s.registryRepo.UpdateBayStatus(txCtx, booking.BayID, domain.BayStatusAvailable); err != nil {
			return fmt.Errorf("release bay: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("CompletePickup: transaction failed for booking id=%d: %v", booking.ID, err)
		return nil, fmt.Errorf("%w: CompletePickup - transaction failed: %v", ErrInternal, err)
	}

	booking.Status = domain.StatusCompleted
	booking.CompletedAt = &now

	s.cache.InvalidateBayDate(ctx, booking.BayID, booking.PickupDate)

	if booking.OrderRef != nil {
		if err := s.orderClient.UpdateOrderStatus(ctx, *booking.OrderRef, orderservice.StatusFulfilled); err != nil {
			s.logger.Error("CompletePickup: order status update failed for booking=%s: %v", booking.Reference, err)
		}
	}

	s.bus.Publish(events.NewEvent(events.BookingCompleted, events.SnapshotOf(booking)))

	s.logger.Info("CompletePickup: booking=%s completed", booking.Reference)
	return FromDomainBooking(booking), nil
}

func (s *Service) load(ctx context.Context, id int64) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			return nil, ErrBookingNotFound
		}
		s.logger.Error("load: repository error for booking id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: repository error: %v", ErrInternal, err)
	}
	return booking, nil
}
