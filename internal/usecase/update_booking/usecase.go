package update_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LitKanna/TF-PickupService/internal/domain"
	"github.com/LitKanna/TF-PickupService/internal/events"
	bookingRepo "github.com/LitKanna/TF-PickupService/internal/infra/storage/booking"
	registryRepo "github.com/LitKanna/TF-PickupService/internal/infra/storage/registry"
	"github.com/LitKanna/TF-PickupService/pkg/types"
)

// Request модель запроса на перенос бронирования.
// Неуказанные поля остаются прежними.
type Request struct {
	BookingID int64
	UserID    int64

	BayID           *int64
	Date            *time.Time
	StartTime       *types.TimeString
	DurationMinutes *int
}

// Response модель ответа с обновлённым бронированием
type Response struct {
	ID              int64            `json:"id"`
	Reference       string           `json:"reference"`
	BayID           int64            `json:"bay_id"`
	SlotID          *int64           `json:"slot_id,omitempty"`
	PickupDate      string           `json:"pickup_date"`
	StartTime       types.TimeString `json:"start_time"`
	EndTime         types.TimeString `json:"end_time"`
	DurationMinutes int              `json:"duration_minutes"`
	Status          string           `json:"status"`
	Fee             float64          `json:"fee"`
}

// UseCase use case переноса бронирования на другой бокс, дату или время
type UseCase struct {
	bookingRepo  BookingRepository
	availRepo    AvailabilityRepository
	registryRepo RegistryRepository
	slotRepo     SlotRepository
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
	slotRepo SlotRepository,
	txManager TransactionManager,
	bus EventBus,
	cache CacheInvalidator,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		availRepo:    availRepo,
		registryRepo: registryRepo,
		slotRepo:     slotRepo,
		txManager:    txManager,
		bus:          bus,
		cache:        cache,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Execute выполняет перенос. Новое окно проходит ту же проверку
// пересечений, что и создание; замена блока занятости и обновление
// бронирования идут в одной сериализуемой транзакции.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("UpdateBooking: booking=%d user=%d", req.BookingID, req.UserID)

	if req.BayID == nil && req.Date == nil && req.StartTime == nil && req.DurationMinutes == nil {
		return nil, ErrNoChanges
	}

	booking, err := uc.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			uc.logger.Warn("UpdateBooking: booking id=%d not found", req.BookingID)
			return nil, ErrBookingNotFound
		}
		uc.logger.Error("UpdateBooking: failed to get booking id=%d: %v", req.BookingID, err)
		return nil, fmt.Errorf("%w: failed to get booking: %v", ErrInternal, err)
	}
	if booking.UserID != req.UserID {
		uc.logger.Warn("UpdateBooking: access denied for user=%d to booking id=%d", req.UserID, req.BookingID)
		return nil, ErrAccessDenied
	}
	if !booking.CanBeUpdated() {
		uc.logger.Warn("UpdateBooking: booking id=%d in status=%s cannot be updated", booking.ID, booking.Status)
		return nil, ErrCannotUpdate
	}

	// Целевые значения, по умолчанию текущие
	newBayID := booking.BayID
	if req.BayID != nil {
		newBayID = *req.BayID
	}
	newDate := booking.PickupDate
	if req.Date != nil {
		newDate = *req.Date
	}
	newStart := booking.StartTime
	if req.StartTime != nil {
		if err := req.StartTime.Validate(); err != nil {
			return nil, fmt.Errorf("%w: invalid startTime format: %v", ErrInvalidInput, err)
		}
		newStart = *req.StartTime
	}
	newDuration := booking.DurationMinutes
	if req.DurationMinutes != nil {
		newDuration = *req.DurationMinutes
	}
	if newDuration < domain.MinBookingDurationMinutes || newDuration > domain.MaxBookingDurationMinutes {
		return nil, fmt.Errorf("%w: duration must be between %d and %d minutes",
			ErrInvalidInput, domain.MinBookingDurationMinutes, domain.MaxBookingDurationMinutes)
	}

	window, err := domain.NewInterval(newStart, newDuration)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	now := uc.timeProvider.Now()
	pickupAt, err := window.Start.At(newDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid pickup time: %v", ErrInvalidInput, err)
	}
	if pickupAt.Before(now) {
		uc.logger.Warn("UpdateBooking: new pickup time %s already passed", pickupAt)
		return nil, ErrInvalidDate
	}

	// Целевой бокс с той же проверкой, что при создании
	bay, err := uc.registryRepo.GetBay(ctx, newBayID)
	if err != nil {
		if errors.Is(err, registryRepo.ErrBayNotFound) {
			uc.logger.Warn("UpdateBooking: bay id=%d not found", newBayID)
			return nil, ErrBayNotFound
		}
		uc.logger.Error("UpdateBooking: failed to get bay id=%d: %v", newBayID, err)
		return nil, fmt.Errorf("%w: failed to get bay: %v", ErrInternal, err)
	}
	if !bay.IsBookable() {
		return nil, ErrBayNotBookable
	}
	if booking.VehicleType != nil {
		fits := false
		for _, t := range domain.CompatibleBayTypes(*booking.VehicleType) {
			if t == bay.Type {
				fits = true
				break
			}
		}
		if !fits {
			return nil, fmt.Errorf("%w: %s cannot use %s", ErrInvalidInput, *booking.VehicleType, bay.Type)
		}
	}

	zone, err := uc.registryRepo.GetZone(ctx, bay.ZoneID)
	if err != nil {
		uc.logger.Error("UpdateBooking: failed to get zone id=%d: %v", bay.ZoneID, err)
		return nil, fmt.Errorf("%w: failed to get zone: %v", ErrInternal, err)
	}
	if !zone.Active {
		return nil, ErrZoneInactive
	}

	// Слот сохраняется, только если новое окно всё ещё совпадает с ним
	newSlotID, slot, err := uc.resolveSlot(ctx, booking, newDate, window)
	if err != nil {
		return nil, err
	}
	newFee := domain.ComputeFee(bay.Type, slot)

	oldValues := &events.ChangedValues{
		BayID:      booking.BayID,
		PickupDate: booking.PickupDate.Format(domain.DateFormat),
		StartTime:  booking.StartTime.String(),
	}
	oldBayID := booking.BayID
	oldDate := booking.PickupDate

	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// Пересечения, не считая собственного блока (FOR UPDATE)
		blocks, err := uc.availRepo.ListOverlapping(txCtx, bay.ID, newDate, window.Start, window.End)
		if err != nil {
			uc.logger.Error("UpdateBooking: failed to list overlapping blocks: %v", err)
			return fmt.Errorf("%w: failed to list overlapping blocks: %v", ErrInternal, err)
		}
		for _, block := range blocks {
			if block.BookingID != nil && *block.BookingID == booking.ID {
				continue
			}
			uc.logger.Warn("UpdateBooking: bay=%d taken on %s %s-%s",
				bay.ID, newDate.Format(domain.DateFormat), window.Start, window.End)
			return ErrSlotConflict
		}

		// Атомарная замена блока занятости
		if err := uc.availRepo.DeleteByBookingID(txCtx, booking.ID); err != nil {
			return fmt.Errorf("%w: failed to delete old block: %v", ErrInternal, err)
		}
		_, err = uc.availRepo.InsertBlock(txCtx, &domain.BayAvailability{
			BayID:     bay.ID,
			Date:      newDate,
			StartTime: window.Start,
			EndTime:   window.End,
			Status:    domain.AvailabilityBooked,
			BookingID: &booking.ID,
		})
		if err != nil {
			return fmt.Errorf("%w: failed to insert new block: %v", ErrInternal, err)
		}

		return uc.bookingRepo.UpdateSchedule(txCtx, booking.ID, bookingRepo.ScheduleChange{
			BayID:           bay.ID,
			PickupDate:      newDate,
			StartTime:       window.Start,
			EndTime:         window.End,
			DurationMinutes: newDuration,
			SlotID:          newSlotID,
			Fee:             newFee,
		})
	})
	if err != nil {
		return nil, err
	}

	booking.BayID = bay.ID
	booking.PickupDate = newDate
	booking.StartTime = window.Start
	booking.EndTime = window.End
	booking.DurationMinutes = newDuration
	booking.SlotID = newSlotID
	booking.Fee = newFee

	uc.cache.InvalidateBayDate(ctx, oldBayID, oldDate)
	uc.cache.InvalidateBayDate(ctx, bay.ID, newDate)

	snapshot := events.SnapshotOf(booking)
	snapshot.BayNumber = bay.Number
	snapshot.ZoneCode = zone.Code
	event := events.NewEvent(events.BookingUpdated, snapshot)
	event.OldValues = oldValues
	uc.bus.Publish(event)

	uc.logger.Info("UpdateBooking: booking=%s moved to bay=%d %s %s-%s",
		booking.Reference, bay.ID, newDate.Format(domain.DateFormat), window.Start, window.End)

	return &Response{
		ID:              booking.ID,
		Reference:       booking.Reference,
		BayID:           booking.BayID,
		SlotID:          booking.SlotID,
		PickupDate:      booking.PickupDate.Format(domain.DateFormat),
		StartTime:       booking.StartTime,
		EndTime:         booking.EndTime,
		DurationMinutes: booking.DurationMinutes,
		Status:          string(booking.Status),
		Fee:             booking.Fee,
	}, nil
}

// resolveSlot решает, остаётся ли бронь привязанной к шаблону слота.
// Привязка сохраняется, только если слот действует в новый день недели и
// новое окно не выходит за его рамки.
func (uc *UseCase) resolveSlot(ctx context.Context, booking *domain.Booking, newDate time.Time, window domain.Interval) (*int64, *domain.TimeSlot, error) {
	if booking.SlotID == nil {
		return nil, nil, nil
	}

	slot, err := uc.slotRepo.GetByID(ctx, *booking.SlotID)
	if err != nil {
		uc.logger.Warn("UpdateBooking: cannot load slot id=%d, detaching: %v", *booking.SlotID, err)
		return nil, nil, nil
	}
	if !slot.Active || !slot.AppliesOn(newDate.Weekday()) {
		return nil, nil, nil
	}
	if window.Start.IsBefore(slot.StartTime) || slot.EndTime.IsBefore(window.End) {
		return nil, nil, nil
	}
	return booking.SlotID, slot, nil
}
