package create_booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/LitKanna/TF-PickupService/internal/domain"
	"github.com/LitKanna/TF-PickupService/internal/events"
	bookingRepo "github.com/LitKanna/TF-PickupService/internal/infra/storage/booking"
	registryRepo "github.com/LitKanna/TF-PickupService/internal/infra/storage/registry"
	slotRepo "github.com/LitKanna/TF-PickupService/internal/infra/storage/timeslot"
)

// createCodeAttempts число попыток вставки при коллизии кодов
const createCodeAttempts = 3

// UseCase use case для создания бронирования
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

// Execute выполняет use case создания бронирования.
// Проверка пересечений и вставка бронирования с блоком занятости идут в
// одной сериализуемой транзакции, поэтому двойное бронирование одного
// окна невозможно даже при конкурентных запросах.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: user=%d, bay=%d, date=%s, time=%s, slot=%v",
		req.UserID, req.BayID, req.Date.Format(domain.DateFormat), req.StartTime, req.SlotID)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	now := uc.timeProvider.Now()
	if err := validateDate(req.Date, now); err != nil {
		uc.logger.Warn("CreateBooking: date %s is in the past", req.Date.Format(domain.DateFormat))
		return nil, err
	}

	// 2. Бокс и его зона
	bay, err := uc.registryRepo.GetBay(ctx, req.BayID)
	if err != nil {
		if errors.Is(err, registryRepo.ErrBayNotFound) {
			uc.logger.Warn("CreateBooking: bay id=%d not found", req.BayID)
			return nil, ErrBayNotFound
		}
		uc.logger.Error("CreateBooking: failed to get bay id=%d: %v", req.BayID, err)
		return nil, fmt.Errorf("%w: failed to get bay: %v", ErrInternal, err)
	}
	if !bay.IsBookable() {
		uc.logger.Warn("CreateBooking: bay id=%d is not bookable (status=%s, active=%v)",
			bay.ID, bay.Status, bay.Active)
		return nil, ErrBayNotBookable
	}

	if err := validateVehicleFitsBay(req.VehicleType, bay); err != nil {
		uc.logger.Warn("CreateBooking: vehicle does not fit bay id=%d: %v", bay.ID, err)
		return nil, err
	}

	zone, err := uc.registryRepo.GetZone(ctx, bay.ZoneID)
	if err != nil {
		uc.logger.Error("CreateBooking: failed to get zone id=%d: %v", bay.ZoneID, err)
		return nil, fmt.Errorf("%w: failed to get zone: %v", ErrInternal, err)
	}
	if !zone.Active {
		uc.logger.Warn("CreateBooking: zone id=%d is not active", zone.ID)
		return nil, ErrZoneInactive
	}

	// 3. Шаблон слота, если бронь идёт по каталогу
	var slot *domain.TimeSlot
	if req.SlotID != nil {
		slot, err = uc.slotRepo.GetByID(ctx, *req.SlotID)
		if err != nil {
			if errors.Is(err, slotRepo.ErrSlotNotFound) {
				uc.logger.Warn("CreateBooking: slot id=%d not found", *req.SlotID)
				return nil, ErrSlotNotFound
			}
			uc.logger.Error("CreateBooking: failed to get slot id=%d: %v", *req.SlotID, err)
			return nil, fmt.Errorf("%w: failed to get slot: %v", ErrInternal, err)
		}
		if !slot.Active {
			return nil, ErrSlotNotFound
		}
		if !slot.AppliesOn(req.Date.Weekday()) {
			uc.logger.Warn("CreateBooking: slot id=%d does not apply on %s", slot.ID, req.Date.Weekday())
			return nil, ErrSlotNotApplicable
		}
	}

	// 4. Итоговое окно бронирования
	window, duration, err := resolveWindow(req, slot)
	if err != nil {
		uc.logger.Warn("CreateBooking: window resolution failed: %v", err)
		return nil, err
	}

	pickupAt, err := window.Start.At(req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid pickup time: %v", ErrInvalidInput, err)
	}
	if pickupAt.Before(now) {
		uc.logger.Warn("CreateBooking: pickup time %s already passed", pickupAt)
		return nil, ErrInvalidDate
	}
	if slot != nil && !slot.WithinAdvanceWindow(pickupAt, now) {
		uc.logger.Warn("CreateBooking: slot id=%d advance window violated for %s", slot.ID, pickupAt)
		return nil, ErrOutsideAdvanceWindow
	}

	status := domain.StatusPending
	if req.AutoConfirm {
		status = domain.StatusConfirmed
	}
	bookingType := domain.BookingOneTime
	if req.Recurring {
		bookingType = domain.BookingRecurring
	}

	var result *domain.Booking

	// 5. Сериализуемая транзакция: проверка пересечений и двойная вставка
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 5.1. Пересечения с блоками занятости, с блокировкой строк (FOR UPDATE)
		blocks, err := uc.availRepo.ListOverlapping(txCtx, bay.ID, req.Date, window.Start, window.End)
		if err != nil {
			uc.logger.Error("CreateBooking: failed to list overlapping blocks: %v", err)
			return fmt.Errorf("%w: failed to list overlapping blocks: %v", ErrInternal, err)
		}
		if len(blocks) > 0 {
			uc.logger.Warn("CreateBooking: bay=%d taken on %s %s-%s (%d blocks)",
				bay.ID, req.Date.Format(domain.DateFormat), window.Start, window.End, len(blocks))
			return ErrSlotConflict
		}

		// 5.2. Вместимость слота на дату
		if slot != nil {
			booked, err := uc.bookingRepo.CountBySlotAndDate(txCtx, slot.ID, req.Date, domain.CountableStatuses)
			if err != nil {
				uc.logger.Error("CreateBooking: failed to count slot bookings: %v", err)
				return fmt.Errorf("%w: failed to count slot bookings: %v", ErrInternal, err)
			}
			if booked >= slot.MaxBookings {
				uc.logger.Warn("CreateBooking: slot id=%d capacity reached, %d/%d",
					slot.ID, booked, slot.MaxBookings)
				return ErrSlotCapacityReached
			}
		}

		// 5.3. Вставка бронирования; при коллизии кодов генерируем заново
		booking := &domain.Booking{
			UserID:          req.UserID,
			OrderRef:        req.OrderRef,
			BayID:           bay.ID,
			SlotID:          req.SlotID,
			PickupDate:      req.Date,
			StartTime:       window.Start,
			EndTime:         window.End,
			DurationMinutes: duration,
			Type:            bookingType,
			Status:          status,
			VehicleType:     req.VehicleType,
			VehiclePlate:    req.VehiclePlate,
			DriverName:      req.DriverName,
			Fee:             domain.ComputeFee(bay.Type, slot),
			Paid:            req.Paid,
		}

		created, err := uc.insertWithFreshCodes(txCtx, booking, bay, zone)
		if err != nil {
			return err
		}

		// 5.4. Блок занятости, источник истины для проверки пересечений
		_, err = uc.availRepo.InsertBlock(txCtx, &domain.BayAvailability{
			BayID:     bay.ID,
			Date:      req.Date,
			StartTime: window.Start,
			EndTime:   window.End,
			Status:    domain.AvailabilityBooked,
			BookingID: &created.ID,
		})
		if err != nil {
			uc.logger.Error("CreateBooking: failed to insert availability block: %v", err)
			return fmt.Errorf("%w: failed to insert availability block: %v", ErrInternal, err)
		}

		result = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.cache.InvalidateBayDate(ctx, bay.ID, req.Date)

	snapshot := events.SnapshotOf(result)
	snapshot.BayNumber = bay.Number
	snapshot.ZoneCode = zone.Code
	eventType := events.BookingCreated
	if result.Status == domain.StatusConfirmed {
		eventType = events.BookingConfirmed
	}
	uc.bus.Publish(events.NewEvent(eventType, snapshot))

	uc.logger.Info("CreateBooking: successfully created booking id=%d reference=%s", result.ID, result.Reference)

	return &Response{
		ID:               result.ID,
		Reference:        result.Reference,
		ConfirmationCode: result.ConfirmationCode,
		UserID:           result.UserID,
		BayID:            result.BayID,
		SlotID:           result.SlotID,
		PickupDate:       result.PickupDate.Format(domain.DateFormat),
		StartTime:        result.StartTime,
		EndTime:          result.EndTime,
		DurationMinutes:  result.DurationMinutes,
		Status:           string(result.Status),
		QRPayload:        result.QRPayload,
		Fee:              result.Fee,
		Paid:             result.Paid,
		CreatedAt:        result.CreatedAt,
	}, nil
}

// insertWithFreshCodes вставляет бронирование, перегенерируя коды при
// нарушении уникальности. Коллизии крайне редки, трёх попыток достаточно.
func (uc *UseCase) insertWithFreshCodes(ctx context.Context, booking *domain.Booking, bay *domain.Bay, zone *domain.Zone) (*domain.Booking, error) {
	for attempt := 1; attempt <= createCodeAttempts; attempt++ {
		reference, err := domain.GenerateBookingReference()
		if err != nil {
			return nil, fmt.Errorf("%w: failed to generate reference: %v", ErrInternal, err)
		}
		code, err := domain.GenerateConfirmationCode()
		if err != nil {
			return nil, fmt.Errorf("%w: failed to generate confirmation code: %v", ErrInternal, err)
		}

		booking.Reference = reference
		booking.ConfirmationCode = code

		payload, err := buildQRPayload(booking, bay, zone)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to build qr payload: %v", ErrInternal, err)
		}
		booking.QRPayload = &payload

		created, err := uc.bookingRepo.Create(ctx, booking)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrDuplicateReference) || errors.Is(err, bookingRepo.ErrDuplicateCode) {
				uc.logger.Warn("CreateBooking: code collision on attempt %d, regenerating", attempt)
				continue
			}
			uc.logger.Error("CreateBooking: failed to create booking: %v", err)
			return nil, fmt.Errorf("%w: failed to create booking: %v", ErrInternal, err)
		}
		return created, nil
	}
	return nil, fmt.Errorf("%w: exhausted %d attempts to generate unique codes", ErrInternal, createCodeAttempts)
}

// buildQRPayload собирает JSON для внешнего генератора QR-кода
func buildQRPayload(booking *domain.Booking, bay *domain.Bay, zone *domain.Zone) (string, error) {
	payload := map[string]interface{}{
		"token":             uuid.NewString(),
		"reference":         booking.Reference,
		"confirmation_code": booking.ConfirmationCode,
		"bay_number":        bay.Number,
		"zone_code":         zone.Code,
		"pickup_date":       booking.PickupDate.Format(domain.DateFormat),
		"start_time":        booking.StartTime.String(),
		"end_time":          booking.EndTime.String(),
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
