package create_booking

import (
	"fmt"
	"time"

	"github.com/LitKanna/TF-PickupService/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.UserID <= 0 {
		return fmt.Errorf("%w: userID must be positive", ErrInvalidInput)
	}

	if req.BayID <= 0 {
		return fmt.Errorf("%w: bayID must be positive", ErrInvalidInput)
	}

	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	// Без слота точное окно обязательно
	if req.SlotID == nil {
		if req.StartTime.IsZero() {
			return fmt.Errorf("%w: startTime is required for exact-time booking", ErrInvalidInput)
		}
		if req.DurationMinutes <= 0 {
			return fmt.Errorf("%w: durationMinutes is required for exact-time booking", ErrInvalidInput)
		}
	}

	if !req.StartTime.IsZero() {
		if err := req.StartTime.Validate(); err != nil {
			return fmt.Errorf("%w: invalid startTime format: %v", ErrInvalidInput, err)
		}
	}

	if req.DurationMinutes != 0 {
		if req.DurationMinutes < domain.MinBookingDurationMinutes || req.DurationMinutes > domain.MaxBookingDurationMinutes {
			return fmt.Errorf("%w: duration must be between %d and %d minutes",
				ErrInvalidInput, domain.MinBookingDurationMinutes, domain.MaxBookingDurationMinutes)
		}
	}

	if req.VehicleType != nil && !domain.IsValidVehicleType(*req.VehicleType) {
		return fmt.Errorf("%w: unknown vehicle type %q", ErrInvalidInput, *req.VehicleType)
	}

	return nil
}

// validateDate проверяет, что дата бронирования не в прошлом
func validateDate(bookingDate time.Time, now time.Time) error {
	dateOnly := time.Date(bookingDate.Year(), bookingDate.Month(), bookingDate.Day(), 0, 0, 0, 0, bookingDate.Location())
	nowOnly := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if dateOnly.Before(nowOnly) {
		return ErrInvalidDate
	}
	return nil
}

// validateVehicleFitsBay проверяет совместимость типа транспорта с типом бокса
func validateVehicleFitsBay(vehicleType *domain.VehicleType, bay *domain.Bay) error {
	if vehicleType == nil {
		return nil
	}
	for _, t := range domain.CompatibleBayTypes(*vehicleType) {
		if t == bay.Type {
			return nil
		}
	}
	return fmt.Errorf("%w: %s cannot use %s", ErrInvalidInput, *vehicleType, bay.Type)
}

// resolveWindow сводит запрос к итоговому окну бронирования.
// Для слота без точного времени окном становится весь слот; точное время
// внутри слота требует AllowExactTime и полного вложения окна.
func resolveWindow(req *Request, slot *domain.TimeSlot) (domain.Interval, int, error) {
	if slot == nil {
		window, err := domain.NewInterval(req.StartTime, req.DurationMinutes)
		if err != nil {
			return domain.Interval{}, 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return window, req.DurationMinutes, nil
	}

	// Бронь целого слота
	if req.StartTime.IsZero() || req.StartTime == slot.StartTime {
		duration := req.DurationMinutes
		if duration == 0 || duration == slot.DurationMinutes {
			return slot.Window(), slot.DurationMinutes, nil
		}
	}

	if !slot.AllowExactTime {
		return domain.Interval{}, 0, ErrExactTimeNotAllowed
	}

	duration := req.DurationMinutes
	if duration == 0 {
		duration = slot.DurationMinutes
	}
	window, err := domain.NewInterval(req.StartTime, duration)
	if err != nil {
		return domain.Interval{}, 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if window.Start.IsBefore(slot.StartTime) || slot.EndTime.IsBefore(window.End) {
		return domain.Interval{}, 0, ErrOutsideSlotWindow
	}
	return window, duration, nil
}
