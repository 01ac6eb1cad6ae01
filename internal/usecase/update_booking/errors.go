package update_booking

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("update_booking: booking not found")

	// ErrAccessDenied возвращается, когда бронирование принадлежит другому пользователю
	ErrAccessDenied = errors.New("update_booking: access denied")

	// ErrCannotUpdate возвращается, когда бронирование уже нельзя переносить
	ErrCannotUpdate = errors.New("update_booking: booking can no longer be updated")

	// ErrBayNotFound возвращается, когда целевой бокс не найден
	ErrBayNotFound = errors.New("update_booking: bay not found")

	// ErrBayNotBookable возвращается, когда целевой бокс неактивен
	ErrBayNotBookable = errors.New("update_booking: bay is not bookable")

	// ErrZoneInactive возвращается, когда зона целевого бокса деактивирована
	ErrZoneInactive = errors.New("update_booking: zone is not active")

	// ErrInvalidDate возвращается при дате в прошлом
	ErrInvalidDate = errors.New("update_booking: invalid booking date")

	// ErrSlotConflict возвращается, когда новое окно пересекается с чужим
	// бронированием или блокировкой
	ErrSlotConflict = errors.New("update_booking: bay is already taken for this window")

	// ErrNoChanges возвращается, когда запрос не меняет ни одного поля
	ErrNoChanges = errors.New("update_booking: nothing to update")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("update_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("update_booking: internal error")
)
