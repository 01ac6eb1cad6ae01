package create_booking

import "errors"

var (
	// ErrBayNotFound возвращается, когда бокс не найден
	ErrBayNotFound = errors.New("create_booking: bay not found")

	// ErrBayNotBookable возвращается, когда бокс неактивен или выведен из оборота
	ErrBayNotBookable = errors.New("create_booking: bay is not bookable")

	// ErrZoneInactive возвращается, когда зона бокса деактивирована
	ErrZoneInactive = errors.New("create_booking: zone is not active")

	// ErrSlotNotFound возвращается, когда шаблон слота не найден
	ErrSlotNotFound = errors.New("create_booking: time slot not found")

	// ErrSlotNotApplicable возвращается, когда слот не действует в этот день недели
	ErrSlotNotApplicable = errors.New("create_booking: time slot does not apply on this day")

	// ErrOutsideSlotWindow возвращается, когда запрошенное окно выходит за рамки слота
	ErrOutsideSlotWindow = errors.New("create_booking: requested window is outside the slot")

	// ErrExactTimeNotAllowed возвращается, когда слот не разрешает бронирование на точное время
	ErrExactTimeNotAllowed = errors.New("create_booking: slot does not allow exact-time booking")

	// ErrSlotCapacityReached возвращается, когда вместимость слота на дату исчерпана
	ErrSlotCapacityReached = errors.New("create_booking: slot capacity reached")

	// ErrOutsideAdvanceWindow возвращается при нарушении окна заблаговременности слота
	ErrOutsideAdvanceWindow = errors.New("create_booking: outside the slot advance-booking window")

	// ErrInvalidDate возвращается при дате в прошлом
	ErrInvalidDate = errors.New("create_booking: invalid booking date")

	// ErrSlotConflict возвращается, когда окно пересекается с существующим
	// бронированием или блокировкой бокса
	ErrSlotConflict = errors.New("create_booking: bay is already taken for this window")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)
