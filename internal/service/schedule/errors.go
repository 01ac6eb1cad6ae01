package schedule

import "errors"

var (
	// ErrScheduleNotFound возвращается, когда расписание не найдено
	ErrScheduleNotFound = errors.New("schedule: not found")

	// ErrBayNotFound возвращается, когда бокс расписания не найден
	ErrBayNotFound = errors.New("schedule: bay not found")

	// ErrNoOccurrence возвращается, когда правило не даёт ни одной даты
	// в пределах срока действия расписания
	ErrNoOccurrence = errors.New("schedule: recurrence rule yields no occurrence")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("schedule: invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("schedule: internal error")
)
