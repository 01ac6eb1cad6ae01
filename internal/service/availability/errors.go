package availability

import "errors"

var (
	// ErrBayNotFound возвращается, когда бокс не найден
	ErrBayNotFound = errors.New("bay not found")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrNoSlotInHorizon возвращается, когда в пределах горизонта поиска
	// нет ни одного свободного слота
	ErrNoSlotInHorizon = errors.New("no available slot within search horizon")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)
