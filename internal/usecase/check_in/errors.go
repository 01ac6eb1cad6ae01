package check_in

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("check_in: booking not found")

	// ErrInvalidCode возвращается при неверном коде подтверждения
	ErrInvalidCode = errors.New("check_in: invalid confirmation code")

	// ErrNotConfirmed возвращается, когда бронирование ещё не подтверждено
	// или уже завершило жизненный цикл
	ErrNotConfirmed = errors.New("check_in: booking is not in confirmed status")

	// ErrWrongDay возвращается при попытке чек-ина не в день выдачи
	ErrWrongDay = errors.New("check_in: booking is not for today")

	// ErrTooEarly возвращается, когда окно чек-ина ещё не открылось
	ErrTooEarly = errors.New("check_in: too early, check-in window is not open yet")

	// ErrWindowClosed возвращается, когда окно чек-ина уже закрылось;
	// бронирование при этом автоматически помечается no_show
	ErrWindowClosed = errors.New("check_in: check-in window has closed")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("check_in: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("check_in: internal error")
)
