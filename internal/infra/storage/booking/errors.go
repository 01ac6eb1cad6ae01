package booking

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("booking.repository: booking not found")

	// ErrDuplicateReference возвращается при нарушении уникальности booking_reference.
	// Вызывающий код генерирует новый код и повторяет вставку.
	ErrDuplicateReference = errors.New("booking.repository: duplicate booking reference")

	// ErrDuplicateCode возвращается при нарушении уникальности confirmation_code
	ErrDuplicateCode = errors.New("booking.repository: duplicate confirmation code")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("booking.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("booking.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("booking.repository: failed to scan row")
)
