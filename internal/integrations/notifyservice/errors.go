package notifyservice

import "errors"

var (
	// ErrInternal внутренняя ошибка клиента
	ErrInternal = errors.New("notifyservice: internal error")

	// ErrInvalidResponse сервис вернул неожиданный ответ
	ErrInvalidResponse = errors.New("notifyservice: invalid response")

	// ErrRateLimited клиентский лимит на отправку исчерпан
	ErrRateLimited = errors.New("notifyservice: rate limited")
)
