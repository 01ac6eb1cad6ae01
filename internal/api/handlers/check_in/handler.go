package check_in

import (
	"errors"
	"net/http"

	"github.com/LitKanna/TF-PickupService/internal/api/handlers"
	checkIn "github.com/LitKanna/TF-PickupService/internal/usecase/check_in"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgNotFound           = "бронирование не найдено"
	msgInvalidCode        = "неверный код подтверждения"
	msgNotConfirmed       = "бронирование не в статусе confirmed"
	msgWrongDay           = "бронирование не на сегодня"
	msgTooEarly           = "окно чек-ина ещё не открылось"
	msgWindowClosed       = "окно чек-ина закрылось, бронирование помечено как неявка"
)

// CheckInRequest HTTP request model
type CheckInRequest struct {
	Reference        string `json:"reference"`
	ConfirmationCode string `json:"confirmationCode"`
}

type Handler struct {
	useCase CheckInUseCase
	logger  Logger
}

func NewHandler(useCase CheckInUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings/check-in
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req CheckInRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings/check-in - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.useCase.Execute(r.Context(), &checkIn.Request{
		Reference:        req.Reference,
		ConfirmationCode: req.ConfirmationCode,
	})
	if err != nil {
		switch {
		case errors.Is(err, checkIn.ErrBookingNotFound):
			handlers.RespondNotFound(w, msgNotFound)
		case errors.Is(err, checkIn.ErrInvalidCode):
			h.logger.Warn("POST /bookings/check-in - Invalid code: reference=%s", req.Reference)
			handlers.RespondForbidden(w, msgInvalidCode)
		case errors.Is(err, checkIn.ErrNotConfirmed):
			handlers.RespondFailure(w, http.StatusConflict, handlers.CodeInvalidState, msgNotConfirmed)
		case errors.Is(err, checkIn.ErrWrongDay):
			handlers.RespondFailure(w, http.StatusConflict, handlers.CodeWindowClosed, msgWrongDay)
		case errors.Is(err, checkIn.ErrTooEarly):
			// Мягкий отказ: окно ещё откроется, клиент может повторить
			handlers.RespondFailureDetails(w, http.StatusConflict, handlers.CodeWindowClosed, msgTooEarly,
				map[string]bool{"retryable": true})
		case errors.Is(err, checkIn.ErrWindowClosed):
			h.logger.Warn("POST /bookings/check-in - Window closed: reference=%s", req.Reference)
			handlers.RespondFailure(w, http.StatusGone, handlers.CodeWindowClosed, msgWindowClosed)
		case errors.Is(err, checkIn.ErrInvalidInput):
			handlers.RespondBadRequest(w, msgInvalidRequestBody)
		default:
			h.logger.Error("POST /bookings/check-in - Failed: reference=%s, error=%v", req.Reference, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings/check-in - Checked in: reference=%s, bay_id=%d", result.Reference, result.BayID)
	handlers.RespondJSON(w, http.StatusOK, result)
}
