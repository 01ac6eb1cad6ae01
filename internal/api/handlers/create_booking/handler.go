package create_booking

import (
	"errors"
	"net/http"

	"github.com/LitKanna/TF-PickupService/internal/api/handlers"
	"github.com/LitKanna/TF-PickupService/internal/api/middleware"
	createBooking "github.com/LitKanna/TF-PickupService/internal/usecase/create_booking"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDateTime    = "некорректный формат даты или времени"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgBayNotFound        = "бокс не найден"
	msgBayNotBookable     = "бокс недоступен для бронирования"
	msgZoneInactive       = "зона выведена из эксплуатации"
	msgSlotNotFound       = "временной слот не найден"
	msgSlotNotApplicable  = "слот не действует в выбранный день"
	msgOutsideSlotWindow  = "запрошенное окно выходит за рамки слота"
	msgExactTimeForbidden = "слот не допускает бронирование на точное время"
	msgCapacityReached    = "вместимость слота на эту дату исчерпана"
	msgAdvanceWindow      = "дата не попадает в окно заблаговременного бронирования"
	msgInvalidDate        = "некорректная дата бронирования"
	msgConflict           = "бокс уже занят на это окно"
)

type Handler struct {
	useCase CreateBookingUseCase
	logger  Logger
}

func NewHandler(useCase CreateBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /bookings - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req CreateBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest(userID)
	if err != nil {
		h.logger.Warn("POST /bookings - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDateTime)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, createBooking.ErrSlotConflict):
			h.logger.Warn("POST /bookings - Conflict: user_id=%d, bay_id=%d", userID, req.BayID)
			handlers.RespondConflict(w, msgConflict)

		case errors.Is(err, createBooking.ErrSlotCapacityReached):
			h.logger.Warn("POST /bookings - Capacity reached: user_id=%d, slot=%v", userID, req.SlotID)
			handlers.RespondConflict(w, msgCapacityReached)

		case errors.Is(err, createBooking.ErrBayNotFound):
			handlers.RespondNotFound(w, msgBayNotFound)

		case errors.Is(err, createBooking.ErrSlotNotFound):
			handlers.RespondNotFound(w, msgSlotNotFound)

		case errors.Is(err, createBooking.ErrBayNotBookable):
			handlers.RespondFailure(w, http.StatusBadRequest, handlers.CodeBayInactive, msgBayNotBookable)

		case errors.Is(err, createBooking.ErrZoneInactive):
			handlers.RespondFailure(w, http.StatusBadRequest, handlers.CodeBayInactive, msgZoneInactive)

		case errors.Is(err, createBooking.ErrSlotNotApplicable):
			handlers.RespondBadRequest(w, msgSlotNotApplicable)

		case errors.Is(err, createBooking.ErrOutsideSlotWindow):
			handlers.RespondBadRequest(w, msgOutsideSlotWindow)

		case errors.Is(err, createBooking.ErrExactTimeNotAllowed):
			handlers.RespondBadRequest(w, msgExactTimeForbidden)

		case errors.Is(err, createBooking.ErrOutsideAdvanceWindow):
			handlers.RespondBadRequest(w, msgAdvanceWindow)

		case errors.Is(err, createBooking.ErrInvalidDate):
			handlers.RespondBadRequest(w, msgInvalidDate)

		case errors.Is(err, createBooking.ErrInvalidInput):
			handlers.RespondBadRequest(w, err.Error())

		default:
			h.logger.Error("POST /bookings - Failed to create booking: user_id=%d, error=%v", userID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings - Booking created successfully: booking_id=%d, reference=%s, user_id=%d",
		result.ID, result.Reference, userID)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
