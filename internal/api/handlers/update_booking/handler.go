package update_booking

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/LitKanna/TF-PickupService/internal/api/handlers"
	"github.com/LitKanna/TF-PickupService/internal/api/middleware"
	"github.com/LitKanna/TF-PickupService/internal/domain"
	updateBooking "github.com/LitKanna/TF-PickupService/internal/usecase/update_booking"
	"github.com/LitKanna/TF-PickupService/pkg/types"
)

const (
	msgInvalidBookingID   = "некорректный ID бронирования"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDateTime    = "некорректный формат даты или времени"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgNotFound           = "бронирование не найдено"
	msgForbidden          = "доступ запрещен"
	msgCannotUpdate       = "бронирование уже нельзя переносить"
	msgConflict           = "бокс уже занят на это окно"
	msgBayNotFound        = "бокс не найден"
	msgBayNotBookable     = "бокс недоступен для бронирования"
	msgNoChanges          = "запрос не меняет ни одного поля"
)

// UpdateBookingRequest HTTP request model
type UpdateBookingRequest struct {
	BayID           *int64  `json:"bayId,omitempty"`
	PickupDate      *string `json:"pickupDate,omitempty"`
	StartTime       *string `json:"startTime,omitempty"`
	DurationMinutes *int    `json:"durationMinutes,omitempty"`
}

type Handler struct {
	useCase UpdateBookingUseCase
	logger  Logger
}

func NewHandler(useCase UpdateBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/bookings/{bookingId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	bookingID, err := strconv.ParseInt(mux.Vars(r)["bookingId"], 10, 64)
	if err != nil {
		h.logger.Warn("PATCH /bookings/{id} - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("PATCH /bookings/{id} - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req UpdateBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /bookings/{id} - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq := &updateBooking.Request{
		BookingID:       bookingID,
		UserID:          userID,
		BayID:           req.BayID,
		DurationMinutes: req.DurationMinutes,
	}
	if req.PickupDate != nil {
		date, err := time.Parse(domain.DateFormat, *req.PickupDate)
		if err != nil {
			handlers.RespondBadRequest(w, msgInvalidDateTime)
			return
		}
		useCaseReq.Date = &date
	}
	if req.StartTime != nil {
		startTime, err := types.NewTimeStringFromString(*req.StartTime)
		if err != nil {
			handlers.RespondBadRequest(w, msgInvalidDateTime)
			return
		}
		useCaseReq.StartTime = &startTime
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, updateBooking.ErrBookingNotFound):
			handlers.RespondNotFound(w, msgNotFound)
		case errors.Is(err, updateBooking.ErrAccessDenied):
			h.logger.Warn("PATCH /bookings/{id} - Access denied: booking_id=%d, user_id=%d", bookingID, userID)
			handlers.RespondForbidden(w, msgForbidden)
		case errors.Is(err, updateBooking.ErrCannotUpdate):
			handlers.RespondFailure(w, http.StatusConflict, handlers.CodeInvalidState, msgCannotUpdate)
		case errors.Is(err, updateBooking.ErrSlotConflict):
			h.logger.Warn("PATCH /bookings/{id} - Conflict: booking_id=%d", bookingID)
			handlers.RespondConflict(w, msgConflict)
		case errors.Is(err, updateBooking.ErrBayNotFound):
			handlers.RespondNotFound(w, msgBayNotFound)
		case errors.Is(err, updateBooking.ErrBayNotBookable), errors.Is(err, updateBooking.ErrZoneInactive):
			handlers.RespondFailure(w, http.StatusBadRequest, handlers.CodeBayInactive, msgBayNotBookable)
		case errors.Is(err, updateBooking.ErrNoChanges):
			handlers.RespondBadRequest(w, msgNoChanges)
		case errors.Is(err, updateBooking.ErrInvalidDate), errors.Is(err, updateBooking.ErrInvalidInput):
			handlers.RespondBadRequest(w, msgInvalidDateTime)
		default:
			h.logger.Error("PATCH /bookings/{id} - Failed: booking_id=%d, error=%v", bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /bookings/{id} - Booking updated: booking_id=%d, user_id=%d", bookingID, userID)
	handlers.RespondJSON(w, http.StatusOK, result)
}
