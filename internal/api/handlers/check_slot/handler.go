package check_slot

import (
	"errors"
	"net/http"

	"github.com/LitKanna/TF-PickupService/internal/api/handlers"
	availabilitySvc "github.com/LitKanna/TF-PickupService/internal/service/availability"
)

const (
	msgInvalidQuery = "некорректные параметры запроса"
	msgBayNotFound  = "бокс не найден"
)

type Handler struct {
	service AvailabilityService
	logger  Logger
}

func NewHandler(service AvailabilityService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/availability/check
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	bayID, err := handlers.ParseInt64Param(query, "bay_id")
	if err != nil {
		h.logger.Warn("GET /availability/check - %v", err)
		handlers.RespondBadRequest(w, msgInvalidQuery)
		return
	}
	date, err := handlers.ParseDateParam(query, "date")
	if err != nil {
		h.logger.Warn("GET /availability/check - %v", err)
		handlers.RespondBadRequest(w, msgInvalidQuery)
		return
	}
	startTime, err := handlers.ParseTimeParam(query, "start_time")
	if err != nil {
		h.logger.Warn("GET /availability/check - %v", err)
		handlers.RespondBadRequest(w, msgInvalidQuery)
		return
	}
	duration, err := handlers.ParseIntParam(query, "duration_minutes")
	if err != nil {
		h.logger.Warn("GET /availability/check - %v", err)
		handlers.RespondBadRequest(w, msgInvalidQuery)
		return
	}

	result, err := h.service.CheckSlotAvailability(r.Context(), bayID, date, startTime, duration)
	if err != nil {
		switch {
		case errors.Is(err, availabilitySvc.ErrInvalidInput):
			handlers.RespondBadRequest(w, msgInvalidQuery)
		case errors.Is(err, availabilitySvc.ErrBayNotFound):
			handlers.RespondNotFound(w, msgBayNotFound)
		default:
			h.logger.Error("GET /availability/check - Failed: %v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
