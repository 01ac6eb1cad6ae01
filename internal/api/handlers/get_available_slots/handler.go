package get_available_slots

import (
	"errors"
	"net/http"

	"github.com/LitKanna/TF-PickupService/internal/api/handlers"
	availabilitySvc "github.com/LitKanna/TF-PickupService/internal/service/availability"
)

const (
	msgInvalidQuery = "некорректные параметры запроса"
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

// Handle GET /api/v1/availability/slots
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	date, err := handlers.ParseDateParam(query, "date")
	if err != nil {
		h.logger.Warn("GET /availability/slots - %v", err)
		handlers.RespondBadRequest(w, msgInvalidQuery)
		return
	}
	bayID, err := handlers.ParseOptionalInt64Param(query, "bay_id")
	if err != nil {
		h.logger.Warn("GET /availability/slots - %v", err)
		handlers.RespondBadRequest(w, msgInvalidQuery)
		return
	}

	result, err := h.service.GetAvailableTimeSlots(r.Context(), date, bayID)
	if err != nil {
		switch {
		case errors.Is(err, availabilitySvc.ErrInvalidInput):
			h.logger.Warn("GET /availability/slots - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidQuery)
		default:
			h.logger.Error("GET /availability/slots - Failed: %v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
