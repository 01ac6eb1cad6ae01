package get_available_bays

import (
	"errors"
	"net/http"

	"github.com/LitKanna/TF-PickupService/internal/api/handlers"
	"github.com/LitKanna/TF-PickupService/internal/domain"
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

// Handle GET /api/v1/availability/bays
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	date, err := handlers.ParseDateParam(query, "date")
	if err != nil {
		h.logger.Warn("GET /availability/bays - %v", err)
		handlers.RespondBadRequest(w, msgInvalidQuery)
		return
	}
	startTime, err := handlers.ParseTimeParam(query, "start_time")
	if err != nil {
		h.logger.Warn("GET /availability/bays - %v", err)
		handlers.RespondBadRequest(w, msgInvalidQuery)
		return
	}
	duration, err := handlers.ParseIntParam(query, "duration_minutes")
	if err != nil {
		h.logger.Warn("GET /availability/bays - %v", err)
		handlers.RespondBadRequest(w, msgInvalidQuery)
		return
	}

	result, err := h.service.GetAvailableBays(r.Context(), &availabilitySvc.AvailableBaysRequest{
		Date:            date,
		StartTime:       startTime,
		DurationMinutes: duration,
		VehicleType:     domain.VehicleType(query.Get("vehicle_type")),
	})
	if err != nil {
		switch {
		case errors.Is(err, availabilitySvc.ErrInvalidInput):
			h.logger.Warn("GET /availability/bays - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidQuery)
		default:
			h.logger.Error("GET /availability/bays - Failed: %v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
