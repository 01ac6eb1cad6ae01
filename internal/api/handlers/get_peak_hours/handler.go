package get_peak_hours

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

// Handle GET /api/v1/availability/peak-hours
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	startDate, err := handlers.ParseDateParam(query, "start_date")
	if err != nil {
		h.logger.Warn("GET /availability/peak-hours - %v", err)
		handlers.RespondBadRequest(w, msgInvalidQuery)
		return
	}
	endDate, err := handlers.ParseDateParam(query, "end_date")
	if err != nil {
		h.logger.Warn("GET /availability/peak-hours - %v", err)
		handlers.RespondBadRequest(w, msgInvalidQuery)
		return
	}

	result, err := h.service.GetPeakHoursAnalysis(r.Context(), &availabilitySvc.PeakHoursRequest{
		StartDate: startDate,
		EndDate:   endDate,
	})
	if err != nil {
		switch {
		case errors.Is(err, availabilitySvc.ErrInvalidInput):
			handlers.RespondBadRequest(w, msgInvalidQuery)
		default:
			h.logger.Error("GET /availability/peak-hours - Failed: %v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
