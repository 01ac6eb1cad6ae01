package find_next_slot

import (
	"errors"
	"net/http"
	"time"

	"github.com/LitKanna/TF-PickupService/internal/api/handlers"
	"github.com/LitKanna/TF-PickupService/internal/domain"
	availabilitySvc "github.com/LitKanna/TF-PickupService/internal/service/availability"
)

const (
	msgInvalidQuery     = "некорректные параметры запроса"
	msgNothingInHorizon = "свободных слотов в пределах горизонта поиска нет"
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

// Handle GET /api/v1/availability/next-slot
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	duration, err := handlers.ParseIntParam(query, "duration_minutes")
	if err != nil {
		h.logger.Warn("GET /availability/next-slot - %v", err)
		handlers.RespondBadRequest(w, msgInvalidQuery)
		return
	}

	// from необязателен, по умолчанию поиск идёт от текущего момента
	var from time.Time
	if query.Get("from") != "" {
		from, err = handlers.ParseDateParam(query, "from")
		if err != nil {
			h.logger.Warn("GET /availability/next-slot - %v", err)
			handlers.RespondBadRequest(w, msgInvalidQuery)
			return
		}
	}

	zoneID, err := handlers.ParseOptionalInt64Param(query, "preferred_zone_id")
	if err != nil {
		h.logger.Warn("GET /availability/next-slot - %v", err)
		handlers.RespondBadRequest(w, msgInvalidQuery)
		return
	}

	result, err := h.service.FindNextAvailableSlot(r.Context(), &availabilitySvc.NextSlotRequest{
		From:            from,
		VehicleType:     domain.VehicleType(query.Get("vehicle_type")),
		DurationMinutes: duration,
		PreferredZoneID: zoneID,
	})
	if err != nil {
		switch {
		case errors.Is(err, availabilitySvc.ErrInvalidInput):
			h.logger.Warn("GET /availability/next-slot - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidQuery)
		case errors.Is(err, availabilitySvc.ErrNoSlotInHorizon):
			h.logger.Info("GET /availability/next-slot - Nothing available")
			handlers.RespondNotFound(w, msgNothingInHorizon)
		default:
			h.logger.Error("GET /availability/next-slot - Failed: %v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
