package materialize_schedules

import (
	"net/http"

	"github.com/LitKanna/TF-PickupService/internal/api/handlers"
)

type Handler struct {
	service ScheduleService
	logger  Logger
}

func NewHandler(service ScheduleService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/schedules/materialize
// Ручной запуск материализации для операционных нужд; фоновый цикл
// выполняет то же самое по таймеру.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.MaterializeDue(r.Context())
	if err != nil {
		h.logger.Error("POST /schedules/materialize - Failed: %v", err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("POST /schedules/materialize - Done: due=%d, created=%d, flagged=%d, expired=%d",
		report.Due, report.Created, report.Flagged, report.Expired)
	handlers.RespondJSON(w, http.StatusOK, report)
}
