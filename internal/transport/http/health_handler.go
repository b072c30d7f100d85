package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"glucoreport/internal/infrastructure"
)

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	service HealthChecker
	logger  *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(service HealthChecker, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		service: service,
		logger:  infrastructure.WithComponent(logger, "health_handler"),
	}
}

// HealthCheck handles GET /healthz. A degraded service answers 503 so load
// balancers back off while the report queue is full.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := h.service.Check(r.Context())
	if status.Status != "ok" {
		h.logger.WarnContext(r.Context(), "health check degraded",
			slog.Int("queued_runs", status.Stats.QueuedRuns))
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, status)
}
