package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/Dynag1/VocaNote/internal/config"
)

// HealthResponse answers GET /healthz
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Licensed  bool   `json:"licensed"`
	Uptime    string `json:"uptime"`
	Timestamp string `json:"timestamp"`
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	licensed func() bool
	started  time.Time
	now      func() time.Time
	logger   *slog.Logger
}

// NewHealthHandler creates a new health handler; licensed reports the
// current entitlement
func NewHealthHandler(licensed func() bool, now func() time.Time, logger *slog.Logger) *HealthHandler {
	if now == nil {
		now = time.Now
	}
	return &HealthHandler{
		licensed: licensed,
		started:  now(),
		now:      now,
		logger:   logger.With(slog.String("handler", "health")),
	}
}

// HealthCheck handles GET /healthz
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	render.JSON(w, r, HealthResponse{
		Status:    "ok",
		Version:   config.AppVersion,
		Licensed:  h.licensed(),
		Uptime:    now.Sub(h.started).Round(time.Second).String(),
		Timestamp: now.UTC().Format(time.RFC3339),
	})
}
