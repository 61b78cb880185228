package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	apierrors "github.com/Dynag1/VocaNote/internal/errors"
	"github.com/Dynag1/VocaNote/internal/middleware"
)

// RouterDeps collects everything NewRouter mounts
type RouterDeps struct {
	License      *LicenseHandler
	Health       *HealthHandler
	ErrorHandler *apierrors.ErrorHandler
	// Telemetry instruments every request when set
	Telemetry *middleware.OTelMiddleware
	// Metrics serves /metrics when set
	Metrics http.Handler
	Logger  *slog.Logger
}

// NewRouter assembles the local license API
func NewRouter(deps RouterDeps) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if deps.Telemetry != nil {
		r.Use(deps.Telemetry.Handler)
	}
	r.Use(middleware.StructuredLogger(deps.Logger))
	r.Use(middleware.Recoverer(deps.ErrorHandler))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimw.StripSlashes)

	r.NotFound(deps.ErrorHandler.NotFound)
	r.MethodNotAllowed(deps.ErrorHandler.MethodNotAllowed)

	r.Get("/healthz", deps.Health.HealthCheck)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}
	r.Mount("/api/license", deps.License.Routes())

	return r
}
