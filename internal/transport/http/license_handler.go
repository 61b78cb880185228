package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "github.com/Dynag1/VocaNote/internal/errors"
	"github.com/Dynag1/VocaNote/internal/license"
	"github.com/Dynag1/VocaNote/internal/middleware"
)

// LicenseService is the part of license.Manager the API exposes
type LicenseService interface {
	Activate(ctx context.Context, key string) bool
	Deactivate(ctx context.Context)
	Status(ctx context.Context) license.Status
	TranscriptionLimit() (int, bool)
	ActivationCode() string
}

// LicenseActivationRequest is the POST /api/license/activate body
type LicenseActivationRequest struct {
	LicenseKey string `json:"license_key" validate:"required,max=4096,license_key"`
}

// LicenseActionResponse answers activate and deactivate. It never says why
// an activation failed.
type LicenseActionResponse struct {
	Success bool           `json:"success"`
	Status  license.Status `json:"status"`
}

// TranscriptionLimitResponse answers GET /api/license/limit
type TranscriptionLimitResponse struct {
	Limited      bool `json:"limited"`
	LimitSeconds *int `json:"limit_seconds"`
}

// ActivationCodeResponse answers GET /api/license/activation-code
type ActivationCodeResponse struct {
	ActivationCode string `json:"activation_code"`
}

// LicenseHandler handles license-related HTTP requests
type LicenseHandler struct {
	service      LicenseService
	validator    *middleware.Validator
	errorHandler *apierrors.ErrorHandler
	limiter      *middleware.RateLimiter
	logger       *slog.Logger
}

// NewLicenseHandler creates a new license handler. limiter guards activation
// and may be nil.
func NewLicenseHandler(service LicenseService, validator *middleware.Validator, errorHandler *apierrors.ErrorHandler, limiter *middleware.RateLimiter, logger *slog.Logger) *LicenseHandler {
	return &LicenseHandler{
		service:      service,
		validator:    validator,
		errorHandler: errorHandler,
		limiter:      limiter,
		logger:       logger.With(slog.String("handler", "license")),
	}
}

// Routes returns a chi router for license endpoints
func (h *LicenseHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/status", h.GetStatus)
	r.Get("/limit", h.GetLimit)
	r.Get("/activation-code", h.GetActivationCode)
	r.Post("/deactivate", h.Deactivate)

	r.Group(func(r chi.Router) {
		if h.limiter != nil {
			r.Use(h.limiter.Handler)
		}
		r.Post("/activate", h.Activate)
	})

	return r
}

// GetStatus handles GET /api/license/status
func (h *LicenseHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Status(r.Context()))
}

// GetLimit handles GET /api/license/limit
func (h *LicenseHandler) GetLimit(w http.ResponseWriter, r *http.Request) {
	limit, limited := h.service.TranscriptionLimit()
	resp := TranscriptionLimitResponse{Limited: limited}
	if limited {
		resp.LimitSeconds = &limit
	}
	render.JSON(w, r, resp)
}

// GetActivationCode handles GET /api/license/activation-code
func (h *LicenseHandler) GetActivationCode(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, ActivationCodeResponse{ActivationCode: h.service.ActivationCode()})
}

// Activate handles POST /api/license/activate
func (h *LicenseHandler) Activate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LicenseActivationRequest
	if err := h.validator.DecodeJSON(w, r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	ok := h.service.Activate(ctx, req.LicenseKey)
	h.logger.InfoContext(ctx, "license activation handled",
		slog.String("request_id", middleware.GetRequestID(ctx)),
		slog.Bool("success", ok),
	)

	render.JSON(w, r, LicenseActionResponse{
		Success: ok,
		Status:  h.service.Status(ctx),
	})
}

// Deactivate handles POST /api/license/deactivate
func (h *LicenseHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.service.Deactivate(ctx)

	h.logger.InfoContext(ctx, "license deactivation handled",
		slog.String("request_id", middleware.GetRequestID(ctx)),
	)

	render.JSON(w, r, LicenseActionResponse{
		Success: true,
		Status:  h.service.Status(ctx),
	})
}
