package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/Dynag1/VocaNote/internal/config"
	apierrors "github.com/Dynag1/VocaNote/internal/errors"
	"github.com/Dynag1/VocaNote/internal/infrastructure"
	"github.com/Dynag1/VocaNote/internal/license"
	"github.com/Dynag1/VocaNote/internal/middleware"
	handlers "github.com/Dynag1/VocaNote/internal/transport/http"
)

// AppName is the user-facing name of the license engine
const AppName = "VocaNote License"

// Application wires configuration, telemetry, the license manager and the
// local API together
type Application struct {
	Config         *config.Config
	Logger         *slog.Logger
	OTelProviders  *infrastructure.OTelProviders
	LicenseManager *license.Manager
	LicenseMetrics *license.LicenseMetrics
	Router         chi.Router
	Server         *http.Server

	ownsLogger bool
}

type options struct {
	logger         *slog.Logger
	managerOptions []license.Option
}

// Option customizes NewApplication
type Option func(*options)

// WithLogger replaces the global logger built from cfg.Logging
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithManagerOptions passes extra options to the license manager
func WithManagerOptions(opts ...license.Option) Option {
	return func(o *options) { o.managerOptions = append(o.managerOptions, opts...) }
}

// NewApplication builds logger, telemetry, store, manager and router, then
// loads the persisted license
func NewApplication(ctx context.Context, cfg *config.Config, opts ...Option) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	app := &Application{Config: cfg, Logger: o.logger}
	if app.Logger == nil {
		logger, err := infrastructure.InitializeLogger(cfg.Logging)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
		app.Logger = logger
		app.ownsLogger = true
	}

	app.Logger.DebugContext(ctx, "Application starting",
		slog.String("name", AppName),
		slog.String("version", config.AppVersion),
		slog.String("license_file", cfg.License.File))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Telemetry), app.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	app.OTelProviders = otelProviders

	// The gauge callback reads the manager, which is built right after
	metrics, err := license.InitializeLicenseMetrics(
		otelProviders.MeterProvider.Meter(license.MeterName),
		func() bool { return app.LicenseManager != nil && app.LicenseManager.IsLicensed() },
	)
	if err != nil {
		_ = otelProviders.Shutdown(ctx)
		return nil, fmt.Errorf("failed to initialize license metrics: %w", err)
	}
	app.LicenseMetrics = metrics

	managerOpts := append([]license.Option{
		license.WithLogger(app.Logger),
		license.WithMetrics(metrics),
	}, o.managerOptions...)
	app.LicenseManager = license.NewManager(license.NewFileStore(cfg.License.File), managerOpts...)
	app.LicenseManager.Load(ctx)

	if err := app.setupRouter(); err != nil {
		_ = app.Close(ctx)
		return nil, err
	}
	app.createServer()

	return app, nil
}

func (a *Application) setupRouter() error {
	errorHandler := apierrors.NewErrorHandler(a.Logger, false)

	telemetry, err := middleware.NewOTelMiddleware(a.OTelProviders.TracerProvider, a.OTelProviders.Meter, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create HTTP instrumentation: %w", err)
	}

	limiter := middleware.NewRateLimiter(
		a.Config.Server.ActivationRatePerMinute,
		a.Config.Server.ActivationBurst,
		errorHandler,
		a.Logger,
	)

	a.Router = handlers.NewRouter(handlers.RouterDeps{
		License:      handlers.NewLicenseHandler(a.LicenseManager, middleware.NewValidator(a.Logger), errorHandler, limiter, a.Logger),
		Health:       handlers.NewHealthHandler(a.LicenseManager.IsLicensed, nil, a.Logger),
		ErrorHandler: errorHandler,
		Telemetry:    telemetry,
		Metrics:      a.OTelProviders.PrometheusHTTP,
		Logger:       a.Logger,
	})
	return nil
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         a.Config.Server.ListenAddr,
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
	}
}

// Run serves the local API until ctx is cancelled or SIGINT/SIGTERM arrives
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", a.Config.Server.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Config.Server.ListenAddr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve serves the local API on ln until ctx is done, then shuts down
// gracefully within the configured timeout
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfoContext(gctx, "License API listening",
			slog.String("address", ln.Addr().String()),
			slog.Bool("licensed", a.LicenseManager.IsLicensed()))

		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.Logger.InfoContext(context.WithoutCancel(gctx), "Shutting down license API")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), a.Config.Server.ShutdownTimeout)
		defer cancel()

		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// Close releases telemetry and the log file
func (a *Application) Close(ctx context.Context) error {
	var errs []error

	if err := a.LicenseMetrics.Close(); err != nil {
		errs = append(errs, fmt.Errorf("license metrics: %w", err))
	}
	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if a.ownsLogger {
		if err := infrastructure.CloseLogFile(); err != nil {
			errs = append(errs, fmt.Errorf("log file: %w", err))
		}
	}

	return errors.Join(errs...)
}
