package license

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	TracerName = "license-manager"
	MeterName  = "license-manager"
)

// Activation results recorded in metrics. Reasons are deliberately absent.
const (
	resultSuccess = "success"
	resultFailure = "failure"
)

// LicenseMetrics holds the license OpenTelemetry instruments
type LicenseMetrics struct {
	LoadTotal             metric.Int64Counter
	ActivationAttempts    metric.Int64Counter
	KeyDerivationDuration metric.Float64Histogram
	Entitled              metric.Int64ObservableGauge

	registration metric.Registration
}

// InitializeLicenseMetrics creates the license instruments. The entitled
// gauge is observed through the given callback at collection time.
func InitializeLicenseMetrics(meter metric.Meter, entitled func() bool) (*LicenseMetrics, error) {
	metrics := &LicenseMetrics{}

	var err error

	metrics.LoadTotal, err = meter.Int64Counter(
		"license_load_total",
		metric.WithDescription("Total number of license state loads"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create load counter: %w", err)
	}

	metrics.ActivationAttempts, err = meter.Int64Counter(
		"license_activation_attempts_total",
		metric.WithDescription("Total number of license activation attempts by result"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create activation attempts counter: %w", err)
	}

	metrics.KeyDerivationDuration, err = meter.Float64Histogram(
		"license_key_derivation_duration_seconds",
		metric.WithDescription("Time spent deriving the license key"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create key derivation histogram: %w", err)
	}

	metrics.Entitled, err = meter.Int64ObservableGauge(
		"license_entitled",
		metric.WithDescription("1 when this machine currently holds a valid license, 0 otherwise"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create entitled gauge: %w", err)
	}

	if entitled != nil {
		metrics.registration, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
			var v int64
			if entitled() {
				v = 1
			}
			o.ObserveInt64(metrics.Entitled, v)
			return nil
		}, metrics.Entitled)
		if err != nil {
			return nil, fmt.Errorf("failed to register entitled callback: %w", err)
		}
	}

	return metrics, nil
}

// Close unregisters the gauge callback
func (lm *LicenseMetrics) Close() error {
	if lm == nil || lm.registration == nil {
		return nil
	}
	return lm.registration.Unregister()
}

// startSpan opens a license span with the common attributes
func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("component", "license_manager"))
	return otel.Tracer(TracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// endSpan records the outcome on the span without exposing key material
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.SetAttributes(attribute.String("license.error_type", classifyLicenseError(err)))
		span.SetStatus(codes.Error, classifyLicenseError(err))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func (m *Manager) recordLoad(ctx context.Context, entitled bool) {
	if m.metrics == nil {
		return
	}
	m.metrics.LoadTotal.Add(ctx, 1, metric.WithAttributes(attribute.Bool("entitled", entitled)))
}

func (m *Manager) recordActivation(ctx context.Context, success bool) {
	if m.metrics == nil {
		return
	}
	result := resultFailure
	if success {
		result = resultSuccess
	}
	m.metrics.ActivationAttempts.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (m *Manager) recordKeyDerivation(ctx context.Context, d time.Duration) {
	if m.metrics == nil {
		return
	}
	m.metrics.KeyDerivationDuration.Record(ctx, d.Seconds())
}
