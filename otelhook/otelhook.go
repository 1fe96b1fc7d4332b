// Package otelhook provides OpenTelemetry instrumentation for drivekit calls.
// It implements the [drivekit.Hook] interface to add tracing and metrics to
// every storage operation.
//
// Usage:
//
//	client, err := drivekit.NewBuilder(driver).
//		BaseScope(drivekit.ScopeAppFolder).
//		Hook(otelhook.New(otelhook.DefaultConfig())).
//		Build()
package otelhook

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/gobeaver/drivekit"
)

const instrumentationName = "drivekit"

// Config configures OpenTelemetry instrumentation.
type Config struct {
	// TracerProvider supplies the tracer. Defaults to otel.GetTracerProvider().
	TracerProvider trace.TracerProvider
	// MeterProvider supplies the meter. Defaults to otel.GetMeterProvider().
	MeterProvider metric.MeterProvider
	// EnableTracing enables span creation. Default true.
	EnableTracing bool
	// EnableMetrics enables counter and histogram recording. Default true.
	EnableMetrics bool
	// RecordExceptions calls RecordError on the span for failed calls.
	// Default true.
	RecordExceptions bool
	// CustomAttributes are added to every span.
	CustomAttributes []attribute.KeyValue
}

// DefaultConfig returns a Config with tracing, metrics and error recording
// enabled. Providers are resolved from the global OTel SDK in New.
func DefaultConfig() Config {
	return Config{
		EnableTracing:    true,
		EnableMetrics:    true,
		RecordExceptions: true,
	}
}

// Hook implements drivekit.Hook with OpenTelemetry tracing and metrics.
type Hook struct {
	cfg               Config
	tracer            trace.Tracer
	callCounter       metric.Int64Counter
	durationHistogram metric.Float64Histogram
}

// New creates a Hook.
func New(cfg Config) *Hook {
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}
	if cfg.MeterProvider == nil {
		cfg.MeterProvider = otel.GetMeterProvider()
	}

	h := &Hook{
		cfg:    cfg,
		tracer: cfg.TracerProvider.Tracer(instrumentationName),
	}

	if cfg.EnableMetrics {
		meter := cfg.MeterProvider.Meter(instrumentationName)
		h.callCounter, _ = meter.Int64Counter("drivekit.calls",
			metric.WithUnit("{call}"),
			metric.WithDescription("Number of storage calls"),
		)
		h.durationHistogram, _ = meter.Float64Histogram("drivekit.call.duration",
			metric.WithUnit("s"),
			metric.WithDescription("Duration of storage calls"),
		)
	}
	return h
}

// spanToken is the HookToken returned by OnCallStart.
type spanToken struct {
	span      trace.Span
	startTime time.Time
}

// OnCallStart starts a client span for the call.
func (h *Hook) OnCallStart(ctx context.Context, info drivekit.CallInfo) (context.Context, drivekit.HookToken) {
	if !h.cfg.EnableTracing {
		return ctx, &spanToken{startTime: time.Now()}
	}

	attrs := []attribute.KeyValue{
		attribute.String("drivekit.method", info.Method),
		attribute.String("drivekit.operation", string(info.Operation)),
		attribute.String("drivekit.scheme", string(info.Location.Scheme)),
	}
	if len(info.Location.Segments) > 0 {
		attrs = append(attrs, attribute.String("drivekit.location", info.Location.String()))
	}
	attrs = append(attrs, h.cfg.CustomAttributes...)

	ctx, span := h.tracer.Start(ctx, fmt.Sprintf("drivekit/%s", info.Method),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
	return ctx, &spanToken{span: span, startTime: time.Now()}
}

// OnCallEnd records metrics and ends the span.
func (h *Hook) OnCallEnd(ctx context.Context, token drivekit.HookToken, info drivekit.CallInfo, err error) {
	st, ok := token.(*spanToken)
	if !ok {
		return
	}

	duration := time.Since(st.startTime)

	status := "ok"
	if err != nil {
		status = "error"
	}

	if h.cfg.EnableMetrics {
		metricAttrs := metric.WithAttributes(
			attribute.String("drivekit.method", info.Method),
			attribute.String("drivekit.operation", string(info.Operation)),
			attribute.String("status", status),
		)
		if h.callCounter != nil {
			h.callCounter.Add(ctx, 1, metricAttrs)
		}
		if h.durationHistogram != nil {
			h.durationHistogram.Record(ctx, duration.Seconds(), metricAttrs)
		}
	}

	if st.span != nil && st.span.IsRecording() {
		if err != nil {
			st.span.SetStatus(codes.Error, err.Error())
			if h.cfg.RecordExceptions {
				st.span.RecordError(err)
			}
			st.span.SetAttributes(attribute.String("drivekit.error_type", fmt.Sprintf("%T", err)))
		} else {
			st.span.SetStatus(codes.Ok, "")
		}
		st.span.End()
	}
}

var _ drivekit.Hook = (*Hook)(nil)
