package server

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"png_compression/config"
	ttrace "png_compression/internal/telemetry/trace"
	traceExporter "png_compression/internal/telemetry/trace/exporter"
)

const (
	exporterJaeger = "jaeger"
	exporterOTLP   = "otlp"
	exporterNone   = "none"
)

// InitGlobalProvider installs the tracer provider selected by cfg.OTEL.Exporter.
// With "none" the global no-op provider is kept.
func (s *Server) InitGlobalProvider(ctx context.Context, cfg *config.Config) error {
	var (
		spanExporter sdktrace.SpanExporter
		err          error
	)

	switch cfg.OTEL.Exporter {
	case exporterNone, "":
		return nil
	case exporterJaeger:
		spanExporter, err = traceExporter.NewJaeger(cfg.OTEL.Endpoint)
	case exporterOTLP:
		spanExporter, err = traceExporter.NewOTLP(ctx, cfg.OTEL.Endpoint)
	default:
		return errors.Errorf("unknown trace exporter %q", cfg.OTEL.Exporter)
	}
	if err != nil {
		return errors.Wrap(err, "failed initializing the tracer exporter")
	}

	tracerProvider, tracerProviderCloseFn, err := ttrace.NewTraceProviderBuilder(cfg.App.Name).
		SetVersion(cfg.App.Version).
		SetExporter(spanExporter).
		Build()
	if err != nil {
		return errors.Wrap(err, "failed initializing the tracer provider")
	}
	s.traceProviderCloseFn = append(s.traceProviderCloseFn, tracerProviderCloseFn)

	// set global propagator to tracecontext (the default is no-op).
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	otel.SetTracerProvider(tracerProvider)

	return nil
}
