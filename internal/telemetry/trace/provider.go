package trace

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"
)

// CloseFunc flushes and stops a provider.
type CloseFunc func(ctx context.Context) error

type TraceProviderBuilder struct {
	name     string
	version  string
	exporter sdktrace.SpanExporter
	sampler  sdktrace.Sampler
}

func NewTraceProviderBuilder(name string) *TraceProviderBuilder {
	return &TraceProviderBuilder{
		name:    name,
		sampler: sdktrace.ParentBased(sdktrace.AlwaysSample()),
	}
}

func (b *TraceProviderBuilder) SetExporter(exp sdktrace.SpanExporter) *TraceProviderBuilder {
	b.exporter = exp
	return b
}

func (b *TraceProviderBuilder) SetVersion(version string) *TraceProviderBuilder {
	b.version = version
	return b
}

func (b *TraceProviderBuilder) SetSampler(sampler sdktrace.Sampler) *TraceProviderBuilder {
	b.sampler = sampler
	return b
}

// Build returns a batching provider for the configured exporter.
func (b *TraceProviderBuilder) Build() (*sdktrace.TracerProvider, CloseFunc, error) {
	if b.exporter == nil {
		return nil, nil, errors.New("trace provider: exporter not set")
	}

	attrs := resource.NewSchemaless(
		semconv.ServiceNameKey.String(b.name),
		semconv.ServiceVersionKey.String(b.version),
	)
	res, err := resource.Merge(resource.Default(), attrs)
	if err != nil {
		return nil, nil, errors.Wrap(err, "trace provider: resource")
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(b.exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(b.sampler),
	)

	return tp, func(ctx context.Context) error {
		return tp.Shutdown(ctx)
	}, nil
}
