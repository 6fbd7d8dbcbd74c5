package exporter

import (
	"go.opentelemetry.io/otel/exporters/jaeger"
)

// NewJaeger exports spans to a Jaeger collector, e.g. http://localhost:14268/api/traces.
func NewJaeger(endpoint string) (*jaeger.Exporter, error) {
	return jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(endpoint)))
}
