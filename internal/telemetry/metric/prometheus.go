// Package metric exposes the service's Prometheus collectors.
package metric

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"png_compression/entity"
)

const namespace = "png_compression"

// Collector groups the service metrics. A nil *Collector records nothing.
type Collector struct {
	compressions *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	sourceBytes  prometheus.Counter
	outputBytes  prometheus.Counter
	httpRequests *prometheus.CounterVec
}

// NewCollector registers the collectors on reg. storeSize, when non-nil, backs
// the live object gauge.
func NewCollector(reg prometheus.Registerer, storeSize func() float64) *Collector {
	factory := promauto.With(reg)

	c := &Collector{
		compressions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compressions_total",
			Help:      "Compression requests by final status and the stage they ended in.",
		}, []string{"status", "stage"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compression_duration_seconds",
			Help:      "Time from request to published result or failure.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"status"}),
		sourceBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_bytes_total",
			Help:      "Bytes of source images that were compressed successfully.",
		}),
		outputBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "output_bytes_total",
			Help:      "Bytes of published compressed images.",
		}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
	}

	if storeSize != nil {
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stored_objects",
			Help:      "Objects currently held by the expiring object store.",
		}, storeSize)
	}

	return c
}

// ObserveCompression records one finished compression request.
func (c *Collector) ObserveCompression(status string, stage entity.Stage, d time.Duration, sourceBytes, outputBytes int) {
	if c == nil {
		return
	}

	c.compressions.WithLabelValues(status, string(stage)).Inc()
	c.duration.WithLabelValues(status).Observe(d.Seconds())
	if status == entity.StatusSucceeded {
		c.sourceBytes.Add(float64(sourceBytes))
		c.outputBytes.Add(float64(outputBytes))
	}
}

// ObserveHTTP records one served HTTP request.
func (c *Collector) ObserveHTTP(method, route string, code int) {
	if c == nil {
		return
	}

	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
}
