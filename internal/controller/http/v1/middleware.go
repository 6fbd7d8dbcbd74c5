package v1

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	tmetric "png_compression/internal/telemetry/metric"
	"png_compression/pkg/logger"
)

const requestIDHeader = "X-Request-ID"

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// requestLogger opens the server span for the request, then logs and counts
// it once the handlers are done.
func requestLogger(l logger.Interface, metrics *tmetric.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		ctx, span := otel.Tracer(traceName).Start(c.Request.Context(), c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(
			attribute.String("http.request_id", c.GetString(requestIDHeader)),
			attribute.Int("http.status_code", status),
		)
		metrics.ObserveHTTP(c.Request.Method, route, status)

		zl, ok := l.(structuredLogger)
		if !ok {
			l.Debug("http - %s %s %d %s request_id=%s",
				c.Request.Method, c.Request.URL.Path, status, time.Since(start), c.GetString(requestIDHeader))
			return
		}
		zl.Zerolog().Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("route", route).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("request_id", c.GetString(requestIDHeader)).
			Str("trace_id", span.SpanContext().TraceID().String()).
			Msg("http request")
	}
}

type structuredLogger interface {
	Zerolog() *zerolog.Logger
}
