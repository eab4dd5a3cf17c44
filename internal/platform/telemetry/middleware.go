package telemetry

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/amxcoding/randomquotes-client/telemetry"

// Metrics are the server-side HTTP instruments: duration histogram,
// request counter, and in-flight gauge.
type Metrics struct {
	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
	activeRequests  metric.Int64UpDownCounter
}

// NewMetrics registers the HTTP instruments on the global meter.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)

	requestDuration, err := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	requestTotal, err := meter.Int64Counter(
		"http.server.request.total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	activeRequests, err := meter.Int64UpDownCounter(
		"http.server.active_requests",
		metric.WithDescription("Number of active HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		activeRequests:  activeRequests,
	}, nil
}

// Middleware records the HTTP instruments per request and exposes the
// current trace id on the X-Trace-ID response header. Metric registration
// failure degrades to tracing only rather than refusing requests.
func Middleware(serviceName string) gin.HandlerFunc {
	metrics, err := NewMetrics()
	if err != nil {
		otel.Handle(err)
	}

	return func(c *gin.Context) {
		start := time.Now()

		if metrics != nil {
			attrs := []attribute.KeyValue{
				attribute.String("http.method", c.Request.Method),
				attribute.String("http.route", c.FullPath()),
			}

			metrics.activeRequests.Add(c.Request.Context(), 1, metric.WithAttributes(attrs...))
			defer metrics.activeRequests.Add(c.Request.Context(), -1, metric.WithAttributes(attrs...))
		}

		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if span.SpanContext().HasTraceID() {
			c.Header("X-Trace-ID", span.SpanContext().TraceID().String())
		}

		if metrics != nil {
			attrs := []attribute.KeyValue{
				attribute.String("http.method", c.Request.Method),
				attribute.String("http.route", c.FullPath()),
				attribute.Int("http.status_code", c.Writer.Status()),
			}
			metrics.requestDuration.Record(c.Request.Context(), time.Since(start).Seconds(), metric.WithAttributes(attrs...))
			metrics.requestTotal.Add(c.Request.Context(), 1, metric.WithAttributes(attrs...))
		}
	}
}

// TracingMiddleware is the plain otelgin span middleware, without the
// custom instruments.
func TracingMiddleware(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName)
}
