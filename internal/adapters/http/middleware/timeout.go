package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/amxcoding/randomquotes-client/internal/adapters/http/dto"
	"github.com/amxcoding/randomquotes-client/internal/platform/logging"
)

// Timeout bounds the request with a context deadline and answers 503 with
// the standard envelope when it expires. It cannot forcibly stop a handler
// that ignores its context; it can only stop waiting for it.
func Timeout(timeout time.Duration) gin.HandlerFunc {
	return TimeoutWithSkipPaths(timeout, nil)
}

// TimeoutWithSkipPaths is Timeout minus an exact-match list of paths, for
// endpoints that legitimately outlive a deadline.
func TimeoutWithSkipPaths(timeout time.Duration, skipPaths []string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, path := range skipPaths {
		skip[path] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, skipped := skip[c.Request.URL.Path]; skipped {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)

		done := make(chan struct{})
		go func() {
			c.Next()
			close(done)
		}()

		select {
		case <-done:
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				handleTimeout(c, timeout)
			}
		}
	}
}

func handleTimeout(c *gin.Context, timeout time.Duration) {
	var traceID string
	if span := trace.SpanFromContext(c.Request.Context()); span.SpanContext().HasTraceID() {
		traceID = span.SpanContext().TraceID().String()
	}

	logging.FromContext(c.Request.Context()).Warn("request timeout",
		slog.String("path", c.Request.URL.Path),
		slog.String("method", c.Request.Method),
		slog.Duration("timeout", timeout),
		slog.String("trace_id", traceID),
	)

	errResp := dto.NewErrorResponse(
		http.StatusServiceUnavailable,
		"The request timed out. Please try again later.",
	)
	if traceID != "" {
		errResp.TraceID = traceID
	}

	if c.Writer.Written() {
		c.Abort()
		return
	}

	c.AbortWithStatusJSON(http.StatusServiceUnavailable, errResp)
}

// SimpleTimeout only installs the deadline and leaves the response to the
// handler. The quote endpoints use this: their work is context-aware and a
// competing writer goroutine would race the SSE upgrade path.
func SimpleTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
