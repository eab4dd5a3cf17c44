package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/amxcoding/randomquotes-client/internal/adapters/http/dto"
	"github.com/amxcoding/randomquotes-client/internal/platform/logging"
)

// Recovery turns panics into 500 responses with the standard error
// envelope. The panic value and full stack land in the log; the client
// only sees the generic message plus the trace id. Install it first so it
// covers the whole chain.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return RecoveryWithWriter(logger, nil)
}

// RecoveryWithWriter is Recovery with a hook that receives the panic value
// and stack, for tests or crash reporting sinks.
func RecoveryWithWriter(logger *slog.Logger, stackHandler func(err any, stack []byte)) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			stack := debug.Stack()
			if stackHandler != nil {
				stackHandler(r, stack)
			}

			var traceID string
			if span := trace.SpanFromContext(c.Request.Context()); span.SpanContext().HasTraceID() {
				traceID = span.SpanContext().TraceID().String()
			}

			logging.FromContext(c.Request.Context()).Error("panic recovered",
				slog.Any("error", r),
				slog.String("stack", string(stack)),
				slog.String("path", c.Request.URL.Path),
				slog.String("method", c.Request.Method),
				slog.String("trace_id", traceID),
			)

			errResp := dto.NewErrorResponse(
				http.StatusInternalServerError,
				"An internal error occurred.",
			)
			if traceID != "" {
				errResp.TraceID = traceID
			}

			// A partially written response cannot carry the envelope anymore.
			if c.Writer.Written() {
				c.Abort()
				return
			}

			c.AbortWithStatusJSON(http.StatusInternalServerError, errResp)
		}()

		c.Next()
	}
}
