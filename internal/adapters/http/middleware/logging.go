package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amxcoding/randomquotes-client/internal/platform/logging"
)

// Logging logs one start and one completion record per request, using the
// context logger so request, correlation, and trace ids come along for
// free. Operational endpoints under /-/ are never logged.
func Logging(logger *slog.Logger) gin.HandlerFunc {
	return LoggingWithSkipPaths(logger, nil)
}

// LoggingWithSkipPaths is Logging plus an exact-match list of additional
// paths to keep out of the log, such as a scraped /metrics endpoint.
func LoggingWithSkipPaths(logger *slog.Logger, skipPaths []string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, path := range skipPaths {
		skip[path] = struct{}{}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path

		if _, skipped := skip[path]; skipped || strings.HasPrefix(path, "/-/") {
			c.Next()
			return
		}

		if c.Request.URL.RawQuery != "" {
			path = path + "?" + c.Request.URL.RawQuery
		}

		start := time.Now()
		ctxLogger := logging.FromContext(c.Request.Context())

		ctxLogger.Info("request started",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("client_ip", c.ClientIP()),
			slog.String("user_agent", c.Request.UserAgent()),
		)

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		ctxLogger.Log(c.Request.Context(), levelForStatus(status), "request completed",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.Duration("latency", latency),
			slog.Int64("latency_ms", latency.Milliseconds()),
			slog.Int("bytes", c.Writer.Size()),
		)
	}
}

// levelForStatus maps 5xx to error, 4xx to warn, everything else to info.
func levelForStatus(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
