package logging

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

var defaultLogger = slog.Default()

// FromContext returns the request-scoped logger, or the package default
// when the context carries none (or is nil).
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return defaultLogger
	}

	if logger, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return logger
	}

	return defaultLogger
}

// FromContextOr returns the request-scoped logger, or fallback when the
// context carries none. Components that hold their own configured logger use
// this so request scoping wins without discarding their logger entirely.
func FromContextOr(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
			return logger
		}
	}

	if fallback != nil {
		return fallback
	}

	return defaultLogger
}

// WithContext stores the logger in the context.
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// withField re-stores the context logger enriched with one attribute.
func withField(ctx context.Context, key, value string) context.Context {
	return WithContext(ctx, FromContext(ctx).With(slog.String(key, value)))
}

// WithRequestID stamps the context logger with the request id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return withField(ctx, "request_id", requestID)
}

// WithTraceID stamps the context logger with the trace id.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return withField(ctx, "trace_id", traceID)
}

// WithCorrelationID stamps the context logger with the correlation id.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return withField(ctx, "correlation_id", correlationID)
}

// SetDefault replaces the fallback logger and the slog default together.
func SetDefault(logger *slog.Logger) {
	defaultLogger = logger
	slog.SetDefault(logger)
}
