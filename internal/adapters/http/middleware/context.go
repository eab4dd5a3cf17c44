// Package middleware provides HTTP middleware for the Gin framework.
package middleware

import "context"

// contextKey keeps these context values from colliding with other packages.
type contextKey string

const (
	ctxKeyRequestID     contextKey = "request_id"
	ctxKeyCorrelationID contextKey = "correlation_id"
)

// RequestIDFromContext returns the request id stored by the RequestID
// middleware, or "" when absent. The outbound client reads this to stamp
// downstream calls.
func RequestIDFromContext(ctx context.Context) string {
	return idFromContext(ctx, ctxKeyRequestID)
}

// CorrelationIDFromContext returns the correlation id stored by the
// CorrelationID middleware, or "" when absent.
func CorrelationIDFromContext(ctx context.Context) string {
	return idFromContext(ctx, ctxKeyCorrelationID)
}

func idFromContext(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}

	if id, ok := ctx.Value(key).(string); ok {
		return id
	}

	return ""
}

// ContextWithRequestID stores the request id for RequestIDFromContext.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, id)
}

// ContextWithCorrelationID stores the correlation id for CorrelationIDFromContext.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyCorrelationID, id)
}
