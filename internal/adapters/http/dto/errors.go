// Package dto provides Data Transfer Objects for HTTP request/response handling.
package dto

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/amxcoding/randomquotes-client/internal/backend"
)

// ErrorResponse is the error envelope for all error responses. Clients only
// rely on Message; the rest is for operators reading raw responses.
type ErrorResponse struct {
	// StatusCode mirrors the HTTP status of the response.
	StatusCode int `json:"statusCode"`

	// Message is a human-readable error message, safe to show to users.
	Message string `json:"message"`

	// Details provides additional context about the error.
	// For validation errors, this contains field-level error messages.
	Details map[string]string `json:"details,omitempty"`

	// Timestamp is when the error response was produced.
	Timestamp time.Time `json:"timestamp"`

	// TraceID correlates the response with traces and logs.
	TraceID string `json:"traceId,omitempty"`
}

// NewErrorResponse creates an error response for the given status and message.
func NewErrorResponse(status int, message string) *ErrorResponse {
	return &ErrorResponse{
		StatusCode: status,
		Message:    message,
		Timestamp:  time.Now().UTC(),
	}
}

// NewErrorResponseWithDetails creates an error response with field details.
func NewErrorResponseWithDetails(status int, message string, details map[string]string) *ErrorResponse {
	resp := NewErrorResponse(status, message)
	resp.Details = details

	return resp
}

// WithTraceID adds a trace ID to the error response.
func (e *ErrorResponse) WithTraceID(traceID string) *ErrorResponse {
	e.TraceID = traceID
	return e
}

// GetTraceID returns the trace ID for the current request. It prefers the
// gin context value set by the request-ID middleware, then the active
// OpenTelemetry span, then the X-Request-ID header.
func GetTraceID(c *gin.Context) string {
	if v, exists := c.Get("trace_id"); exists {
		if id, ok := v.(string); ok {
			return id
		}

		return ""
	}

	if span := trace.SpanFromContext(c.Request.Context()); span.SpanContext().HasTraceID() {
		return span.SpanContext().TraceID().String()
	}

	return c.GetHeader("X-Request-ID")
}

// HandleError writes the error envelope for err. Known errors are mapped to
// their status; anything unrecognized becomes a 500 with a generic message
// so internals never leak to clients.
func HandleError(c *gin.Context, err error) {
	status, message := mapError(err)

	resp := NewErrorResponse(status, message).WithTraceID(GetTraceID(c))

	c.JSON(status, resp)
}

// mapError maps an error to an HTTP status and user-safe message.
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, backend.ErrQuoteNotFound):
		return http.StatusNotFound, "Quote not found."

	case errors.Is(err, ErrValidation), errors.Is(err, ErrBinding), errors.Is(err, ErrInvalidCursor):
		return http.StatusBadRequest, err.Error()

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "The request timed out. Please try again later."

	default:
		return http.StatusInternalServerError, "An internal error occurred."
	}
}
