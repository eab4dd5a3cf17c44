// Package clients provides the instrumented HTTP transport for the quotes backend.
package clients

import "errors"

// Client errors represent failures in the HTTP client layer.
// These are distinct from domain errors - they represent infrastructure failures
// that the quotes adapter translates into user-facing API errors.
var (
	// ErrCircuitOpen is returned when the circuit breaker is open.
	// This indicates the quotes backend is unhealthy and requests are being blocked.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMaxRetriesExceeded is returned after all retry attempts have been exhausted.
	// The original error is wrapped for context.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)
