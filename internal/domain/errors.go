// Package domain contains business logic types and errors.
// Domain errors represent failures as the user should see them, NOT raw
// transport errors. Adapters normalize every failure to this shape before
// it crosses into the application layer.
package domain

import (
	"errors"
)

// User-facing failure messages. The orchestrator displays these verbatim,
// so they are fixed constants rather than formatted strings.
const (
	// DefaultErrorMessage replaces any failure that is not already an
	// APIError: network errors, malformed bodies, unexpected panics of the
	// transport. Raw internal error text never reaches the UI.
	DefaultErrorMessage = "Something went wrong. Please try again later."

	// FetchErrorMessage is the fallback for a non-2xx fetch response whose
	// error envelope parses but carries no message.
	FetchErrorMessage = "We encountered an issue while fetching the quote. Please try again later."

	// UpdateErrorMessage is the fallback for a non-2xx like/unlike response
	// whose error envelope parses but carries no message.
	UpdateErrorMessage = "We encountered an issue while updating the quote. Please try again later"

	// StreamErrorMessage is shown while the liked-quotes stream is broken.
	StreamErrorMessage = "Connection error with the liked quotes stream."
)

// APIError is the one failure shape the quote client surfaces. It carries a
// human-readable message and, when the failure came from an HTTP response,
// the status code. A zero Status means no status is known.
type APIError struct {
	Message string
	Status  int
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates an APIError without an HTTP status.
func NewAPIError(message string) *APIError {
	return &APIError{Message: message}
}

// NewAPIErrorWithStatus creates an APIError carrying the HTTP status code.
func NewAPIErrorWithStatus(message string, status int) *APIError {
	return &APIError{Message: message, Status: status}
}

// AsAPIError unwraps err to an *APIError if there is one in the chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}

	return nil, false
}

// MessageFromError returns the display message for err: the APIError's own
// message when err is one, DefaultErrorMessage otherwise. A nil err yields
// the empty string.
func MessageFromError(err error) string {
	if err == nil {
		return ""
	}

	if apiErr, ok := AsAPIError(err); ok {
		return apiErr.Message
	}

	return DefaultErrorMessage
}

// NormalizeError guarantees the APIError contract: an existing APIError is
// returned unchanged (never double-wrapped), anything else is replaced with
// a fresh APIError carrying DefaultErrorMessage.
func NormalizeError(err error) error {
	if err == nil {
		return nil
	}

	if _, ok := AsAPIError(err); ok {
		return err
	}

	return NewAPIError(DefaultErrorMessage)
}
