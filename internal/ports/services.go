// Package ports defines interfaces for external dependencies.
// Ports are contracts that adapters implement, allowing the application layer
// to depend on abstractions rather than concrete implementations.
//
// Port Design Principles:
//   - Context as first parameter for cancellation and deadlines
//   - Return domain types, never external DTOs or infrastructure types
//   - Error returns use domain error types (APIError)
//   - Keep interfaces small and focused
package ports

import (
	"context"

	"github.com/amxcoding/randomquotes-client/internal/domain"
)

// QuoteAPI is the request/response surface of the quotes backend.
// Every operation either returns a complete Quote or fails with exactly one
// *domain.APIError; no other error shape crosses this boundary.
type QuoteAPI interface {
	// FetchRandomQuote retrieves a random quote together with the current
	// user's like status for it.
	FetchRandomQuote(ctx context.Context) (*domain.Quote, error)

	// LikeQuote records a like for the quote and returns the updated quote.
	// Liking an already-liked quote is a server-side no-op.
	LikeQuote(ctx context.Context, id int64) (*domain.Quote, error)

	// UnlikeQuote removes the current user's like and returns the updated
	// quote.
	UnlikeQuote(ctx context.Context, id int64) (*domain.Quote, error)
}

// QuoteHandler receives quotes delivered over the likes stream.
type QuoteHandler func(quote domain.Quote)

// StreamErrorHandler receives stream-level failures. The error is an opaque
// signal: no structured error body exists for a push connection, so the
// caller decides its own messaging.
type StreamErrorHandler func(err error)

// LikedQuoteStream is a single server-push subscription delivering quotes as
// they are liked by any user. At most one connection exists per
// implementation instance.
type LikedQuoteStream interface {
	// Connect stores the handlers (replacing any prior ones) and opens the
	// stream connection unless one is already open or being opened. The
	// replacement happens even when no new connection is made; that is the
	// documented contract for repeated Connect calls.
	//
	// Messages that fail to parse as a Quote are dropped silently. The
	// stream does not reconnect on its own; the caller decides when to
	// Connect again after an error.
	Connect(onMessage QuoteHandler, onError StreamErrorHandler)

	// Disconnect closes any live connection and unconditionally clears the
	// connection handle and both handlers. Safe to call at any time,
	// including when never connected.
	Disconnect()
}
