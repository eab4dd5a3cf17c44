package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/amxcoding/randomquotes-client/internal/app"
	"github.com/amxcoding/randomquotes-client/internal/domain"
)

// Service orchestrates the backend use cases. Like and unlike run through
// the transactional executor so the broadcast only happens after the new
// like state has been verified against the store.
type Service struct {
	store       *Store
	broadcaster *Broadcaster
	exec        *app.Executor
	logger      *slog.Logger
}

// ServiceConfig contains the service collaborators.
type ServiceConfig struct {
	Store       *Store
	Broadcaster *Broadcaster
	Logger      *slog.Logger
}

// NewService creates the backend service. Panics if Store or Broadcaster is
// nil. Defaults logger to slog.Default() if nil.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Store == nil {
		panic("backend.Service: Store is required")
	}
	if cfg.Broadcaster == nil {
		panic("backend.Service: Broadcaster is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		store:       cfg.Store,
		broadcaster: cfg.Broadcaster,
		exec:        app.NewExecutor(logger),
		logger:      logger,
	}
}

// RandomQuote returns a random quote for the visitor.
func (s *Service) RandomQuote(ctx context.Context, visitorID string) domain.Quote {
	quote := s.store.RandomQuote(visitorID)
	s.logger.DebugContext(ctx, "served random quote", slog.Int64("quote_id", quote.ID))

	return quote
}

// ListQuotes returns a page of quotes and the total count.
func (s *Service) ListQuotes(ctx context.Context, visitorID string, offset, limit int) ([]domain.Quote, int) {
	return s.store.List(offset, limit, visitorID)
}

// likeInput identifies one like/unlike request.
type likeInput struct {
	VisitorID string
	QuoteID   int64
}

// LikeQuote records the visitor's like and broadcasts the updated quote.
// Only like broadcasts; see UnlikeQuote.
func (s *Service) LikeQuote(ctx context.Context, visitorID string, id int64) (domain.Quote, error) {
	op := app.Operation[likeInput, domain.Quote, domain.Quote, domain.Quote]{
		Name: "like_quote",
		Validate: func(_ context.Context, input likeInput) error {
			_, err := s.store.Quote(input.QuoteID, input.VisitorID)
			return err
		},
		Perform: func(_ context.Context, input likeInput) (domain.Quote, error) {
			return s.store.Like(input.VisitorID, input.QuoteID)
		},
		Verify: func(_ context.Context, input likeInput, performed domain.Quote) (domain.Quote, error) {
			// Re-read the store rather than trusting Perform's return.
			quote, err := s.store.Quote(input.QuoteID, input.VisitorID)
			if err != nil {
				return domain.Quote{}, err
			}
			if !quote.IsLiked {
				return domain.Quote{}, fmt.Errorf("like for quote %d not recorded", input.QuoteID)
			}
			return quote, nil
		},
		Archive: func(_ context.Context, _ likeInput, verified domain.Quote) error {
			s.broadcaster.Publish(verified)
			return nil
		},
		Respond: func(_ context.Context, _ likeInput, verified domain.Quote) (domain.Quote, error) {
			return verified, nil
		},
	}

	quote, err := app.Execute(ctx, s.exec, op, likeInput{VisitorID: visitorID, QuoteID: id})
	if err != nil {
		return domain.Quote{}, unwrapStoreError(err)
	}

	return quote, nil
}

// UnlikeQuote removes the visitor's like. Unlike does not broadcast; the
// stream carries newly liked quotes only.
func (s *Service) UnlikeQuote(ctx context.Context, visitorID string, id int64) (domain.Quote, error) {
	op := app.Operation[likeInput, domain.Quote, domain.Quote, domain.Quote]{
		Name: "unlike_quote",
		Validate: func(_ context.Context, input likeInput) error {
			_, err := s.store.Quote(input.QuoteID, input.VisitorID)
			return err
		},
		Perform: func(_ context.Context, input likeInput) (domain.Quote, error) {
			return s.store.Unlike(input.VisitorID, input.QuoteID)
		},
		Verify: func(_ context.Context, input likeInput, performed domain.Quote) (domain.Quote, error) {
			quote, err := s.store.Quote(input.QuoteID, input.VisitorID)
			if err != nil {
				return domain.Quote{}, err
			}
			if quote.IsLiked {
				return domain.Quote{}, fmt.Errorf("like for quote %d still present", input.QuoteID)
			}
			return quote, nil
		},
		Respond: func(_ context.Context, _ likeInput, verified domain.Quote) (domain.Quote, error) {
			return verified, nil
		},
	}

	quote, err := app.Execute(ctx, s.exec, op, likeInput{VisitorID: visitorID, QuoteID: id})
	if err != nil {
		return domain.Quote{}, unwrapStoreError(err)
	}

	return quote, nil
}

// Subscribe exposes the broadcaster for the SSE handler.
func (s *Service) Subscribe() (<-chan domain.Quote, func()) {
	return s.broadcaster.Subscribe()
}

// SubscriberCount reports how many stream subscribers are connected.
func (s *Service) SubscriberCount() int {
	return s.broadcaster.SubscriberCount()
}

// unwrapStoreError surfaces sentinel store errors hidden inside execution
// step wrappers so handlers can map them to status codes.
func unwrapStoreError(err error) error {
	if errors.Is(err, ErrQuoteNotFound) {
		return ErrQuoteNotFound
	}

	return err
}
