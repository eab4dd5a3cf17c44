// Package app contains the application layer that orchestrates use cases.
package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amxcoding/randomquotes-client/internal/domain"
	"github.com/amxcoding/randomquotes-client/internal/ports"
)

const (
	// defaultHistorySize bounds the liked-quotes history when not configured.
	defaultHistorySize = 4

	// defaultLikeErrorTimeout is how long a like error stays visible.
	defaultLikeErrorTimeout = 4 * time.Second
)

// State is an immutable snapshot of everything the presentation layer renders.
// The slice is copied on snapshot, so consumers may hold it freely.
type State struct {
	// Quote is the currently displayed quote, nil when none is loaded or the
	// last fetch failed.
	Quote *domain.Quote

	// Liked is the current user's like status for Quote. It moves
	// optimistically on toggle and is reverted when the server disagrees.
	Liked bool

	// Fetching and Liking report in-flight operations so the UI can disable
	// the corresponding controls.
	Fetching bool
	Liking   bool

	// FetchError is shown in place of the quote; LikeError self-clears after
	// the configured timeout; StreamError persists until reconnect or
	// deactivation.
	FetchError  string
	LikeError   string
	StreamError string

	// LikedQuotes is the bounded newest-first history fed by the likes
	// stream.
	LikedQuotes []domain.LikedQuote
}

// ViewModelConfig contains the orchestrator's collaborators and knobs.
type ViewModelConfig struct {
	// API performs the request/response operations.
	API ports.QuoteAPI

	// Stream is the liked-quotes push subscription.
	Stream ports.LikedQuoteStream

	// HistorySize bounds the liked-quotes history. Defaults to 4.
	HistorySize int

	// LikeErrorTimeout is the like-error dismissal delay. Defaults to 4s.
	LikeErrorTimeout time.Duration

	// OnChange is invoked with a fresh snapshot after every state change.
	// Called outside the internal lock, so handlers may call back into the
	// view-model.
	OnChange func(State)

	// Logger is the structured logger.
	Logger *slog.Logger
}

// ViewModel bridges UI events to the quote API and owns all transient UI
// state. State is guarded by a mutex: request/response operations run on the
// caller's goroutine while stream messages arrive on the reader goroutine.
type ViewModel struct {
	api    ports.QuoteAPI
	stream ports.LikedQuoteStream
	logger *slog.Logger

	historySize      int
	likeErrorTimeout time.Duration
	onChange         func(State)

	mu    sync.Mutex
	state State

	// active guards the one-subscription-per-activation rule.
	active bool

	// generation increments on every fetch. A like/unlike response carrying
	// an older generation is discarded: a newer fetch has already replaced
	// the quote it belonged to.
	generation uint64

	// likeErrorSeq invalidates pending dismissal timers when a newer like
	// error replaces the one they were armed for.
	likeErrorSeq uint64
	likeTimer    *time.Timer
}

// NewViewModel creates the orchestrator. Panics if API or Stream is nil.
func NewViewModel(cfg ViewModelConfig) *ViewModel {
	if cfg.API == nil {
		panic("ViewModel: API is required")
	}
	if cfg.Stream == nil {
		panic("ViewModel: Stream is required")
	}

	historySize := cfg.HistorySize
	if historySize <= 0 {
		historySize = defaultHistorySize
	}

	likeErrorTimeout := cfg.LikeErrorTimeout
	if likeErrorTimeout <= 0 {
		likeErrorTimeout = defaultLikeErrorTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &ViewModel{
		api:              cfg.API,
		stream:           cfg.Stream,
		logger:           logger,
		historySize:      historySize,
		likeErrorTimeout: likeErrorTimeout,
		onChange:         cfg.OnChange,
	}
}

// State returns a snapshot of the current UI state.
func (vm *ViewModel) State() State {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.snapshotLocked()
}

// Activate subscribes to the likes stream and performs the initial fetch.
// The subscription happens exactly once per activation; repeated calls
// without an intervening Deactivate are no-ops.
func (vm *ViewModel) Activate(ctx context.Context) {
	vm.mu.Lock()
	if vm.active {
		vm.mu.Unlock()
		return
	}
	vm.active = true
	vm.state.StreamError = ""
	snapshot := vm.snapshotLocked()
	vm.mu.Unlock()
	vm.notify(snapshot)

	vm.stream.Connect(vm.handleStreamQuote, vm.handleStreamError)
	vm.FetchQuote(ctx)
}

// Deactivate tears down the stream subscription and any pending like-error
// dismissal. Safe to call at any time.
func (vm *ViewModel) Deactivate() {
	vm.mu.Lock()
	vm.active = false
	vm.cancelLikeTimerLocked()
	vm.mu.Unlock()

	vm.stream.Disconnect()
}

// FetchQuote loads a new random quote, blanking the display on failure.
func (vm *ViewModel) FetchQuote(ctx context.Context) {
	vm.mu.Lock()
	vm.generation++
	gen := vm.generation

	vm.state.Fetching = true
	vm.state.Liking = true
	vm.state.FetchError = ""
	vm.state.LikeError = ""
	vm.state.Liked = false
	vm.cancelLikeTimerLocked()
	snapshot := vm.snapshotLocked()
	vm.mu.Unlock()
	vm.notify(snapshot)

	quote, err := vm.api.FetchRandomQuote(ctx)

	vm.mu.Lock()
	if gen == vm.generation {
		if err != nil {
			vm.logger.WarnContext(ctx, "fetch failed", slog.Any("error", err))
			vm.state.FetchError = domain.MessageFromError(err)
			vm.state.Quote = nil
		} else {
			vm.state.Quote = quote
			vm.state.Liked = quote.IsLiked
		}
		vm.state.Fetching = false
		vm.state.Liking = false
	}
	snapshot = vm.snapshotLocked()
	vm.mu.Unlock()
	vm.notify(snapshot)
}

// ToggleLike flips the like status of the current quote optimistically and
// reconciles with the server's answer. A response that lands after a newer
// fetch has started is discarded.
func (vm *ViewModel) ToggleLike(ctx context.Context) {
	vm.mu.Lock()
	if vm.state.Quote == nil {
		vm.mu.Unlock()
		return
	}

	gen := vm.generation
	id := vm.state.Quote.ID
	preToggle := vm.state.Liked
	target := !preToggle

	// Optimistic apply; the revert below restores exactly preToggle.
	vm.state.Liked = target
	vm.state.Liking = true
	vm.state.LikeError = ""
	vm.cancelLikeTimerLocked()
	snapshot := vm.snapshotLocked()
	vm.mu.Unlock()
	vm.notify(snapshot)

	var quote *domain.Quote
	var err error
	if target {
		quote, err = vm.api.LikeQuote(ctx, id)
	} else {
		quote, err = vm.api.UnlikeQuote(ctx, id)
	}

	vm.mu.Lock()
	if gen != vm.generation {
		// Stale response: a newer fetch owns the state now.
		vm.mu.Unlock()
		return
	}

	if err != nil {
		vm.logger.WarnContext(ctx, "like toggle failed",
			slog.Int64("quote_id", id),
			slog.Any("error", err))
		vm.state.LikeError = domain.MessageFromError(err)
		vm.state.Liked = preToggle
		vm.armLikeTimerLocked()
	} else {
		// The server response is authoritative over the optimistic guess.
		vm.state.Quote = quote
		vm.state.Liked = quote.IsLiked
	}
	vm.state.Liking = false
	snapshot = vm.snapshotLocked()
	vm.mu.Unlock()
	vm.notify(snapshot)
}

// handleStreamQuote prepends a streamed quote to the bounded history.
func (vm *ViewModel) handleStreamQuote(quote domain.Quote) {
	vm.mu.Lock()
	entry := domain.LikedQuote{Key: uuid.NewString(), Quote: quote}
	history := make([]domain.LikedQuote, 0, vm.historySize)
	history = append(history, entry)
	for _, prior := range vm.state.LikedQuotes {
		if len(history) == vm.historySize {
			break
		}
		history = append(history, prior)
	}
	vm.state.LikedQuotes = history
	snapshot := vm.snapshotLocked()
	vm.mu.Unlock()
	vm.notify(snapshot)
}

// handleStreamError surfaces a broken stream. The stream hands over an
// opaque signal; the message shown is owned here, and it persists until the
// next activation.
func (vm *ViewModel) handleStreamError(err error) {
	vm.logger.Warn("likes stream error", slog.Any("error", err))

	vm.mu.Lock()
	vm.state.StreamError = domain.StreamErrorMessage
	snapshot := vm.snapshotLocked()
	vm.mu.Unlock()
	vm.notify(snapshot)
}

// armLikeTimerLocked schedules the like-error dismissal, replacing any
// pending one. Must be called with the lock held.
func (vm *ViewModel) armLikeTimerLocked() {
	vm.cancelLikeTimerLocked()
	vm.likeErrorSeq++
	seq := vm.likeErrorSeq

	vm.likeTimer = time.AfterFunc(vm.likeErrorTimeout, func() {
		vm.mu.Lock()
		if seq != vm.likeErrorSeq {
			// A newer error re-armed the timer after this one was scheduled.
			vm.mu.Unlock()
			return
		}
		vm.state.LikeError = ""
		vm.likeTimer = nil
		snapshot := vm.snapshotLocked()
		vm.mu.Unlock()
		vm.notify(snapshot)
	})
}

// cancelLikeTimerLocked stops any pending dismissal. Must be called with the
// lock held.
func (vm *ViewModel) cancelLikeTimerLocked() {
	vm.likeErrorSeq++
	if vm.likeTimer != nil {
		vm.likeTimer.Stop()
		vm.likeTimer = nil
	}
}

// snapshotLocked copies the state for handoff outside the lock.
// Must be called with the lock held.
func (vm *ViewModel) snapshotLocked() State {
	snapshot := vm.state
	if vm.state.LikedQuotes != nil {
		snapshot.LikedQuotes = make([]domain.LikedQuote, len(vm.state.LikedQuotes))
		copy(snapshot.LikedQuotes, vm.state.LikedQuotes)
	}

	return snapshot
}

// notify delivers a snapshot to the presentation layer.
func (vm *ViewModel) notify(snapshot State) {
	if vm.onChange != nil {
		vm.onChange(snapshot)
	}
}
