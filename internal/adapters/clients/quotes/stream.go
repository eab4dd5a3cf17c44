package quotes

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/amxcoding/randomquotes-client/internal/adapters/clients"
	"github.com/amxcoding/randomquotes-client/internal/domain"
	"github.com/amxcoding/randomquotes-client/internal/ports"
)

// streamState tracks the subscription lifecycle.
type streamState int

const (
	streamDisconnected streamState = iota
	streamConnecting
	streamConnected
)

// StreamConfig contains configuration for the liked-quotes stream.
type StreamConfig struct {
	// Client dials the stream; its streaming path has no request timeout.
	Client *clients.Client

	// URL is the absolute event-stream URL.
	URL string

	// Logger is the structured logger.
	Logger *slog.Logger
}

// Stream implements ports.LikedQuoteStream over a server-sent-events
// connection. At most one connection is live at a time; repeated Connect
// calls replace the handlers but never stack connections. The stream never
// reconnects on its own.
type Stream struct {
	client *clients.Client
	url    string
	logger *slog.Logger

	mu         sync.Mutex
	state      streamState
	generation uint64
	cancel     context.CancelFunc
	onMessage  ports.QuoteHandler
	onError    ports.StreamErrorHandler
}

// NewStream creates a new liked-quotes stream adapter.
// Panics if Client is nil. Defaults logger to slog.Default() if nil.
func NewStream(cfg StreamConfig) *Stream {
	if cfg.Client == nil {
		panic("quotes.Stream: Client is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Stream{
		client: cfg.Client,
		url:    cfg.URL,
		logger: logger,
	}
}

// Connect stores the handlers and opens the connection unless one is already
// open or being opened. Handlers are replaced even when the early return
// fires; callers re-connecting after navigation always get their fresh
// handlers wired to the existing connection.
// Implements ports.LikedQuoteStream.
func (s *Stream) Connect(onMessage ports.QuoteHandler, onError ports.StreamErrorHandler) {
	s.mu.Lock()

	// Replacement happens before the connection check.
	s.onMessage = onMessage
	s.onError = onError

	if s.state != streamDisconnected {
		s.mu.Unlock()
		return
	}

	s.state = streamConnecting
	s.generation++
	gen := s.generation

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	go s.run(ctx, gen)
}

// Disconnect closes any live connection and unconditionally clears the
// handlers. Safe to call at any time. Implements ports.LikedQuoteStream.
func (s *Stream) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	s.state = streamDisconnected
	s.onMessage = nil
	s.onError = nil
}

// run dials the stream and pumps events until the connection drops or is
// canceled. It owns the transition out of streamConnecting.
func (s *Stream) run(ctx context.Context, gen uint64) {
	resp, err := s.client.Stream(ctx, s.url)
	if err != nil {
		s.logger.Warn("liked quotes stream connection failed", slog.Any("error", err))
		s.fail(ctx, gen, err)
		return
	}
	defer func() { _ = resp.Body.Close() }()

	s.mu.Lock()
	if s.generation != gen {
		// Disconnected (and possibly reconnected) while dialing.
		s.mu.Unlock()
		return
	}
	s.state = streamConnected
	s.mu.Unlock()

	s.logger.Debug("liked quotes stream connected")

	decoder := newSSEDecoder(resp.Body)
	for {
		event, err := decoder.Next()
		if err != nil {
			s.fail(ctx, gen, err)
			return
		}

		s.dispatch(event)
	}
}

// dispatch decodes one event and invokes the message handler. Payloads that
// do not parse as a Quote are dropped without surfacing an error.
func (s *Stream) dispatch(event sseEvent) {
	var quote domain.Quote
	if err := json.Unmarshal([]byte(event.Data), &quote); err != nil {
		s.logger.Debug("dropping malformed stream payload", slog.Any("error", err))
		return
	}

	s.mu.Lock()
	handler := s.onMessage
	s.mu.Unlock()

	if handler != nil {
		handler(quote)
	}
}

// fail reports a broken stream to the error handler, unless the drop was
// caused by Disconnect. The connection handle is released so a later Connect
// can dial again. The cause is passed through as an opaque signal; a push
// connection carries no structured error body, so the subscriber decides its
// own messaging.
func (s *Stream) fail(ctx context.Context, gen uint64, cause error) {
	// A canceled context means Disconnect already ran; stay quiet.
	if ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return
	}
	s.state = streamDisconnected
	s.cancel = nil
	handler := s.onError
	s.mu.Unlock()

	s.logger.Warn("liked quotes stream dropped", slog.Any("error", cause))

	if handler != nil {
		handler(cause)
	}
}
