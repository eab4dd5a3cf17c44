// Package backend implements the quotes backend used by the quotesd dev
// server: an in-memory quote store with per-visitor likes and an SSE
// broadcaster for newly liked quotes. It exists so the client can be run and
// integration-tested against the real wire contract without a production
// deployment.
package backend

import (
	"errors"
	"math/rand/v2"
	"sync"

	"github.com/amxcoding/randomquotes-client/internal/domain"
)

// ErrQuoteNotFound is returned when a quote id does not exist.
var ErrQuoteNotFound = errors.New("quote not found")

// seedQuotes is the built-in corpus served when no custom seed is given.
var seedQuotes = []domain.Quote{
	{ID: 1, Text: "The only way to do great work is to love what you do.", Author: "Steve Jobs"},
	{ID: 2, Text: "Simplicity is the ultimate sophistication.", Author: "Leonardo da Vinci"},
	{ID: 3, Text: "In the middle of difficulty lies opportunity.", Author: "Albert Einstein"},
	{ID: 4, Text: "It always seems impossible until it is done.", Author: "Nelson Mandela"},
	{ID: 5, Text: "The unexamined life is not worth living.", Author: "Socrates"},
	{ID: 6, Text: "Well begun is half done.", Author: "Aristotle"},
	{ID: 7, Text: "Whatever you are, be a good one.", Author: "Abraham Lincoln"},
	{ID: 8, Text: "No man ever steps in the same river twice.", Author: "Heraclitus"},
}

// Store holds quotes and per-visitor like state. Likes are a (visitor, quote)
// pair set: liking is idempotent per pair and the like count is derived from
// the pairs, never stored.
type Store struct {
	mu     sync.RWMutex
	quotes []domain.Quote
	index  map[int64]int
	likes  map[int64]map[string]struct{}

	// pick is overridable for deterministic tests.
	pick func(n int) int
}

// NewStore creates a store seeded with the given quotes, or the built-in
// corpus when seed is empty.
func NewStore(seed []domain.Quote) *Store {
	if len(seed) == 0 {
		seed = seedQuotes
	}

	quotes := make([]domain.Quote, len(seed))
	copy(quotes, seed)

	index := make(map[int64]int, len(quotes))
	for i, q := range quotes {
		index[q.ID] = i
	}

	return &Store{
		quotes: quotes,
		index:  index,
		likes:  make(map[int64]map[string]struct{}),
		pick:   rand.IntN,
	}
}

// RandomQuote returns a random quote with the visitor's like status applied.
func (s *Store) RandomQuote(visitorID string) domain.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.pick(len(s.quotes))

	return s.viewLocked(i, visitorID)
}

// Quote returns the quote with the given id.
func (s *Store) Quote(id int64, visitorID string) (domain.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return domain.Quote{}, ErrQuoteNotFound
	}

	return s.viewLocked(i, visitorID), nil
}

// Like records the (visitor, quote) pair. Liking an already-liked quote is a
// no-op. Returns the updated quote view.
func (s *Store) Like(visitorID string, id int64) (domain.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return domain.Quote{}, ErrQuoteNotFound
	}

	visitors, ok := s.likes[id]
	if !ok {
		visitors = make(map[string]struct{})
		s.likes[id] = visitors
	}
	visitors[visitorID] = struct{}{}

	return s.viewLocked(i, visitorID), nil
}

// Unlike removes the (visitor, quote) pair if present. Returns the updated
// quote view.
func (s *Store) Unlike(visitorID string, id int64) (domain.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return domain.Quote{}, ErrQuoteNotFound
	}

	if visitors, ok := s.likes[id]; ok {
		delete(visitors, visitorID)
	}

	return s.viewLocked(i, visitorID), nil
}

// List returns a page of quotes with the visitor's like status applied, plus
// the total count.
func (s *Store) List(offset, limit int, visitorID string) ([]domain.Quote, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := len(s.quotes)
	if offset >= total || limit <= 0 {
		return []domain.Quote{}, total
	}

	end := offset + limit
	if end > total {
		end = total
	}

	page := make([]domain.Quote, 0, end-offset)
	for i := offset; i < end; i++ {
		page = append(page, s.viewLocked(i, visitorID))
	}

	return page, total
}

// viewLocked builds the visitor-specific quote view. Must be called with at
// least a read lock held.
func (s *Store) viewLocked(i int, visitorID string) domain.Quote {
	quote := s.quotes[i]

	visitors := s.likes[quote.ID]
	quote.Likes = len(visitors)
	if visitorID != "" {
		_, quote.IsLiked = visitors[visitorID]
	}

	return quote
}
