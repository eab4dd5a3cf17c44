package backend

import (
	"sync"

	"github.com/amxcoding/randomquotes-client/internal/domain"
)

const (
	// replayLimit is how many recent likes a new subscriber receives on
	// connect, so a freshly loaded page is not empty.
	replayLimit = 3

	// subscriberBuffer sizes each subscriber channel. A subscriber that
	// falls further behind than this loses messages rather than blocking
	// the publisher.
	subscriberBuffer = 16
)

// Broadcaster fans liked quotes out to SSE subscribers and replays the last
// few likes to newcomers.
type Broadcaster struct {
	mu          sync.Mutex
	subscribers map[chan domain.Quote]struct{}
	replay      []domain.Quote
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[chan domain.Quote]struct{}),
	}
}

// Subscribe registers a new subscriber. The replay buffer is queued onto the
// returned channel before any live message. The returned cancel function
// unregisters the subscriber and closes the channel; it is idempotent.
func (b *Broadcaster) Subscribe() (<-chan domain.Quote, func()) {
	ch := make(chan domain.Quote, subscriberBuffer)

	b.mu.Lock()
	for _, q := range b.replay {
		ch <- q
	}
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, ch)
			b.mu.Unlock()
			close(ch)
		})
	}

	return ch, cancel
}

// Publish delivers a liked quote to every subscriber and records it in the
// replay buffer. Slow subscribers are skipped, never waited on.
func (b *Broadcaster) Publish(quote domain.Quote) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.replay = append(b.replay, quote)
	if len(b.replay) > replayLimit {
		b.replay = b.replay[len(b.replay)-replayLimit:]
	}

	for ch := range b.subscribers {
		select {
		case ch <- quote:
		default:
		}
	}
}

// SubscriberCount reports the number of live subscribers.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}
