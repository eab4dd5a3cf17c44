package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amxcoding/randomquotes-client/internal/domain"
)

func TestBroadcaster_DeliversToSubscribers(t *testing.T) {
	b := NewBroadcaster()

	ch, cancel := b.Subscribe()
	defer cancel()

	b.Publish(domain.Quote{ID: 1})

	quote := <-ch
	assert.Equal(t, int64(1), quote.ID)
}

func TestBroadcaster_ReplaysLastThree(t *testing.T) {
	b := NewBroadcaster()

	for i := int64(1); i <= 5; i++ {
		b.Publish(domain.Quote{ID: i})
	}

	ch, cancel := b.Subscribe()
	defer cancel()

	// Only the three most recent likes are replayed, oldest first.
	assert.Equal(t, int64(3), (<-ch).ID)
	assert.Equal(t, int64(4), (<-ch).ID)
	assert.Equal(t, int64(5), (<-ch).ID)

	select {
	case q := <-ch:
		t.Fatalf("unexpected extra replay entry: %v", q)
	default:
	}
}

func TestBroadcaster_CancelStopsDelivery(t *testing.T) {
	b := NewBroadcaster()

	ch, cancel := b.Subscribe()
	require.Equal(t, 1, b.SubscriberCount())

	cancel()
	assert.Equal(t, 0, b.SubscriberCount())

	// The channel is closed; a closed receive yields the zero value.
	_, open := <-ch
	assert.False(t, open)

	// Cancel is idempotent.
	cancel()
}

func TestBroadcaster_SlowSubscriberSkipped(t *testing.T) {
	b := NewBroadcaster()

	ch, cancel := b.Subscribe()
	defer cancel()

	// Overflow the subscriber buffer; Publish must not block.
	for i := int64(0); i < subscriberBuffer+10; i++ {
		b.Publish(domain.Quote{ID: i})
	}

	assert.Len(t, ch, subscriberBuffer)
}

func TestBroadcaster_IndependentSubscribers(t *testing.T) {
	b := NewBroadcaster()

	ch1, cancel1 := b.Subscribe()
	ch2, cancel2 := b.Subscribe()
	defer cancel1()
	defer cancel2()

	b.Publish(domain.Quote{ID: 7})

	assert.Equal(t, int64(7), (<-ch1).ID)
	assert.Equal(t, int64(7), (<-ch2).ID)
}
