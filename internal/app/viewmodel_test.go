package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amxcoding/randomquotes-client/internal/domain"
	"github.com/amxcoding/randomquotes-client/internal/ports"
)

// fakeAPI implements ports.QuoteAPI with pluggable behavior per operation.
type fakeAPI struct {
	mu          sync.Mutex
	fetchFn     func(ctx context.Context) (*domain.Quote, error)
	likeFn      func(ctx context.Context, id int64) (*domain.Quote, error)
	unlikeFn    func(ctx context.Context, id int64) (*domain.Quote, error)
	likeCalls   []int64
	unlikeCalls []int64
}

func (f *fakeAPI) FetchRandomQuote(ctx context.Context) (*domain.Quote, error) {
	return f.fetchFn(ctx)
}

func (f *fakeAPI) LikeQuote(ctx context.Context, id int64) (*domain.Quote, error) {
	f.mu.Lock()
	f.likeCalls = append(f.likeCalls, id)
	f.mu.Unlock()
	return f.likeFn(ctx, id)
}

func (f *fakeAPI) UnlikeQuote(ctx context.Context, id int64) (*domain.Quote, error) {
	f.mu.Lock()
	f.unlikeCalls = append(f.unlikeCalls, id)
	f.mu.Unlock()
	return f.unlikeFn(ctx, id)
}

// fakeStream implements ports.LikedQuoteStream and exposes the stored
// handlers so tests can push messages and errors.
type fakeStream struct {
	mu          sync.Mutex
	connects    int
	disconnects int
	onMessage   ports.QuoteHandler
	onError     ports.StreamErrorHandler
}

func (f *fakeStream) Connect(onMessage ports.QuoteHandler, onError ports.StreamErrorHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	f.onMessage = onMessage
	f.onError = onError
}

func (f *fakeStream) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
	f.onMessage = nil
	f.onError = nil
}

func (f *fakeStream) pushQuote(q domain.Quote) {
	f.mu.Lock()
	handler := f.onMessage
	f.mu.Unlock()
	if handler != nil {
		handler(q)
	}
}

func (f *fakeStream) pushError(err error) {
	f.mu.Lock()
	handler := f.onError
	f.mu.Unlock()
	if handler != nil {
		handler(err)
	}
}

func sampleQuote() *domain.Quote {
	return &domain.Quote{ID: 1, Text: "A", Author: "B", Likes: 0, IsLiked: false}
}

func okFetch(q *domain.Quote) func(context.Context) (*domain.Quote, error) {
	return func(context.Context) (*domain.Quote, error) { return q, nil }
}

func newTestViewModel(api *fakeAPI, stream *fakeStream, opts ...func(*ViewModelConfig)) *ViewModel {
	cfg := ViewModelConfig{API: api, Stream: stream}
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewViewModel(cfg)
}

func TestNewViewModel_RequiresCollaborators(t *testing.T) {
	assert.Panics(t, func() {
		NewViewModel(ViewModelConfig{Stream: &fakeStream{}})
	})
	assert.Panics(t, func() {
		NewViewModel(ViewModelConfig{API: &fakeAPI{}})
	})
}

func TestFetchQuote_Success(t *testing.T) {
	api := &fakeAPI{fetchFn: okFetch(sampleQuote())}
	vm := newTestViewModel(api, &fakeStream{})

	vm.FetchQuote(context.Background())

	state := vm.State()
	require.NotNil(t, state.Quote)
	assert.Equal(t, int64(1), state.Quote.ID)
	assert.Equal(t, "A", state.Quote.Text)
	assert.False(t, state.Liked)
	assert.Empty(t, state.FetchError)
	assert.False(t, state.Fetching)
	assert.False(t, state.Liking)
}

func TestFetchQuote_SetsLikedFromQuote(t *testing.T) {
	liked := sampleQuote()
	liked.IsLiked = true
	api := &fakeAPI{fetchFn: okFetch(liked)}
	vm := newTestViewModel(api, &fakeStream{})

	vm.FetchQuote(context.Background())

	assert.True(t, vm.State().Liked)
}

func TestFetchQuote_APIErrorMessageShown(t *testing.T) {
	api := &fakeAPI{fetchFn: func(context.Context) (*domain.Quote, error) {
		return nil, domain.NewAPIError("No quotes available")
	}}
	vm := newTestViewModel(api, &fakeStream{})

	vm.FetchQuote(context.Background())

	state := vm.State()
	assert.Nil(t, state.Quote)
	assert.Equal(t, "No quotes available", state.FetchError)
	assert.False(t, state.Fetching)
}

func TestFetchQuote_UnknownErrorUsesDefaultMessage(t *testing.T) {
	api := &fakeAPI{fetchFn: func(context.Context) (*domain.Quote, error) {
		return nil, errors.New("dial tcp: connection refused")
	}}
	vm := newTestViewModel(api, &fakeStream{})

	vm.FetchQuote(context.Background())

	state := vm.State()
	assert.Equal(t, domain.DefaultErrorMessage, state.FetchError)
	assert.NotContains(t, state.FetchError, "dial tcp")
}

func TestFetchQuote_ClearsPriorErrors(t *testing.T) {
	calls := 0
	api := &fakeAPI{fetchFn: func(context.Context) (*domain.Quote, error) {
		calls++
		if calls == 1 {
			return nil, domain.NewAPIError("boom")
		}
		return sampleQuote(), nil
	}}
	vm := newTestViewModel(api, &fakeStream{})

	vm.FetchQuote(context.Background())
	require.NotEmpty(t, vm.State().FetchError)

	vm.FetchQuote(context.Background())
	state := vm.State()
	assert.Empty(t, state.FetchError)
	assert.NotNil(t, state.Quote)
}

func TestToggleLike_NoQuoteIsNoOp(t *testing.T) {
	api := &fakeAPI{
		fetchFn:  okFetch(sampleQuote()),
		likeFn:   func(context.Context, int64) (*domain.Quote, error) { return nil, nil },
		unlikeFn: func(context.Context, int64) (*domain.Quote, error) { return nil, nil },
	}
	vm := newTestViewModel(api, &fakeStream{})

	vm.ToggleLike(context.Background())

	assert.Empty(t, api.likeCalls)
	assert.Empty(t, api.unlikeCalls)
}

func TestToggleLike_LikesUnlikedQuote(t *testing.T) {
	api := &fakeAPI{
		fetchFn: okFetch(sampleQuote()),
		likeFn: func(_ context.Context, id int64) (*domain.Quote, error) {
			return &domain.Quote{ID: id, Text: "A", Author: "B", Likes: 1, IsLiked: true}, nil
		},
	}
	vm := newTestViewModel(api, &fakeStream{})

	vm.FetchQuote(context.Background())
	vm.ToggleLike(context.Background())

	state := vm.State()
	assert.Equal(t, []int64{1}, api.likeCalls)
	assert.Empty(t, api.unlikeCalls)
	assert.True(t, state.Liked)
	assert.Equal(t, 1, state.Quote.Likes)
	assert.False(t, state.Liking)
}

func TestToggleLike_UnlikesLikedQuote(t *testing.T) {
	liked := &domain.Quote{ID: 2, Text: "A", Author: "B", Likes: 5, IsLiked: true}
	api := &fakeAPI{
		fetchFn: okFetch(liked),
		unlikeFn: func(_ context.Context, id int64) (*domain.Quote, error) {
			return &domain.Quote{ID: id, Text: "A", Author: "B", Likes: 4, IsLiked: false}, nil
		},
	}
	vm := newTestViewModel(api, &fakeStream{})

	vm.FetchQuote(context.Background())
	vm.ToggleLike(context.Background())

	state := vm.State()
	assert.Equal(t, []int64{2}, api.unlikeCalls)
	assert.Empty(t, api.likeCalls)
	assert.False(t, state.Liked)
	assert.Equal(t, 4, state.Quote.Likes)
}

func TestToggleLike_OptimisticApplyVisibleBeforeResponse(t *testing.T) {
	release := make(chan struct{})
	observed := make(chan bool, 1)

	api := &fakeAPI{
		fetchFn: okFetch(sampleQuote()),
		likeFn: func(context.Context, int64) (*domain.Quote, error) {
			<-release
			return &domain.Quote{ID: 1, Text: "A", Author: "B", Likes: 1, IsLiked: true}, nil
		},
	}
	vm := newTestViewModel(api, &fakeStream{})
	vm.FetchQuote(context.Background())

	go func() {
		vm.ToggleLike(context.Background())
		close(observed)
	}()

	// The optimistic flip lands before the network call resolves.
	require.Eventually(t, func() bool {
		return vm.State().Liked && vm.State().Liking
	}, time.Second, time.Millisecond)

	close(release)
	<-observed
	assert.True(t, vm.State().Liked)
}

func TestToggleLike_FailureRevertsAndShowsError(t *testing.T) {
	api := &fakeAPI{
		fetchFn: okFetch(sampleQuote()),
		likeFn: func(context.Context, int64) (*domain.Quote, error) {
			return nil, domain.NewAPIError("Quote not found")
		},
	}
	vm := newTestViewModel(api, &fakeStream{}, func(cfg *ViewModelConfig) {
		cfg.LikeErrorTimeout = time.Hour // keep the error visible for asserts
	})

	vm.FetchQuote(context.Background())
	vm.ToggleLike(context.Background())

	state := vm.State()
	assert.False(t, state.Liked, "optimistic flag should revert to pre-toggle value")
	assert.Equal(t, "Quote not found", state.LikeError)
	assert.False(t, state.Liking)
}

func TestToggleLike_ErrorDismissedAfterTimeout(t *testing.T) {
	api := &fakeAPI{
		fetchFn: okFetch(sampleQuote()),
		likeFn: func(context.Context, int64) (*domain.Quote, error) {
			return nil, domain.NewAPIError("Quote not found")
		},
	}
	vm := newTestViewModel(api, &fakeStream{}, func(cfg *ViewModelConfig) {
		cfg.LikeErrorTimeout = 20 * time.Millisecond
	})

	vm.FetchQuote(context.Background())
	vm.ToggleLike(context.Background())
	require.Equal(t, "Quote not found", vm.State().LikeError)

	assert.Eventually(t, func() bool {
		return vm.State().LikeError == ""
	}, time.Second, 5*time.Millisecond)
}

func TestToggleLike_NewErrorReArmsDismissal(t *testing.T) {
	calls := 0
	api := &fakeAPI{
		fetchFn: okFetch(sampleQuote()),
		likeFn: func(context.Context, int64) (*domain.Quote, error) {
			calls++
			if calls == 1 {
				return nil, domain.NewAPIError("first")
			}
			return nil, domain.NewAPIError("second")
		},
	}
	vm := newTestViewModel(api, &fakeStream{}, func(cfg *ViewModelConfig) {
		cfg.LikeErrorTimeout = 50 * time.Millisecond
	})

	vm.FetchQuote(context.Background())
	vm.ToggleLike(context.Background())
	require.Equal(t, "first", vm.State().LikeError)

	// Second failure before the first dismissal fires.
	vm.ToggleLike(context.Background())
	require.Equal(t, "second", vm.State().LikeError)

	// The fresh error clears after its own full timeout.
	assert.Eventually(t, func() bool {
		return vm.State().LikeError == ""
	}, time.Second, 5*time.Millisecond)
}

func TestToggleLike_StaleResponseDiscardedAfterNewerFetch(t *testing.T) {
	release := make(chan struct{})
	done := make(chan struct{})

	fresh := &domain.Quote{ID: 9, Text: "fresh", Author: "B", Likes: 0, IsLiked: false}
	fetches := 0

	api := &fakeAPI{
		fetchFn: func(context.Context) (*domain.Quote, error) {
			fetches++
			if fetches == 1 {
				return sampleQuote(), nil
			}
			return fresh, nil
		},
		likeFn: func(context.Context, int64) (*domain.Quote, error) {
			<-release
			return nil, domain.NewAPIError("too late")
		},
	}
	vm := newTestViewModel(api, &fakeStream{})

	vm.FetchQuote(context.Background())

	go func() {
		vm.ToggleLike(context.Background())
		close(done)
	}()

	require.Eventually(t, func() bool {
		return vm.State().Liking
	}, time.Second, time.Millisecond)

	// A newer fetch starts while the like call is still in flight.
	vm.FetchQuote(context.Background())

	close(release)
	<-done

	state := vm.State()
	assert.Equal(t, int64(9), state.Quote.ID, "fetch result must not be overwritten")
	assert.Empty(t, state.LikeError, "stale like failure must not surface")
	assert.False(t, state.Liked)
}

func TestActivate_ConnectsOnceAndFetches(t *testing.T) {
	api := &fakeAPI{fetchFn: okFetch(sampleQuote())}
	stream := &fakeStream{}
	vm := newTestViewModel(api, stream)

	vm.Activate(context.Background())
	vm.Activate(context.Background())

	assert.Equal(t, 1, stream.connects, "second activation must not resubscribe")
	assert.NotNil(t, vm.State().Quote)
}

func TestDeactivate_DisconnectsStream(t *testing.T) {
	api := &fakeAPI{fetchFn: okFetch(sampleQuote())}
	stream := &fakeStream{}
	vm := newTestViewModel(api, stream)

	vm.Activate(context.Background())
	vm.Deactivate()

	assert.Equal(t, 1, stream.disconnects)

	// A new activation cycle subscribes again.
	vm.Activate(context.Background())
	assert.Equal(t, 2, stream.connects)
}

func TestStreamQuotes_NewestFirstBoundedHistory(t *testing.T) {
	api := &fakeAPI{fetchFn: okFetch(sampleQuote())}
	stream := &fakeStream{}
	vm := newTestViewModel(api, stream, func(cfg *ViewModelConfig) {
		cfg.HistorySize = 4
	})

	vm.Activate(context.Background())

	for i := int64(2); i <= 6; i++ {
		stream.pushQuote(domain.Quote{ID: i, Text: "t", Author: "a"})
	}

	history := vm.State().LikedQuotes
	require.Len(t, history, 4)
	assert.Equal(t, int64(6), history[0].Quote.ID)
	assert.Equal(t, int64(5), history[1].Quote.ID)
	assert.Equal(t, int64(4), history[2].Quote.ID)
	assert.Equal(t, int64(3), history[3].Quote.ID, "oldest entry (id 2) must be evicted")
}

func TestStreamQuotes_EntriesGetUniqueKeys(t *testing.T) {
	api := &fakeAPI{fetchFn: okFetch(sampleQuote())}
	stream := &fakeStream{}
	vm := newTestViewModel(api, stream)

	vm.Activate(context.Background())

	// The same quote liked twice produces two distinct entries.
	stream.pushQuote(domain.Quote{ID: 7, Text: "t", Author: "a"})
	stream.pushQuote(domain.Quote{ID: 7, Text: "t", Author: "a"})

	history := vm.State().LikedQuotes
	require.Len(t, history, 2)
	assert.NotEmpty(t, history[0].Key)
	assert.NotEqual(t, history[0].Key, history[1].Key)
}

// The stream delivers an opaque failure; the view-model owns the message it
// shows, regardless of what the error carries.
func TestStreamError_SetsPersistentMessage(t *testing.T) {
	api := &fakeAPI{fetchFn: okFetch(sampleQuote())}
	stream := &fakeStream{}
	vm := newTestViewModel(api, stream)

	vm.Activate(context.Background())
	stream.pushError(errors.New("unexpected EOF"))

	assert.Equal(t, domain.StreamErrorMessage, vm.State().StreamError)
}

func TestActivate_ClearsStreamError(t *testing.T) {
	api := &fakeAPI{fetchFn: okFetch(sampleQuote())}
	stream := &fakeStream{}
	vm := newTestViewModel(api, stream)

	vm.Activate(context.Background())
	stream.pushError(errors.New("unexpected EOF"))
	require.NotEmpty(t, vm.State().StreamError)

	vm.Deactivate()
	vm.Activate(context.Background())

	assert.Empty(t, vm.State().StreamError)
}

func TestOnChange_ReceivesSnapshots(t *testing.T) {
	var mu sync.Mutex
	var snapshots []State

	api := &fakeAPI{fetchFn: okFetch(sampleQuote())}
	vm := newTestViewModel(api, &fakeStream{}, func(cfg *ViewModelConfig) {
		cfg.OnChange = func(s State) {
			mu.Lock()
			snapshots = append(snapshots, s)
			mu.Unlock()
		}
	})

	vm.FetchQuote(context.Background())

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(snapshots), 2)
	assert.True(t, snapshots[0].Fetching, "first snapshot marks the fetch in progress")
	final := snapshots[len(snapshots)-1]
	assert.False(t, final.Fetching)
	assert.NotNil(t, final.Quote)
}

func TestDeactivate_CancelsPendingDismissal(t *testing.T) {
	api := &fakeAPI{
		fetchFn: okFetch(sampleQuote()),
		likeFn: func(context.Context, int64) (*domain.Quote, error) {
			return nil, domain.NewAPIError("boom")
		},
	}
	stream := &fakeStream{}
	vm := newTestViewModel(api, stream, func(cfg *ViewModelConfig) {
		cfg.LikeErrorTimeout = 20 * time.Millisecond
	})

	vm.Activate(context.Background())
	vm.ToggleLike(context.Background())
	require.NotEmpty(t, vm.State().LikeError)

	vm.Deactivate()

	// The canceled timer must not fire against torn-down state.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, "boom", vm.State().LikeError)
}
