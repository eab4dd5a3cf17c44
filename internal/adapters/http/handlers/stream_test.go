package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amxcoding/randomquotes-client/internal/backend"
)

// newStreamServer starts a real HTTP server for the event stream; SSE needs
// a live connection, a recorder cannot model one.
func newStreamServer(t *testing.T) (*httptest.Server, *backend.Service) {
	t.Helper()

	service := backend.NewService(backend.ServiceConfig{
		Store:       backend.NewStore(testQuotes()),
		Broadcaster: backend.NewBroadcaster(),
	})

	engine := gin.New()
	NewStreamHandler(service).RegisterStreamRoutes(engine.Group("/sse/v1"))

	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)

	return server, service
}

// openStream connects to the likes stream and returns a line scanner.
func openStream(t *testing.T, server *httptest.Server) *bufio.Scanner {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/sse/v1/quotes/likes", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	return bufio.NewScanner(resp.Body)
}

// nextDataLine reads frames until a data line arrives.
func nextDataLine(t *testing.T, scanner *bufio.Scanner) string {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") {
			return strings.TrimPrefix(line, "data: ")
		}

		require.True(t, time.Now().Before(deadline), "no data line before deadline")
	}

	t.Fatalf("stream closed before a data line arrived: %v", scanner.Err())

	return ""
}

func TestStreamHandler_DeliversLikedQuotes(t *testing.T) {
	server, service := newStreamServer(t)

	scanner := openStream(t, server)

	_, err := service.LikeQuote(context.Background(), uuid.NewString(), 2)
	require.NoError(t, err)

	var quote QuoteResponse
	require.NoError(t, json.Unmarshal([]byte(nextDataLine(t, scanner)), &quote))
	assert.Equal(t, int64(2), quote.ID)
	assert.Equal(t, "Second quote", quote.Text)
	assert.Equal(t, 1, quote.Likes)
}

func TestStreamHandler_ReplaysRecentLikes(t *testing.T) {
	server, service := newStreamServer(t)

	// Likes before anyone is connected are replayed to new subscribers.
	_, err := service.LikeQuote(context.Background(), uuid.NewString(), 1)
	require.NoError(t, err)
	_, err = service.LikeQuote(context.Background(), uuid.NewString(), 3)
	require.NoError(t, err)

	scanner := openStream(t, server)

	var first QuoteResponse
	require.NoError(t, json.Unmarshal([]byte(nextDataLine(t, scanner)), &first))
	assert.Equal(t, int64(1), first.ID)

	var second QuoteResponse
	require.NoError(t, json.Unmarshal([]byte(nextDataLine(t, scanner)), &second))
	assert.Equal(t, int64(3), second.ID)
}

func TestStreamHandler_UnlikeDoesNotBroadcast(t *testing.T) {
	server, service := newStreamServer(t)

	scanner := openStream(t, server)

	visitor := uuid.NewString()
	_, err := service.LikeQuote(context.Background(), visitor, 1)
	require.NoError(t, err)
	_, err = service.UnlikeQuote(context.Background(), visitor, 1)
	require.NoError(t, err)
	_, err = service.LikeQuote(context.Background(), visitor, 2)
	require.NoError(t, err)

	var first QuoteResponse
	require.NoError(t, json.Unmarshal([]byte(nextDataLine(t, scanner)), &first))
	assert.Equal(t, int64(1), first.ID)

	// The next event is the second like; the unlike produced nothing.
	var second QuoteResponse
	require.NoError(t, json.Unmarshal([]byte(nextDataLine(t, scanner)), &second))
	assert.Equal(t, int64(2), second.ID)
}

func TestStreamHandler_SubscriberRemovedOnDisconnect(t *testing.T) {
	server, service := newStreamServer(t)

	ctx, cancel := context.WithCancel(context.Background())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/sse/v1/quotes/likes", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return service.SubscriberCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	resp.Body.Close()

	require.Eventually(t, func() bool {
		return service.SubscriberCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}
