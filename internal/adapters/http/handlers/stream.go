package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amxcoding/randomquotes-client/internal/backend"
	"github.com/amxcoding/randomquotes-client/internal/platform/logging"
)

// heartbeatInterval is how often an SSE comment is written to keep
// intermediaries from reaping an idle stream.
const heartbeatInterval = 15 * time.Second

// StreamHandler serves the liked-quotes event stream.
type StreamHandler struct {
	service *backend.Service
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(service *backend.Service) *StreamHandler {
	return &StreamHandler{
		service: service,
	}
}

// LikedQuotes handles GET /sse/v1/quotes/likes
// Holds the connection open and pushes every liked quote as a server-sent
// event with a JSON quote payload. New subscribers first receive a replay
// of the most recent likes. The stream ends when the client disconnects or
// the server shuts down.
func (h *StreamHandler) LikedQuotes(c *gin.Context) {
	logger := logging.FromContext(c.Request.Context())

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	// The server's write timeout would sever a healthy stream; lift it for
	// the lifetime of this connection only.
	rc := http.NewResponseController(c.Writer)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		logger.Debug("clearing write deadline", slog.Any("error", err))
	}

	events, cancel := h.service.Subscribe()
	defer cancel()

	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	ctx := c.Request.Context()

	for {
		select {
		case <-ctx.Done():
			return

		case <-heartbeat.C:
			if _, err := fmt.Fprint(c.Writer, ": keep-alive\n\n"); err != nil {
				return
			}

			flusher.Flush()

		case quote, open := <-events:
			if !open {
				return
			}

			payload, err := json.Marshal(toQuoteResponse(quote))
			if err != nil {
				logger.Error("encoding stream event", slog.Any("error", err))
				continue
			}

			if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", payload); err != nil {
				return
			}

			flusher.Flush()
		}
	}
}

// RegisterStreamRoutes registers stream routes on the given router group.
func (h *StreamHandler) RegisterStreamRoutes(rg *gin.RouterGroup) {
	rg.GET("/quotes/likes", h.LikedQuotes)
}
