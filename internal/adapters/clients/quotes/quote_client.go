// Package quotes adapts the quotes backend HTTP API to the domain.
// It translates transport-level failures and error response bodies into the
// single user-facing APIError shape, protecting the application layer from
// wire details.
package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/amxcoding/randomquotes-client/internal/adapters/clients"
	"github.com/amxcoding/randomquotes-client/internal/domain"
)

// ClientConfig contains configuration for the quote API adapter.
type ClientConfig struct {
	// Client is the HTTP client to use for requests.
	// The client's BaseURL should point at the quotes API root.
	Client *clients.Client

	// Logger is the structured logger.
	Logger *slog.Logger
}

// Client implements ports.QuoteAPI against the quotes backend.
type Client struct {
	client *clients.Client
	logger *slog.Logger
}

// NewClient creates a new quote API adapter.
// Panics if Client is nil. Defaults logger to slog.Default() if nil.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Client == nil {
		panic("quotes.Client: Client is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		client: cfg.Client,
		logger: logger,
	}
}

// errorBody is the error response envelope from the backend.
// Internal to the adapter - never exposed to callers.
type errorBody struct {
	Message string `json:"message"`
}

// FetchRandomQuote fetches a random quote with the caller's like status.
// Implements ports.QuoteAPI.
func (c *Client) FetchRandomQuote(ctx context.Context) (*domain.Quote, error) {
	const path = "/quotes/random"
	c.logger.DebugContext(ctx, "fetching random quote")

	resp, err := c.client.Get(ctx, path)
	if err != nil {
		c.logger.WarnContext(ctx, "fetch request failed", slog.Any("error", err))
		return nil, domain.NewAPIError(domain.DefaultErrorMessage)
	}
	defer func() { _ = resp.Body.Close() }()

	if !isSuccess(resp.StatusCode) {
		return nil, c.errorFromResponse(resp, domain.FetchErrorMessage)
	}

	return c.parseQuote(ctx, resp.Body)
}

// LikeQuote records a like for the quote. Implements ports.QuoteAPI.
func (c *Client) LikeQuote(ctx context.Context, id int64) (*domain.Quote, error) {
	return c.updateLike(ctx, http.MethodGet, id)
}

// UnlikeQuote removes the caller's like. Implements ports.QuoteAPI.
func (c *Client) UnlikeQuote(ctx context.Context, id int64) (*domain.Quote, error) {
	return c.updateLike(ctx, http.MethodDelete, id)
}

// updateLike drives both like and unlike; the two operations differ only in
// HTTP verb on the same resource.
func (c *Client) updateLike(ctx context.Context, method string, id int64) (*domain.Quote, error) {
	path := "/quotes/" + strconv.FormatInt(id, 10) + "/like"
	c.logger.DebugContext(ctx, "updating like status",
		slog.String("method", method),
		slog.Int64("quote_id", id))

	var resp *http.Response
	var err error
	if method == http.MethodDelete {
		resp, err = c.client.Delete(ctx, path)
	} else {
		resp, err = c.client.Get(ctx, path)
	}

	if err != nil {
		c.logger.WarnContext(ctx, "like update request failed",
			slog.Int64("quote_id", id),
			slog.Any("error", err))
		return nil, domain.NewAPIError(domain.DefaultErrorMessage)
	}
	defer func() { _ = resp.Body.Close() }()

	if !isSuccess(resp.StatusCode) {
		return nil, c.errorFromResponse(resp, domain.UpdateErrorMessage)
	}

	return c.parseQuote(ctx, resp.Body)
}

// parseQuote decodes the response body into a domain Quote.
func (c *Client) parseQuote(ctx context.Context, body io.Reader) (*domain.Quote, error) {
	var quote domain.Quote

	if err := json.NewDecoder(body).Decode(&quote); err != nil {
		c.logger.WarnContext(ctx, "malformed quote response", slog.Any("error", err))
		return nil, domain.NewAPIError(domain.DefaultErrorMessage)
	}

	return &quote, nil
}

// errorFromResponse builds the APIError for a non-2xx response. The backend's
// message is used when the body parses as an error envelope; an envelope
// without a message gets the operation-specific fallback. A body that is not
// the envelope at all (HTML error page, empty body, truncated JSON) carries
// nothing user-displayable, so the generic default applies instead.
func (c *Client) errorFromResponse(resp *http.Response, fallback string) error {
	raw, _ := io.ReadAll(resp.Body)

	c.logger.Warn("quote API error",
		slog.Int("status_code", resp.StatusCode),
		slog.String("body", string(raw)),
	)

	var envelope errorBody
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return domain.NewAPIError(domain.DefaultErrorMessage)
	}

	message := envelope.Message
	if message == "" {
		message = fallback
	}

	return domain.NewAPIErrorWithStatus(message, resp.StatusCode)
}

// isSuccess reports whether the status code is in the 2xx range.
func isSuccess(status int) bool {
	return status >= http.StatusOK && status < http.StatusMultipleChoices
}

// Name returns the health check name for this client.
// Implements ports.HealthChecker.
func (c *Client) Name() string {
	return "quote-api"
}

// Check performs a health check by fetching a random quote.
// Implements ports.HealthChecker.
func (c *Client) Check(ctx context.Context) error {
	resp, err := c.client.Get(ctx, "/quotes/random")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("quote API returned status %d", resp.StatusCode)
	}

	return nil
}
