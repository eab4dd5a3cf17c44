package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/amxcoding/randomquotes-client/internal/adapters/http/dto"
	"github.com/amxcoding/randomquotes-client/internal/adapters/http/middleware"
	"github.com/amxcoding/randomquotes-client/internal/backend"
	"github.com/amxcoding/randomquotes-client/internal/domain"
)

// QuoteHandler handles quote-related HTTP endpoints.
type QuoteHandler struct {
	service *backend.Service
}

// NewQuoteHandler creates a new quote handler.
func NewQuoteHandler(service *backend.Service) *QuoteHandler {
	return &QuoteHandler{
		service: service,
	}
}

// QuoteResponse is the HTTP response structure for a quote.
type QuoteResponse struct {
	ID      int64  `json:"id"`
	Text    string `json:"text"`
	Author  string `json:"author"`
	Likes   int    `json:"likes"`
	IsLiked bool   `json:"isLiked"`
}

// toQuoteResponse converts a domain Quote to an HTTP response.
func toQuoteResponse(q domain.Quote) QuoteResponse {
	return QuoteResponse{
		ID:      q.ID,
		Text:    q.Text,
		Author:  q.Author,
		Likes:   q.Likes,
		IsLiked: q.IsLiked,
	}
}

// GetRandomQuote handles GET /api/v1/quotes/random
// Returns a random quote with like state for the current visitor.
func (h *QuoteHandler) GetRandomQuote(c *gin.Context) {
	quote := h.service.RandomQuote(c.Request.Context(), middleware.VisitorID(c))

	c.JSON(http.StatusOK, toQuoteResponse(quote))
}

// LikeQuote handles GET /api/v1/quotes/:id/like
// Marks the quote as liked by the current visitor and returns the updated
// quote. Liking an already-liked quote is a no-op.
func (h *QuoteHandler) LikeQuote(c *gin.Context) {
	id, ok := quoteID(c)
	if !ok {
		return
	}

	quote, err := h.service.LikeQuote(c.Request.Context(), middleware.VisitorID(c), id)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toQuoteResponse(quote))
}

// UnlikeQuote handles DELETE /api/v1/quotes/:id/like
// Removes the current visitor's like and returns the updated quote.
func (h *QuoteHandler) UnlikeQuote(c *gin.Context) {
	id, ok := quoteID(c)
	if !ok {
		return
	}

	quote, err := h.service.UnlikeQuote(c.Request.Context(), middleware.VisitorID(c), id)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toQuoteResponse(quote))
}

// ListQuotes handles GET /api/v1/quotes
// Returns a cursor-paginated listing of all quotes.
func (h *QuoteHandler) ListQuotes(c *gin.Context) {
	var page dto.PaginationRequest

	err := dto.BindQueryAndValidate(c, &page)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	offset, err := offsetFromCursor(&page)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	limit := page.GetLimit()

	// Fetch one extra row so the paginator can tell whether more follow.
	quotes, _ := h.service.ListQuotes(c.Request.Context(), middleware.VisitorID(c), offset, limit+1)

	items := make([]QuoteResponse, 0, len(quotes))
	for _, q := range quotes {
		items = append(items, toQuoteResponse(q))
	}

	next := offset + limit

	resp := dto.NewPaginatedResponse(items, limit, func(QuoteResponse) *dto.CursorData {
		return dto.NewCursor("offset", strconv.Itoa(next), "")
	})

	c.JSON(http.StatusOK, resp)
}

// offsetFromCursor decodes the opaque cursor back into a list offset.
// No cursor means the first page.
func offsetFromCursor(page *dto.PaginationRequest) (int, error) {
	cursor, err := page.DecodeCursor()
	if err != nil {
		if errors.Is(err, dto.ErrNoCursor) {
			return 0, nil
		}

		return 0, err
	}

	offset, err := strconv.Atoi(cursor.Value)
	if err != nil || offset < 0 {
		return 0, dto.ErrInvalidCursor
	}

	return offset, nil
}

// quoteID parses the :id path parameter, responding with 404 when it is not
// a valid quote identifier. Unparseable IDs cannot name any quote, so they
// read the same as a missing one.
func quoteID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		dto.HandleError(c, backend.ErrQuoteNotFound)
		return 0, false
	}

	return id, true
}

// RegisterQuoteRoutes registers quote routes on the given router group.
func (h *QuoteHandler) RegisterQuoteRoutes(rg *gin.RouterGroup) {
	quotes := rg.Group("/quotes")
	quotes.GET("", h.ListQuotes)
	quotes.GET("/random", h.GetRandomQuote)
	quotes.GET("/:id/like", h.LikeQuote)
	quotes.DELETE("/:id/like", h.UnlikeQuote)
}
