package dto

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

const (
	// DefaultLimit applies when the request names no page size.
	DefaultLimit = 20

	// MaxLimit caps the page size regardless of what was asked for.
	MaxLimit = 100
)

var (
	// ErrInvalidCursor is returned when a cursor fails to decode.
	ErrInvalidCursor = errors.New("invalid cursor")

	// ErrNoCursor signals a first-page request, not a failure.
	ErrNoCursor = errors.New("no cursor provided")
)

// PaginationRequest carries the cursor and limit query parameters.
type PaginationRequest struct {
	// Cursor is the opaque NextCursor from a previous page.
	Cursor string `form:"cursor"`

	Limit int `form:"limit" validate:"omitempty,gte=1,lte=100"`
}

// GetLimit clamps the requested limit into [1, MaxLimit], defaulting when unset.
func (p *PaginationRequest) GetLimit() int {
	switch {
	case p.Limit <= 0:
		return DefaultLimit
	case p.Limit > MaxLimit:
		return MaxLimit
	default:
		return p.Limit
	}
}

// DecodeCursor unwraps the request cursor. ErrNoCursor means first page.
func (p *PaginationRequest) DecodeCursor() (*CursorData, error) {
	if p.Cursor == "" {
		return nil, ErrNoCursor
	}

	return DecodeCursor(p.Cursor)
}

// PaginatedResponse is one page of the quote listing.
type PaginatedResponse[T any] struct {
	Items []T `json:"items"`

	// NextCursor is empty on the last page.
	NextCursor string `json:"nextCursor,omitempty"`

	HasMore bool `json:"hasMore"`
}

// NewPaginatedResponse builds a page from limit+1 fetched items: the extra
// item, when present, proves another page exists and is trimmed off.
func NewPaginatedResponse[T any](items []T, limit int, cursorBuilder func(T) *CursorData) *PaginatedResponse[T] {
	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var nextCursor string

	if hasMore && len(items) > 0 && cursorBuilder != nil {
		nextCursor = EncodeCursor(cursorBuilder(items[len(items)-1]))
	}

	return &PaginatedResponse[T]{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}
}

// EmptyPaginatedResponse is the page for an empty result set.
func EmptyPaginatedResponse[T any]() *PaginatedResponse[T] {
	return &PaginatedResponse[T]{Items: []T{}, HasMore: false}
}

// CursorData is the decoded form of a pagination cursor: the sort field,
// the boundary value, and an id for tie-breaking.
type CursorData struct {
	Field string `json:"f"`
	Value string `json:"v"`
	ID    string `json:"id"`
}

// NewCursor builds cursor data from its three parts.
func NewCursor(field, value, id string) *CursorData {
	return &CursorData{Field: field, Value: value, ID: id}
}

// EncodeCursor renders cursor data as an opaque base64url token.
func EncodeCursor(data *CursorData) string {
	if data == nil {
		return ""
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return ""
	}

	return base64.URLEncoding.EncodeToString(raw)
}

// DecodeCursor parses a cursor token. Empty input maps to ErrNoCursor,
// any malformed input to ErrInvalidCursor.
func DecodeCursor(encoded string) (*CursorData, error) {
	if encoded == "" {
		return nil, ErrNoCursor
	}

	raw, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	var data CursorData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, ErrInvalidCursor
	}

	return &data, nil
}
