// Package domain contains core business entities and rules.
package domain

// Quote represents one quotation as served by the backend.
// Instances are created from server responses; the client never builds
// one locally except as a display artifact for streamed events.
type Quote struct {
	// ID is the server-assigned identifier, immutable for the quote's lifetime.
	ID int64 `json:"id"`

	// Text is the quotation itself.
	Text string `json:"text"`

	// Author is who said or wrote the quote.
	Author string `json:"author"`

	// Likes is the total like count across all users, never negative.
	Likes int `json:"likes"`

	// IsLiked reports whether the current (anonymous) user has liked this quote.
	IsLiked bool `json:"isLiked"`
}

// LikedQuote wraps a Quote delivered over the likes stream with a
// client-generated key. The key only gives list renderings a stable
// identity; it carries no server meaning.
type LikedQuote struct {
	Key   string
	Quote Quote
}
