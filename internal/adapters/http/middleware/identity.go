package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// VisitorCookieName is the cookie carrying the anonymous visitor ID.
	VisitorCookieName = "user_id"

	// ContextKeyVisitorID is the gin context key for the visitor ID.
	ContextKeyVisitorID = "visitor_id"

	// visitorCookieMaxAge keeps the anonymous identity for a year.
	visitorCookieMaxAge = 365 * 24 * 60 * 60
)

// IdentityConfig configures the visitor identity cookie.
type IdentityConfig struct {
	// Secure marks the cookie Secure; enable behind TLS.
	Secure bool
}

// VisitorIdentity returns middleware that assigns every caller a stable
// anonymous identity. Likes are tracked per visitor, not per account, so
// there is no login: the first request mints a random UUID and sets it as
// an HttpOnly cookie, subsequent requests present it back.
//
// A cookie that does not parse as a UUID is replaced rather than rejected;
// the caller just starts over with a fresh identity.
func VisitorIdentity(cfg IdentityConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		visitorID := visitorFromCookie(c)

		if visitorID == "" {
			visitorID = uuid.NewString()
			setVisitorCookie(c, visitorID, cfg.Secure)
		}

		c.Set(ContextKeyVisitorID, visitorID)
		c.Next()
	}
}

// VisitorID returns the visitor ID from the gin context.
// Empty when VisitorIdentity did not run.
func VisitorID(c *gin.Context) string {
	if v, exists := c.Get(ContextKeyVisitorID); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}

	return ""
}

// visitorFromCookie reads and validates the visitor cookie.
func visitorFromCookie(c *gin.Context) string {
	value, err := c.Cookie(VisitorCookieName)
	if err != nil {
		return ""
	}

	if _, err := uuid.Parse(value); err != nil {
		return ""
	}

	return value
}

// setVisitorCookie writes the visitor cookie on the response.
func setVisitorCookie(c *gin.Context, visitorID string, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(VisitorCookieName, visitorID, visitorCookieMaxAge, "/", "", secure, true)
}
