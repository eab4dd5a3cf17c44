package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/amxcoding/randomquotes-client/internal/platform/logging"
)

const (
	// HeaderRequestID carries the per-request id in and out.
	HeaderRequestID = "X-Request-ID"

	// ContextKeyRequestID is the gin context key for the request id.
	ContextKeyRequestID = "request_id"
)

// RequestID assigns every request an id: the X-Request-ID header when the
// caller sent one, a fresh UUID otherwise. The id is echoed on the
// response and attached to the context logger.
func RequestID() gin.HandlerFunc {
	return createIDMiddleware(idMiddlewareConfig{
		headerName:      HeaderRequestID,
		contextKey:      ContextKeyRequestID,
		contextEnricher: logging.WithRequestID,
	})
}

// GetRequestID reads the request id from the gin context, "" when unset.
func GetRequestID(c *gin.Context) string {
	return getIDFromContext(c, ContextKeyRequestID)
}

// MustGetRequestID is GetRequestID with "unknown" instead of "".
func MustGetRequestID(c *gin.Context) string {
	if id := GetRequestID(c); id != "" {
		return id
	}

	return "unknown"
}
