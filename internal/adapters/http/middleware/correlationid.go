package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/amxcoding/randomquotes-client/internal/platform/logging"
)

const (
	// HeaderCorrelationID tracks one business transaction across services,
	// as opposed to the per-hop request id.
	HeaderCorrelationID = "X-Correlation-ID"

	// ContextKeyCorrelationID is the gin context key for the correlation id.
	ContextKeyCorrelationID = "correlation_id"
)

// CorrelationID propagates the X-Correlation-ID header, minting a UUID
// when this service is the transaction origin. The id is echoed on the
// response and attached to the context logger.
func CorrelationID() gin.HandlerFunc {
	return createIDMiddleware(idMiddlewareConfig{
		headerName:      HeaderCorrelationID,
		contextKey:      ContextKeyCorrelationID,
		contextEnricher: logging.WithCorrelationID,
	})
}

// GetCorrelationID reads the correlation id from the gin context, "" when unset.
func GetCorrelationID(c *gin.Context) string {
	return getIDFromContext(c, ContextKeyCorrelationID)
}

// MustGetCorrelationID is GetCorrelationID with "unknown" instead of "".
func MustGetCorrelationID(c *gin.Context) string {
	if id := GetCorrelationID(c); id != "" {
		return id
	}

	return "unknown"
}
