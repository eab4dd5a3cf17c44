package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// idMiddlewareConfig parameterizes the shared id middleware: which header
// to read and echo, which gin key to store under, and how to enrich the
// request context.
type idMiddlewareConfig struct {
	headerName      string
	contextKey      string
	contextEnricher func(ctx context.Context, id string) context.Context
}

// createIDMiddleware backs both the request-id and correlation-id
// middleware. An incoming header value is reused; otherwise a fresh UUID
// is minted. Either way the id lands in the gin context, the response
// header, and (via the enricher) the request context.
func createIDMiddleware(cfg idMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(cfg.headerName)
		if id == "" {
			id = uuid.New().String()
		}

		c.Set(cfg.contextKey, id)
		c.Header(cfg.headerName, id)

		if cfg.contextEnricher != nil {
			c.Request = c.Request.WithContext(cfg.contextEnricher(c.Request.Context(), id))
		}

		c.Next()
	}
}

// getIDFromContext reads a string id out of the gin context.
func getIDFromContext(c *gin.Context, key string) string {
	if id, exists := c.Get(key); exists {
		if s, ok := id.(string); ok {
			return s
		}
	}

	return ""
}
