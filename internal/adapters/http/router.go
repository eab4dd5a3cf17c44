package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amxcoding/randomquotes-client/internal/adapters/http/handlers"
	"github.com/amxcoding/randomquotes-client/internal/adapters/http/middleware"
	"github.com/amxcoding/randomquotes-client/internal/platform/config"
	"github.com/amxcoding/randomquotes-client/internal/platform/telemetry"
)

// DefaultRequestTimeout is the default timeout for API requests.
const DefaultRequestTimeout = 30 * time.Second

// RouterConfig contains configuration for setting up the router.
type RouterConfig struct {
	// Logger is the structured logger for request logging.
	Logger *slog.Logger

	// AppConfig contains application configuration.
	AppConfig *config.AppConfig

	// ServerConfig carries cookie settings for visitor identity.
	ServerConfig *config.ServerConfig

	// QuoteHandler handles the quote API endpoints.
	QuoteHandler *handlers.QuoteHandler

	// StreamHandler handles the liked-quotes event stream.
	StreamHandler *handlers.StreamHandler

	// HealthHandler handles health check endpoints.
	HealthHandler *handlers.HealthHandler

	// Timeout is the default request timeout for the request/response API.
	Timeout time.Duration
}

// SetupRouter configures all routes and middleware on the Gin engine.
// Middleware is applied in the following order (first to last):
//  1. Recovery - catch panics first
//  2. Request ID - generate/extract request ID
//  3. Correlation ID - handle distributed tracing correlation
//  4. OpenTelemetry - tracing and metrics
//  5. Logging - request logging (skips health endpoints)
//
// Route groups:
//   - /-/ (internal): Health endpoints, no identity required
//   - /api/v1/ (quotes API): visitor identity + request timeout
//   - /sse/v1/ (event stream): visitor identity, no request timeout so the
//     stream can outlive any deadline
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	// Apply global middleware in order
	engine.Use(
		middleware.Recovery(cfg.Logger),
		middleware.RequestID(),
		middleware.CorrelationID(),
		telemetry.Middleware(cfg.AppConfig.Name),
		middleware.Logging(cfg.Logger),
	)

	// Register health endpoints (no identity, no timeout for probes)
	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterHealthRoutesOnEngine(engine)
	}

	identity := middleware.VisitorIdentity(middleware.IdentityConfig{
		Secure: cfg.ServerConfig != nil && cfg.ServerConfig.SecureCookies,
	})

	// Quotes API with identity and timeout
	apiV1 := engine.Group("/api/v1")
	apiV1.Use(identity)

	if cfg.Timeout > 0 {
		apiV1.Use(middleware.SimpleTimeout(cfg.Timeout))
	}

	if cfg.QuoteHandler != nil {
		cfg.QuoteHandler.RegisterQuoteRoutes(apiV1)
	}

	// Event stream with identity but never a timeout
	sseV1 := engine.Group("/sse/v1")
	sseV1.Use(identity)

	if cfg.StreamHandler != nil {
		cfg.StreamHandler.RegisterStreamRoutes(sseV1)
	}
}

// SetupMinimalRouter sets up a minimal router with just health endpoints.
// Useful for testing or lightweight deployments.
func SetupMinimalRouter(engine *gin.Engine, logger *slog.Logger, healthHandler *handlers.HealthHandler) {
	engine.Use(
		middleware.Recovery(logger),
		middleware.RequestID(),
	)

	if healthHandler != nil {
		healthHandler.RegisterHealthRoutesOnEngine(engine)
	}
}

// NewDefaultRouterConfig creates a RouterConfig with sensible defaults.
func NewDefaultRouterConfig(
	logger *slog.Logger,
	appCfg *config.AppConfig,
	serverCfg *config.ServerConfig,
	quoteHandler *handlers.QuoteHandler,
	streamHandler *handlers.StreamHandler,
	healthHandler *handlers.HealthHandler,
) RouterConfig {
	return RouterConfig{
		Logger:        logger,
		AppConfig:     appCfg,
		ServerConfig:  serverCfg,
		QuoteHandler:  quoteHandler,
		StreamHandler: streamHandler,
		HealthHandler: healthHandler,
		Timeout:       DefaultRequestTimeout,
	}
}
