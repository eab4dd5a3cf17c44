// Package main is the entry point for quotesd, the quotes backend the
// client talks to. It serves the request/response quote API and the
// liked-quotes event stream from an in-memory store.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amxcoding/randomquotes-client/internal/adapters/http"
	"github.com/amxcoding/randomquotes-client/internal/adapters/http/handlers"
	"github.com/amxcoding/randomquotes-client/internal/backend"
	"github.com/amxcoding/randomquotes-client/internal/platform/config"
	"github.com/amxcoding/randomquotes-client/internal/platform/logging"
	"github.com/amxcoding/randomquotes-client/internal/platform/telemetry"
	"github.com/amxcoding/randomquotes-client/internal/ports"
)

// Build-time variables, injected via ldflags.
// Example: go build -ldflags "-X main.Version=1.0.0 -X main.Commit=$(git rev-parse HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	// Version is the semantic version of the backend.
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "unknown"

	// BuildTime is the timestamp when the binary was built.
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// 1. Determine profile from environment
	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	// 2. Load and validate configuration (fail fast)
	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// 3. Initialize logging
	logger := logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: "quotesd",
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	slog.SetDefault(logger)

	logger.Info("starting quotesd",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
	)

	// 4. Initialize telemetry (noop if disabled)
	telProvider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		if shutdownErr := telProvider.Shutdown(ctx); shutdownErr != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	// 5. Create health registry
	healthRegistry := ports.NewHealthRegistry()

	// 6. Create the backend: store, broadcaster, service
	store := backend.NewStore(nil) // nil seed uses the built-in corpus
	broadcaster := backend.NewBroadcaster()
	service := backend.NewService(backend.ServiceConfig{
		Store:       store,
		Broadcaster: broadcaster,
		Logger:      logger,
	})

	// 7. Create handlers
	buildInfo := handlers.NewBuildInfo(Version, Commit, BuildTime)
	healthHandler := handlers.NewHealthHandler(healthRegistry, buildInfo)
	quoteHandler := handlers.NewQuoteHandler(service)
	streamHandler := handlers.NewStreamHandler(service)

	// 8. Create HTTP server
	server := http.New(&cfg.Server, logger)

	// 9. Setup router with all middleware and routes
	routerCfg := http.NewDefaultRouterConfig(
		logger,
		&cfg.App,
		&cfg.Server,
		quoteHandler,
		streamHandler,
		healthHandler,
	)
	http.SetupRouter(server.Engine(), routerCfg)

	// 10. Start server (non-blocking)
	serverErr := server.Start()

	logger.Info("quotesd listening", slog.String("addr", server.Addr()))

	// 11. Wait for shutdown signal
	return waitForShutdown(ctx, logger, server, serverErr, cfg.Server.ShutdownTimeout)
}

// waitForShutdown blocks until a shutdown signal is received or server error occurs.
// It then performs graceful shutdown of the HTTP server.
func waitForShutdown(
	ctx context.Context,
	logger *slog.Logger,
	server *http.Server,
	serverErr <-chan error,
	shutdownTimeout time.Duration,
) error {
	// Listen for OS signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		// Server error during startup or runtime
		return fmt.Errorf("server error: %w", err)

	case sig := <-quit:
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
	}

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	logger.Info("initiating graceful shutdown",
		slog.Duration("timeout", shutdownTimeout),
	)

	// Stop accepting new requests, drain in-flight. Open event streams end
	// when their clients observe the connection close.
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("shutdown complete")

	return nil
}
