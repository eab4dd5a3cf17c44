// Package http provides the HTTP adapter layer using Gin.
package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amxcoding/randomquotes-client/internal/platform/config"
)

// Server wraps http.Server around a gin engine with graceful shutdown.
// The WriteTimeout configured here applies to the API routes; the SSE
// handler lifts it per connection.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	config     *config.ServerConfig
	logger     *slog.Logger
}

// New builds the server. The body-size cap is installed before any other
// middleware so oversized requests die early.
func New(cfg *config.ServerConfig, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(maxBodySize(cfg.MaxRequestSize))

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &Server{
		engine:     engine,
		httpServer: httpServer,
		config:     cfg,
		logger:     logger,
	}
}

// Engine exposes the gin engine for route registration.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Config returns the server configuration.
func (s *Server) Config() *config.ServerConfig {
	return s.config
}

// Start serves in the background and reports fatal listener errors on the
// returned channel, which closes when the listener exits.
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("starting HTTP server",
			slog.String("addr", s.httpServer.Addr),
			slog.Duration("read_timeout", s.config.ReadTimeout),
			slog.Duration("write_timeout", s.config.WriteTimeout),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}

		close(errCh)
	}()

	return errCh
}

// Shutdown drains active connections, bounded by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	s.logger.Info("HTTP server stopped")

	return nil
}

// Addr returns the listening address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

func maxBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
