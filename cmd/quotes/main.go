// Package main is the entry point for the interactive quotes client.
// It wires the quote API and likes stream adapters into the view-model
// and drives it from terminal input.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/amxcoding/randomquotes-client/internal/adapters/clients"
	"github.com/amxcoding/randomquotes-client/internal/adapters/clients/quotes"
	"github.com/amxcoding/randomquotes-client/internal/adapters/tui"
	"github.com/amxcoding/randomquotes-client/internal/app"
	"github.com/amxcoding/randomquotes-client/internal/platform/config"
	"github.com/amxcoding/randomquotes-client/internal/platform/logging"
	"github.com/amxcoding/randomquotes-client/internal/platform/telemetry"
)

// Build-time variables, injected via ldflags.
var (
	// Version is the semantic version of the client.
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// The terminal belongs to the presenter, so console logging is
	// discarded. The rolling file output still applies when enabled.
	logger := logging.NewWithWriter(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: "quotes",
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	}, io.Discard)
	slog.SetDefault(logger)

	logger.Info("starting quotes client",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("backend", cfg.Services.QuoteAPI.BaseURL),
	)

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

	httpClient, err := clients.New(&clients.Config{
		BaseURL:     cfg.Services.QuoteAPI.BaseURL,
		ServiceName: cfg.Services.QuoteAPI.Name,
		Timeout:     cfg.Client.Timeout,
		Retry:       cfg.Client.Retry,
		Circuit:     cfg.Client.CircuitBreaker,
		Transport:   cfg.Client.Transport,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("creating HTTP client: %w", err)
	}

	api := quotes.NewClient(quotes.ClientConfig{
		Client: httpClient,
		Logger: logger,
	})

	stream := quotes.NewStream(quotes.StreamConfig{
		Client: httpClient,
		URL:    strings.TrimSuffix(cfg.Services.QuoteAPI.StreamURL, "/") + "/quotes/likes",
		Logger: logger,
	})

	presenter := tui.NewPresenter(os.Stdout)

	vm := app.NewViewModel(app.ViewModelConfig{
		API:              api,
		Stream:           stream,
		HistorySize:      cfg.UI.HistorySize,
		LikeErrorTimeout: cfg.UI.LikeErrorTimeout,
		OnChange:         presenter.Render,
		Logger:           logger,
	})

	presenter.RenderHelp()
	vm.Activate(ctx)
	defer vm.Deactivate()

	return inputLoop(ctx, vm, presenter, os.Stdin)
}

// inputLoop reads commands until quit, EOF, or an interrupt signal.
func inputLoop(ctx context.Context, vm *app.ViewModel, presenter *tui.Presenter, in io.Reader) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-quit:
			return nil

		case line, ok := <-lines:
			if !ok {
				return nil
			}

			switch tui.ParseCommand(line) {
			case tui.CommandFetch:
				vm.FetchQuote(ctx)
			case tui.CommandToggleLike:
				vm.ToggleLike(ctx)
			case tui.CommandHelp:
				presenter.RenderHelp()
			case tui.CommandQuit:
				return nil
			case tui.CommandUnknown:
				presenter.RenderHelp()
			}
		}
	}
}
