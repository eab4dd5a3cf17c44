// Package logging provides structured logging using Go's slog package.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LevelTrace is a custom level below slog.LevelDebug for very verbose output.
const LevelTrace = slog.Level(-8)

// Config holds logging configuration.
type Config struct {
	Level   string // trace, debug, info, warn, error
	Format  string // json, text, pretty
	Service string // service name for default attrs
	Version string // service version for default attrs
	File    FileConfig
}

// FileConfig holds optional rolling file output settings.
type FileConfig struct {
	Enabled    bool
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// New creates a new configured slog.Logger. Output goes to stdout, plus a
// rolling file when Config.File is enabled.
func New(cfg *Config) *slog.Logger {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter creates a new configured slog.Logger with a custom writer.
// Includes secret redaction by default, see redact.go.
func NewWithWriter(cfg *Config, w io.Writer) *slog.Logger {
	level := parseLevel(cfg.Level)
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: NewReplaceAttr(),
	}

	handler := newFormatHandler(cfg.Format, w, opts, level)

	if cfg.File.Enabled && cfg.File.Path != "" {
		fileWriter := &lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSizeMB,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAgeDays,
			Compress:   cfg.File.Compress,
		}
		// Files always get JSON regardless of the terminal format.
		fileHandler := slog.NewJSONHandler(fileWriter, opts)
		handler = NewMultiHandler(handler, fileHandler)
	}

	// Add default attributes
	logger := slog.New(handler).With(
		slog.String("service_name", cfg.Service),
		slog.String("service_version", cfg.Version),
	)

	return logger
}

// newFormatHandler selects the terminal handler for the configured format.
func newFormatHandler(format string, w io.Writer, opts *slog.HandlerOptions, level slog.Level) slog.Handler {
	switch strings.ToLower(format) {
	case "text":
		return slog.NewTextHandler(w, opts)
	case "pretty":
		return charmlog.NewWithOptions(w, charmlog.Options{
			Level:           slogToCharmLevel(level),
			ReportTimestamp: true,
		})
	default:
		return slog.NewJSONHandler(w, opts)
	}
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// slogToCharmLevel maps an slog.Level to the charmbracelet equivalent.
// Charm has no trace level, so trace collapses into debug.
func slogToCharmLevel(level slog.Level) charmlog.Level {
	switch {
	case level <= slog.LevelDebug:
		return charmlog.DebugLevel
	case level <= slog.LevelInfo:
		return charmlog.InfoLevel
	case level <= slog.LevelWarn:
		return charmlog.WarnLevel
	default:
		return charmlog.ErrorLevel
	}
}
