package logging

import (
	"context"
	"errors"
	"log/slog"
)

// MultiHandler fans one record out to several slog handlers, so a record
// can hit the terminal in pretty form and the rolling file as JSON at the
// same time.
type MultiHandler struct {
	handlers []slog.Handler
}

// NewMultiHandler wraps the given handlers into one.
func NewMultiHandler(handlers ...slog.Handler) *MultiHandler {
	return &MultiHandler{handlers: handlers}
}

// Enabled is true when at least one wrapped handler accepts the level.
func (h *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle delivers the record to every handler that accepts its level.
// Errors are collected rather than short-circuiting, so one failing sink
// cannot silence the others.
func (h *MultiHandler) Handle(ctx context.Context, r slog.Record) error { //nolint:gocritic // slog.Handler interface requires value
	var errs []error
	for _, handler := range h.handlers {
		if !handler.Enabled(ctx, r.Level) {
			continue
		}
		if err := handler.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WithAttrs applies the attributes to every wrapped handler.
func (h *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	wrapped := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		wrapped[i] = handler.WithAttrs(attrs)
	}
	return NewMultiHandler(wrapped...)
}

// WithGroup applies the group to every wrapped handler.
func (h *MultiHandler) WithGroup(name string) slog.Handler {
	wrapped := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		wrapped[i] = handler.WithGroup(name)
	}
	return NewMultiHandler(wrapped...)
}
