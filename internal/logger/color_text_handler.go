package logger

import (
	"context"
	"io"
	"log/slog"
)

// ColorTextHandler decorates slog.TextHandler with ANSI-colored level markers.
type ColorTextHandler struct {
	inner slog.Handler
}

// NewColorTextHandler creates a ColorTextHandler writing to w.
func NewColorTextHandler(w io.Writer, opts *slog.HandlerOptions) *ColorTextHandler {
	return &ColorTextHandler{inner: slog.NewTextHandler(w, opts)}
}

// Enabled implements slog.Handler.
func (h *ColorTextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *ColorTextHandler) Handle(ctx context.Context, r slog.Record) error {
	r.Message = levelColor(r.Level) + r.Level.String() + "\033[0m  " + r.Message
	return h.inner.Handle(ctx, r)
}

// WithAttrs implements slog.Handler, preserving colorization on derived loggers.
func (h *ColorTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ColorTextHandler{inner: h.inner.WithAttrs(attrs)}
}

// WithGroup implements slog.Handler.
func (h *ColorTextHandler) WithGroup(name string) slog.Handler {
	return &ColorTextHandler{inner: h.inner.WithGroup(name)}
}

func levelColor(level slog.Level) string {
	switch {
	case level < slog.LevelInfo:
		return "\033[36m" // cyan
	case level < slog.LevelWarn:
		return "\033[32m" // green
	case level < slog.LevelError:
		return "\033[33m" // yellow
	default:
		return "\033[31m" // red
	}
}
