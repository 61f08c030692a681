package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Default rotation settings, lumberjack semantics.
const (
	DefaultMaxSizeMB  = 10 // MB
	DefaultMaxBackups = 3  // number of backup files
	DefaultMaxAgeDays = 7  // days
)

// Config describes the service log destination. Console output always goes to
// stderr; when File is set the same records are mirrored into a rotating file.
type Config struct {
	Level     string     // debug|info|warn|error (default info)
	Format    string     // text|json (default text)
	Color     bool       // colorize console level markers (text format only)
	AddSource bool       // include source file:line
	File      FileConfig // optional rotating file mirror
}

// FileConfig configures the rotating file mirror.
type FileConfig struct {
	Path       string // empty disables the file mirror
	MaxSizeMB  int    // megabytes before rotation (default 10)
	MaxBackups int    // number of backups to keep (default 3)
	MaxAgeDays int    // days to keep (default 7)
	Compress   bool   // gzip rotated files
}

// NewSlogger builds a *slog.Logger from the config. It never fails: a zero
// Config yields an info-level text logger on stderr.
func (c Config) NewSlogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     ParseLevel(c.Level),
		AddSource: c.AddSource,
	}

	var w io.Writer = os.Stderr
	if c.File.Path != "" {
		w = io.MultiWriter(os.Stderr, c.File.writer())
	}

	var h slog.Handler
	switch strings.ToLower(c.Format) {
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		if c.Color {
			h = NewColorTextHandler(w, opts)
		} else {
			h = slog.NewTextHandler(w, opts)
		}
	}
	return slog.New(h)
}

func (f FileConfig) writer() io.Writer {
	return &lj.Logger{
		Filename:   f.Path,
		MaxSize:    valOr(f.MaxSizeMB, DefaultMaxSizeMB),
		MaxBackups: valOr(f.MaxBackups, DefaultMaxBackups),
		MaxAge:     valOr(f.MaxAgeDays, DefaultMaxAgeDays),
		Compress:   f.Compress,
	}
}

// ParseLevel maps a config string to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func valOr(v int, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
