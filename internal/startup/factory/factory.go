package factory

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/9renpoto/time-wise/internal/startup"
	pg "github.com/9renpoto/time-wise/internal/startup/postgres"
	sq "github.com/9renpoto/time-wise/internal/startup/sqlite"
)

// NewFromDSN selects a startup store implementation based on DSN.
// Supported:
//   - sqlite:  "sqlite://<path>" or bare filepath (treated as sqlite)
//   - postgres: DSN starting with "postgres://" or "postgresql://"
func NewFromDSN(dsn string) (startup.Store, error) {
	d := strings.TrimSpace(dsn)
	ld := strings.ToLower(d)
	if ld == "" {
		return nil, errors.New("empty DSN")
	}
	if strings.HasPrefix(ld, "postgres://") || strings.HasPrefix(ld, "postgresql://") {
		return pg.New(d)
	}
	if strings.HasPrefix(ld, "sqlite://") {
		path := strings.TrimPrefix(d, "sqlite://")
		return sq.New(path)
	}
	// default to sqlite path
	return sq.New(d)
}

// Open creates the store for dsn and ensures its schema. When the
// backing store cannot be opened or migrated, it degrades to an
// in-memory store so startup recording stays available; only a failure
// to build the in-memory fallback is returned as an error.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (startup.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	st, err := NewFromDSN(dsn)
	if err == nil {
		if err = st.EnsureSchema(ctx); err == nil {
			return st, nil
		}
		_ = st.Close()
	}
	logger.Warn("failed to open startup store, falling back to in-memory", "error", err)

	mem, err := sq.New(":memory:")
	if err != nil {
		return nil, err
	}
	if err := mem.EnsureSchema(ctx); err != nil {
		_ = mem.Close()
		return nil, err
	}
	return mem, nil
}
