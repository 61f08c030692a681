// Package startup persists how long the application took to become
// ready, together with the launcher that started it. Measurements are
// written once per process lifetime and kept with bounded retention.
package startup

import "context"

// MaxRecords is the default retention cap: older measurements beyond
// this count are pruned after each write.
const MaxRecords = 100

// Record is a single startup measurement in milliseconds.
type Record struct {
	RecordedAtMs int64  `json:"recordedAtMs"`
	DurationMs   int64  `json:"durationMs"`
	Launcher     string `json:"launcher"`
}

// Store persists startup records. Implementations map missing launcher
// values to "unknown" and floor negative millisecond values to zero on
// read.
type Store interface {
	EnsureSchema(ctx context.Context) error
	Insert(ctx context.Context, rec Record) error
	// Prune keeps only the keep most recent rows by recorded_at_ms.
	Prune(ctx context.Context, keep int) error
	// Records returns all rows ordered by recorded_at_ms descending.
	Records(ctx context.Context) ([]Record, error)
	Close() error
}
