package startup

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/quartz"

	"github.com/9renpoto/time-wise/internal/metrics"
)

// ServiceConfig configures a Service. Zero values select defaults.
type ServiceConfig struct {
	Store      Store
	MaxRecords int
	Logger     *slog.Logger
	Clock      quartz.Clock
}

// Service records one startup measurement per process lifetime and
// serves stored measurements. Reads never fail; they degrade to an
// empty result.
type Service struct {
	mu       sync.Mutex
	store    Store
	max      int
	logger   *slog.Logger
	clock    quartz.Clock
	recorded atomic.Bool
}

func NewService(cfg ServiceConfig) *Service {
	maxRecords := cfg.MaxRecords
	if maxRecords <= 0 {
		maxRecords = MaxRecords
	}
	lg := cfg.Logger
	if lg == nil {
		lg = slog.Default()
	}
	clk := cfg.Clock
	if clk == nil {
		clk = quartz.NewReal()
	}
	return &Service{
		store:  cfg.Store,
		max:    maxRecords,
		logger: lg,
		clock:  clk,
	}
}

// RecordStartup persists the measurement on the first call of the
// process lifetime and returns the stored record; every later call is a
// no-op returning nil. The gate is consumed even when the write fails,
// so a failed first write is not retried.
func (s *Service) RecordStartup(ctx context.Context, duration time.Duration, launcher string) (*Record, error) {
	if s.recorded.Swap(true) {
		return nil, nil
	}

	launcher = strings.TrimSpace(launcher)
	if launcher == "" {
		launcher = "unknown"
	}
	rec := Record{
		RecordedAtMs: clampMs(s.clock.Now().UnixMilli()),
		DurationMs:   clampMs(duration.Milliseconds()),
		Launcher:     launcher,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Insert(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to insert startup record: %w", err)
	}
	// Insert and prune are two statements; callers only rely on the
	// count being bounded after a successful return.
	if err := s.store.Prune(ctx, s.max); err != nil {
		return nil, fmt.Errorf("failed to prune startup records: %w", err)
	}

	metrics.SetStartupDurationMs(rec.DurationMs)
	metrics.IncStartupRecorded()
	s.logger.Info("recorded startup", "duration_ms", rec.DurationMs, "launcher", rec.Launcher)

	return &rec, nil
}

// Records returns stored measurements, most recent first. Failures are
// logged and yield an empty slice.
func (s *Service) Records(ctx context.Context) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.store.Records(ctx)
	if err != nil {
		s.logger.Warn("failed to read startup records", "error", err)
		return []Record{}
	}
	if recs == nil {
		recs = []Record{}
	}
	return recs
}

// Recorded reports whether the one-shot gate has been consumed.
func (s *Service) Recorded() bool { return s.recorded.Load() }

// Close releases the underlying store.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Close()
}

func clampMs(ms int64) int64 {
	if ms < 0 {
		return 0
	}
	return ms
}
