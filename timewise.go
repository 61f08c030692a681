package timewise

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	cfg "github.com/9renpoto/time-wise/internal/config"
	"github.com/9renpoto/time-wise/internal/history"
	hfactory "github.com/9renpoto/time-wise/internal/history/factory"
	"github.com/9renpoto/time-wise/internal/launcher"
	"github.com/9renpoto/time-wise/internal/metrics"
	"github.com/9renpoto/time-wise/internal/report"
	"github.com/9renpoto/time-wise/internal/sampler"
	iapi "github.com/9renpoto/time-wise/internal/server"
	"github.com/9renpoto/time-wise/internal/startup"
	sfactory "github.com/9renpoto/time-wise/internal/startup/factory"
	"github.com/9renpoto/time-wise/internal/usage"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Identity = usage.Identity

type UsageRecord = usage.Record

type Transition = usage.Transition

type StartupRecord = startup.Record

type Summary = report.Summary

type HistorySink = history.Sink

type Config = cfg.FileConfig

// LoadConfig parses a TOML config file, expanding ${VAR} placeholders and
// applying defaults.
func LoadConfig(path string) (*Config, error) {
	return cfg.Load(path)
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return cfg.Default()
}

// Engine bundles the process sampler, the usage recorder, the poll loop and
// the startup store behind one embeddable handle.
type Engine struct {
	recorder *usage.Recorder
	poller   *usage.Poller
	startups *startup.Service
	sinks    []history.Sink
}

// New assembles an engine from c. A nil config selects defaults. The
// startup store is opened (and its schema ensured) during assembly; ctx
// bounds that work.
func New(ctx context.Context, c *Config) (*Engine, error) {
	if c == nil {
		c = DefaultConfig()
	}
	log := slog.Default()

	recorder := usage.NewRecorder(c.Usage.GracePeriod, nil)

	var sinks []history.Sink
	for _, dsn := range c.History.DSNs {
		s, err := hfactory.NewSinkFromDSN(dsn)
		if err != nil {
			closeSinks(sinks)
			return nil, fmt.Errorf("failed to open history sink: %w", err)
		}
		sinks = append(sinks, s)
	}

	store, err := sfactory.Open(ctx, c.Startup.DSN, log)
	if err != nil {
		closeSinks(sinks)
		return nil, fmt.Errorf("failed to open startup store: %w", err)
	}

	return &Engine{
		recorder: recorder,
		poller: usage.NewPoller(usage.PollerConfig{
			Sampler:  sampler.New(nil),
			Recorder: recorder,
			Interval: c.Usage.PollInterval,
			Sinks:    sinks,
			Logger:   log,
		}),
		startups: startup.NewService(startup.ServiceConfig{
			Store:      store,
			MaxRecords: c.Startup.MaxRecords,
			Logger:     log,
		}),
		sinks: sinks,
	}, nil
}

// Start polls once immediately and then keeps polling on the configured
// interval until ctx is cancelled.
func (e *Engine) Start(ctx context.Context) { e.poller.Start(ctx) }

// Wait blocks until the poll loop has stopped.
func (e *Engine) Wait() error { return e.poller.Wait() }

// Poll runs a single snapshot-and-apply cycle for embedders that schedule
// polling themselves.
func (e *Engine) Poll(ctx context.Context) { e.poller.Poll(ctx) }

// UsageRecords returns the current usage snapshot, most used first.
func (e *Engine) UsageRecords() []UsageRecord { return e.recorder.Records() }

// RecordStartup stores one startup measurement. Only the first call per
// engine writes; later calls are ignored.
func (e *Engine) RecordStartup(ctx context.Context, duration time.Duration, launchedBy string) (*StartupRecord, error) {
	return e.startups.RecordStartup(ctx, duration, launchedBy)
}

// StartupRecords returns retained startup measurements, newest first.
func (e *Engine) StartupRecords(ctx context.Context) []StartupRecord {
	return e.startups.Records(ctx)
}

// Summary assembles the dashboard summary from the live usage snapshot and
// the retained startup runs.
func (e *Engine) Summary(ctx context.Context) Summary {
	return report.Build(e.recorder.Records(), e.startups.Records(ctx))
}

// Close releases the startup store and any history sinks. The poll loop
// should be stopped (cancel + Wait) first.
func (e *Engine) Close() error {
	err := e.startups.Close()
	for _, s := range e.sinks {
		if cerr := s.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}
	return err
}

func closeSinks(sinks []history.Sink) {
	for _, s := range sinks {
		_ = s.Close()
	}
}

// ResolveLauncher walks the parent process chain and names the application
// that started this process, or "unknown".
func ResolveLauncher(ctx context.Context) string { return launcher.Resolve(ctx) }

// NewHTTPServer starts an HTTP server exposing the query API backed by the
// given engine.
func NewHTTPServer(addr, basePath string, e *Engine) (*http.Server, error) {
	return iapi.NewServer(addr, basePath, e.recorder, e.startups)
}

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }

// StartSelfMetrics registers gauges for the daemon's own CPU, memory,
// thread and descriptor usage with the default registerer and samples
// them until ctx is cancelled. interval <= 0 selects the default.
func StartSelfMetrics(ctx context.Context, interval time.Duration) error {
	c := metrics.NewSelfCollector(interval)
	if err := c.RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
		return err
	}
	c.Start(ctx)
	return nil
}

// ServeMetrics starts an HTTP server on addr exposing /metrics using the default registry.
// It returns any immediate listen error; otherwise it runs the server in the caller goroutine.
func ServeMetrics(addr string) error {
	http.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           nil,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv.ListenAndServe()
}
