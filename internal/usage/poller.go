package usage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/coder/quartz"

	"github.com/9renpoto/time-wise/internal/history"
	"github.com/9renpoto/time-wise/internal/metrics"
)

// Sampler provides a point-in-time list of running application
// identities. Implementations must not retain the returned slice.
type Sampler interface {
	Snapshot(ctx context.Context) ([]Identity, error)
}

// PollerConfig configures a Poller. Zero values select defaults.
type PollerConfig struct {
	Sampler  Sampler
	Recorder *Recorder
	Interval time.Duration
	Sinks    []history.Sink
	Logger   *slog.Logger
	Clock    quartz.Clock
}

// Poller drives a Recorder from a Sampler on a fixed interval. Polls
// never overlap; a poll that fails to enumerate processes leaves the
// recorder untouched and is retried on the next tick.
type Poller struct {
	sampler  Sampler
	recorder *Recorder
	interval time.Duration
	sinks    []history.Sink
	logger   *slog.Logger
	clock    quartz.Clock

	ticker quartz.Waiter
}

func NewPoller(cfg PollerConfig) *Poller {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	lg := cfg.Logger
	if lg == nil {
		lg = slog.Default()
	}
	clk := cfg.Clock
	if clk == nil {
		clk = quartz.NewReal()
	}
	return &Poller{
		sampler:  cfg.Sampler,
		recorder: cfg.Recorder,
		interval: interval,
		sinks:    append([]history.Sink(nil), cfg.Sinks...),
		logger:   lg,
		clock:    clk,
	}
}

// Start runs one poll immediately so the recorder is warm, then keeps
// polling on the configured interval until ctx is cancelled.
func (p *Poller) Start(ctx context.Context) {
	p.pollOnce(ctx)
	p.ticker = p.clock.TickerFunc(ctx, p.interval, func() error {
		p.pollOnce(ctx)
		return nil
	}, "usage-poller")
}

// Poll runs a single snapshot-and-apply cycle. Embedders that drive
// polling themselves use this instead of Start.
func (p *Poller) Poll(ctx context.Context) {
	p.pollOnce(ctx)
}

// Wait blocks until the poll loop has stopped. Context cancellation is
// the normal way to stop it and is not reported as an error.
func (p *Poller) Wait() error {
	if p.ticker == nil {
		return nil
	}
	err := p.ticker.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func (p *Poller) pollOnce(ctx context.Context) {
	start := p.clock.Now("usage-poller", "poll")

	ids, err := p.sampler.Snapshot(ctx)
	if err != nil {
		metrics.IncPollError()
		p.logger.Warn("process snapshot failed", "error", err)
		return
	}

	transitions := p.recorder.Apply(ids)

	tracked, active := p.recorder.Counts()
	metrics.SetTrackedApps(tracked)
	metrics.SetActiveApps(active)
	for _, tr := range transitions {
		metrics.IncTransition(string(tr.Kind))
	}

	// Sinks run outside the recorder lock; a slow or failing sink must
	// not stall accounting.
	p.dispatch(ctx, transitions)

	metrics.IncPoll()
	metrics.ObservePollDuration(p.clock.Since(start, "usage-poller", "poll").Seconds())
}

func (p *Poller) dispatch(ctx context.Context, transitions []Transition) {
	if len(p.sinks) == 0 {
		return
	}
	for _, tr := range transitions {
		evt := history.Event{
			Type:          history.EventType(tr.Kind),
			OccurredAt:    tr.At,
			Name:          tr.Identity.Name,
			Executable:    tr.Identity.Executable,
			TotalActiveMs: tr.TotalActive.Milliseconds(),
		}
		for _, s := range p.sinks {
			if err := s.Send(ctx, evt); err != nil {
				p.logger.Warn("history sink send failed",
					"type", string(evt.Type), "name", evt.Name, "error", err)
			}
		}
	}
}
