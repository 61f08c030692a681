package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	usagePolls = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "timewise",
			Subsystem: "usage",
			Name:      "polls_total",
			Help:      "Number of completed usage polls.",
		},
	)
	usagePollErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "timewise",
			Subsystem: "usage",
			Name:      "poll_errors_total",
			Help:      "Number of polls skipped because process enumeration failed.",
		},
	)
	usagePollDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "timewise",
			Subsystem: "usage",
			Name:      "poll_duration_seconds",
			Help:      "Observed duration of one snapshot-and-reconcile cycle.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	usageTrackedApps = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "timewise",
			Subsystem: "usage",
			Name:      "tracked_apps",
			Help:      "Applications currently held by the usage recorder.",
		},
	)
	usageActiveApps = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "timewise",
			Subsystem: "usage",
			Name:      "active_apps",
			Help:      "Applications present in the most recent snapshot.",
		},
	)
	usageTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "timewise",
			Subsystem: "usage",
			Name:      "transitions_total",
			Help:      "State transitions observed per poll (activated, deactivated, evicted).",
		}, []string{"kind"},
	)
	startupDuration = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "timewise",
			Subsystem: "startup",
			Name:      "duration_ms",
			Help:      "Startup duration recorded for this run in milliseconds.",
		},
	)
	startupRecorded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "timewise",
			Subsystem: "startup",
			Name:      "records_written_total",
			Help:      "Startup samples persisted by this process.",
		},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{usagePolls, usagePollErrors, usagePollDuration, usageTrackedApps, usageActiveApps, usageTransitions, startupDuration, startupRecorded}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			// If already registered, ignore (allows double Register with default registry)
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler that serves Prometheus metrics for the DefaultGatherer.
// The caller is responsible for starting an HTTP server and wiring the route.
func Handler() http.Handler { return promhttp.Handler() }

// Below are lightweight helpers used by internal packages to record metrics.
// They no-op if Register hasn't been called.

func IncPoll() {
	if regOK.Load() {
		usagePolls.Inc()
	}
}
func IncPollError() {
	if regOK.Load() {
		usagePollErrors.Inc()
	}
}
func ObservePollDuration(seconds float64) {
	if regOK.Load() {
		usagePollDuration.Observe(seconds)
	}
}
func SetTrackedApps(n int) {
	if regOK.Load() {
		usageTrackedApps.Set(float64(n))
	}
}
func SetActiveApps(n int) {
	if regOK.Load() {
		usageActiveApps.Set(float64(n))
	}
}
func IncTransition(kind string) {
	if regOK.Load() {
		usageTransitions.WithLabelValues(kind).Inc()
	}
}
func SetStartupDurationMs(ms int64) {
	if regOK.Load() {
		startupDuration.Set(float64(ms))
	}
}
func IncStartupRecorded() {
	if regOK.Load() {
		startupRecorded.Inc()
	}
}
