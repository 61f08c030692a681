package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v4/process"
)

// DefaultSelfSampleInterval is how often the daemon samples its own
// resource usage.
const DefaultSelfSampleInterval = 15 * time.Second

// DaemonSample is one resource reading of the running daemon process.
type DaemonSample struct {
	CPUPercent float64
	MemoryMB   float64
	MemoryRSS  uint64
	NumThreads int32
	NumFDs     int32 // Unix only
	Taken      time.Time
}

// SelfCollector periodically samples CPU, memory, thread and file
// descriptor usage of this process and exposes the readings as
// Prometheus gauges. It reads through gopsutil, so the gauges are
// available on every platform the process sampler supports.
type SelfCollector struct {
	interval time.Duration
	pid      int32

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	cpuPercent prometheus.Gauge
	memoryMB   prometheus.Gauge
	numThreads prometheus.Gauge
	numFDs     prometheus.Gauge
}

// NewSelfCollector creates a collector for the current process.
// interval <= 0 selects DefaultSelfSampleInterval.
func NewSelfCollector(interval time.Duration) *SelfCollector {
	if interval <= 0 {
		interval = DefaultSelfSampleInterval
	}
	return &SelfCollector{
		interval: interval,
		pid:      int32(os.Getpid()),
		stopCh:   make(chan struct{}),
		cpuPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "timewise",
			Subsystem: "daemon",
			Name:      "cpu_percent",
			Help:      "CPU usage percentage of the daemon process.",
		}),
		memoryMB: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "timewise",
			Subsystem: "daemon",
			Name:      "memory_mb",
			Help:      "Resident memory of the daemon process in MB.",
		}),
		numThreads: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "timewise",
			Subsystem: "daemon",
			Name:      "threads",
			Help:      "Thread count of the daemon process.",
		}),
		numFDs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "timewise",
			Subsystem: "daemon",
			Name:      "open_fds",
			Help:      "Open file descriptors of the daemon process (Unix only).",
		}),
	}
}

// RegisterMetrics registers the daemon gauges with the provided
// registerer. The file descriptor gauge is registered on Unix only.
func (c *SelfCollector) RegisterMetrics(r prometheus.Registerer) error {
	collectors := []prometheus.Collector{c.cpuPercent, c.memoryMB, c.numThreads}
	if runtime.GOOS != "windows" {
		collectors = append(collectors, c.numFDs)
	}
	for _, collector := range collectors {
		if err := r.Register(collector); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

// Start samples once immediately so the gauges are warm, then keeps
// sampling on the configured interval until ctx is cancelled or Stop is
// called.
func (c *SelfCollector) Start(ctx context.Context) {
	c.observe(ctx)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-c.stopCh:
				return
			case <-ticker.C:
				c.observe(ctx)
			}
		}
	}()
}

// Stop terminates the sampling loop and waits for it to exit. Safe to
// call more than once.
func (c *SelfCollector) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	c.wg.Wait()
}

func (c *SelfCollector) observe(ctx context.Context) {
	sample, err := c.Sample(ctx)
	if err != nil {
		slog.Debug("daemon resource sample failed", "error", err)
		return
	}
	c.cpuPercent.Set(sample.CPUPercent)
	c.memoryMB.Set(sample.MemoryMB)
	c.numThreads.Set(float64(sample.NumThreads))
	if runtime.GOOS != "windows" && sample.NumFDs > 0 {
		c.numFDs.Set(float64(sample.NumFDs))
	}
}

// Sample takes one resource reading of the daemon process. A missing
// CPU, thread or descriptor reading degrades to zero; only a failed
// memory lookup fails the sample.
func (c *SelfCollector) Sample(ctx context.Context) (DaemonSample, error) {
	proc, err := process.NewProcessWithContext(ctx, c.pid)
	if err != nil {
		return DaemonSample{}, fmt.Errorf("failed to open process handle: %w", err)
	}

	sample := DaemonSample{Taken: time.Now()}

	if cpu, err := proc.CPUPercentWithContext(ctx); err == nil {
		sample.CPUPercent = cpu
	}

	mem, err := proc.MemoryInfoWithContext(ctx)
	if err != nil {
		return DaemonSample{}, fmt.Errorf("failed to read memory info: %w", err)
	}
	sample.MemoryRSS = mem.RSS
	sample.MemoryMB = float64(mem.RSS) / 1024 / 1024

	if threads, err := proc.NumThreadsWithContext(ctx); err == nil {
		sample.NumThreads = threads
	}
	if runtime.GOOS != "windows" {
		if fds, err := proc.NumFDsWithContext(ctx); err == nil {
			sample.NumFDs = fds
		}
	}

	return sample, nil
}
