package timewise

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/9renpoto/time-wise/internal/metrics"
)

func TestEngineFacadeLifecycle(t *testing.T) {
	dir := t.TempDir()
	cfg := `
[usage]
poll_interval = "20ms"
grace_period = "1m"

[startup]
dsn = "sqlite://` + filepath.ToSlash(filepath.Join(dir, "startup_times.sqlite")) + `"
max_records = 5
`
	p := filepath.Join(dir, "cfg.toml")
	if err := os.WriteFile(p, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	config, err := LoadConfig(p)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if config.Usage.PollInterval != 20*time.Millisecond {
		t.Fatalf("poll interval: %s", config.Usage.PollInterval)
	}

	ctx := context.Background()
	eng, err := New(ctx, config)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	defer func() { _ = eng.Close() }()

	eng.Poll(ctx)
	if recs := eng.UsageRecords(); recs == nil {
		t.Fatal("usage records must never be nil")
	}

	rec, err := eng.RecordStartup(ctx, 750*time.Millisecond, "zsh")
	if err != nil {
		t.Fatalf("record startup: %v", err)
	}
	if rec == nil || rec.DurationMs != 750 || rec.Launcher != "zsh" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	again, err := eng.RecordStartup(ctx, time.Second, "bash")
	if err != nil || again != nil {
		t.Fatalf("second record must be a no-op, got %+v err=%v", again, err)
	}

	stored := eng.StartupRecords(ctx)
	if len(stored) != 1 || stored[0].Launcher != "zsh" {
		t.Fatalf("stored records: %+v", stored)
	}

	sum := eng.Summary(ctx)
	if sum.StartupRuns != 1 {
		t.Fatalf("summary runs: %d", sum.StartupRuns)
	}
	if len(sum.Chart) != 5 || len(sum.Buckets) != 3 {
		t.Fatalf("summary shape: chart=%d buckets=%d", len(sum.Chart), len(sum.Buckets))
	}
}

func TestNewNilConfigUsesDefaults(t *testing.T) {
	config := DefaultConfig()
	if config.Usage.PollInterval != 15*time.Second {
		t.Fatalf("default poll interval: %s", config.Usage.PollInterval)
	}
	if config.Usage.GracePeriod != 5*time.Minute {
		t.Fatalf("default grace period: %s", config.Usage.GracePeriod)
	}
	if config.Server.Listen == "" || config.Server.BasePath == "" {
		t.Fatalf("server defaults missing: %+v", config.Server)
	}
	if !strings.HasPrefix(config.Startup.DSN, "sqlite://") {
		t.Fatalf("default startup DSN: %s", config.Startup.DSN)
	}
}

func TestHTTPServerFacade(t *testing.T) {
	config := DefaultConfig()
	config.Startup.DSN = "sqlite://:memory:"
	eng, err := New(context.Background(), config)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	defer func() { _ = eng.Close() }()

	srv, err := NewHTTPServer("127.0.0.1:0", "/api", eng)
	if err != nil {
		t.Fatalf("server: %v", err)
	}
	_ = srv.Close()
}

func TestMetricsHelpers(t *testing.T) {
	// Default registry first so the gatherer below sees the collectors.
	if err := RegisterMetricsDefault(); err != nil {
		t.Fatalf("RegisterMetricsDefault: %v", err)
	}
	if err := RegisterMetrics(prometheus.NewRegistry()); err != nil {
		t.Fatalf("RegisterMetrics: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// Start samples synchronously once, so the daemon gauges are set.
	if err := StartSelfMetrics(ctx, time.Hour); err != nil {
		t.Fatalf("StartSelfMetrics: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics handler status %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "timewise_usage_polls_total") {
		t.Fatalf("metrics output missing timewise metrics: %s", rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "timewise_daemon_memory_mb") {
		t.Fatalf("metrics output missing daemon gauges: %s", rr.Body.String())
	}
}
