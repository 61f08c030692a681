package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegisterIdempotentAndCollectorsWork(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("first register: %v", err)
	}
	// idempotent: calling again should be no-op
	if err := Register(reg); err != nil {
		t.Fatalf("second register: %v", err)
	}

	// Exercise helpers; they should work only after Register
	IncPoll()
	IncPoll()
	IncPollError()
	ObservePollDuration(0.025)
	SetTrackedApps(7)
	SetActiveApps(3)
	IncTransition("activated")
	IncTransition("evicted")
	SetStartupDurationMs(842)
	IncStartupRecorded()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	// Very basic assertions that our metric names exist and have samples
	wantNames := map[string]bool{
		"timewise_usage_polls_total":             false,
		"timewise_usage_poll_errors_total":       false,
		"timewise_usage_poll_duration_seconds":   false,
		"timewise_usage_tracked_apps":            false,
		"timewise_usage_active_apps":             false,
		"timewise_usage_transitions_total":       false,
		"timewise_startup_duration_ms":           false,
		"timewise_startup_records_written_total": false,
	}
	for _, mf := range mfs {
		n := mf.GetName()
		if _, ok := wantNames[n]; ok {
			wantNames[n] = true
			if len(mf.GetMetric()) == 0 {
				t.Fatalf("metric %s has no samples", n)
			}
		}
	}
	for n, ok := range wantNames {
		if !ok {
			t.Fatalf("expected to find metric %s", n)
		}
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	// Ensure collectors are registered with the default registry used by Handler().
	// Reset regOK gate to allow registration in this test regardless of previous tests.
	regOK.Store(false)
	if err := Register(prometheus.DefaultRegisterer); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	// touch some metrics
	IncPoll()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != 200 {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	b, _ := io.ReadAll(resp.Body)
	s := string(b)
	if !strings.Contains(s, "timewise_usage_polls_total") {
		t.Fatalf("metrics output missing polls_total: %s", s[:min(200, len(s))])
	}
}

func TestConcurrentIncrements(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			IncPoll()
			IncTransition("activated")
			SetActiveApps(1)
		}()
	}
	wg.Wait()
	// Ensure gather succeeds under race detector
	if _, err := reg.Gather(); err != nil {
		t.Fatalf("gather: %v", err)
	}
}

func TestMetricsBeforeRegister(t *testing.T) {
	// Reset registration status to test behavior before registration
	originalState := regOK.Load()
	regOK.Store(false)
	defer regOK.Store(originalState)

	// These should be no-ops and not panic when called before Register
	IncPoll()
	IncPollError()
	ObservePollDuration(1.0)
	SetTrackedApps(5)
	SetActiveApps(2)
	IncTransition("deactivated")
	SetStartupDurationMs(10)
	IncStartupRecorded()

	// No crash means success
}

func TestRegisterError(t *testing.T) {
	// Create a custom registerer that returns a non-AlreadyRegisteredError
	errorRegisterer := &errorRegisterer{
		shouldError: true,
	}

	// Reset regOK to allow testing registration failure
	originalState := regOK.Load()
	regOK.Store(false)
	defer regOK.Store(originalState)

	// Now Register should return the error
	err := Register(errorRegisterer)
	if err == nil {
		t.Fatal("Register should return error from failing registerer")
	}
	if err.Error() != "test registration error" {
		t.Fatalf("unexpected error: %v", err)
	}
}

// Custom registerer for testing error handling
type errorRegisterer struct {
	shouldError bool
}

func (e *errorRegisterer) Register(prometheus.Collector) error {
	if e.shouldError {
		return errors.New("test registration error")
	}
	return nil
}

func (e *errorRegisterer) MustRegister(...prometheus.Collector) {}
func (e *errorRegisterer) Unregister(prometheus.Collector) bool { return false }
