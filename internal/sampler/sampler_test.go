package sampler

import (
	"context"
	"strings"
	"testing"
)

// rejectAll is a policy that tracks nothing.
type rejectAll struct{}

func (rejectAll) Eligible(_, _ string) bool { return false }
func (rejectAll) Describe() string          { return "test:reject-all" }

func TestNewDefaultsToHostPolicy(t *testing.T) {
	s := New(nil)
	if s.Policy() == nil {
		t.Fatal("expected a host policy, got nil")
	}
}

func TestSnapshotRejectAllPolicy(t *testing.T) {
	s := New(rejectAll{})
	ids, err := s.Snapshot(context.Background())
	if err != nil {
		t.Skipf("process enumeration unavailable: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected empty snapshot, got %d identities", len(ids))
	}
}

func TestSnapshotLiveSystem(t *testing.T) {
	// NamePolicy accepts every named process, so on any real system the
	// snapshot should contain this test binary among others.
	s := New(NamePolicy{})
	ids, err := s.Snapshot(context.Background())
	if err != nil {
		t.Skipf("process enumeration unavailable: %v", err)
	}
	if len(ids) == 0 {
		t.Fatal("expected at least one identity on a live system")
	}
	for _, id := range ids {
		if strings.TrimSpace(id.Name) == "" {
			t.Fatalf("snapshot contains identity with blank name: %+v", id)
		}
		if id.Name != strings.TrimSpace(id.Name) {
			t.Fatalf("identity name not trimmed: %q", id.Name)
		}
	}
}

func TestSnapshotCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(NamePolicy{})
	// Enumeration with a cancelled context may fail or may return a
	// partial result depending on the platform; it must not panic.
	_, _ = s.Snapshot(ctx)
}
