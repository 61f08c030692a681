// Package sampler enumerates OS processes and filters them down to the
// identities of running applications. Each call produces an ephemeral
// snapshot; the sampler holds no per-process state between calls.
package sampler

import (
	"context"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/9renpoto/time-wise/internal/usage"
)

// Sampler collects the identities of currently running applications.
type Sampler struct {
	policy Policy
}

// New returns a sampler using the given eligibility policy.
// A nil policy selects the policy for the current platform.
func New(policy Policy) *Sampler {
	if policy == nil {
		policy = ForHost()
	}
	return &Sampler{policy: policy}
}

// Policy returns the eligibility policy in use.
func (s *Sampler) Policy() Policy { return s.policy }

// Snapshot enumerates all OS processes and returns the identities that
// pass the eligibility policy. A process whose metadata cannot be read
// is skipped, never reported as an error; only the enumeration itself
// can fail.
func (s *Sampler) Snapshot(ctx context.Context) ([]usage.Identity, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate processes: %w", err)
	}

	ids := make([]usage.Identity, 0, len(procs))
	for _, p := range procs {
		id, ok := s.identityFor(ctx, p)
		if !ok {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Sampler) identityFor(ctx context.Context, p *process.Process) (usage.Identity, bool) {
	name, err := p.NameWithContext(ctx)
	if err != nil {
		return usage.Identity{}, false
	}
	// Executable paths are unreadable for many system processes
	// (permissions, kernel threads); treat that as "no path".
	exe, err := p.ExeWithContext(ctx)
	if err != nil {
		exe = ""
	}

	if !s.policy.Eligible(name, exe) {
		return usage.Identity{}, false
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return usage.Identity{}, false
	}

	return usage.Identity{Name: name, Executable: exe}, true
}
