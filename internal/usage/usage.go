// Package usage implements presence-derived application usage accounting.
// A recorder keeps one entry per observed application identity and credits
// active wall-clock time between consecutive process snapshots. Applications
// missing from a snapshot stop accruing immediately and are evicted once they
// stay inactive beyond a grace period.
package usage

import "time"

const (
	// DefaultPollInterval is the default spacing between process snapshots.
	DefaultPollInterval = 15 * time.Second
	// DefaultGracePeriod is how long an inactive application is retained
	// before its entry is evicted.
	DefaultGracePeriod = 5 * time.Minute
)

// Identity keys one tracked application: the process name plus the resolved
// executable path when the platform policy yields one.
type Identity struct {
	Name       string
	Executable string // empty when the platform tracks by name only
}

// Record is the externally visible usage snapshot for one application.
// Timestamps are Unix milliseconds.
type Record struct {
	Name          string `json:"name"`
	Executable    string `json:"executable,omitempty"`
	TotalActiveMs int64  `json:"totalActiveMs"`
	LastSeenAtMs  int64  `json:"lastSeenAtMs"`
	FirstSeenAtMs int64  `json:"firstSeenAtMs"`
	Active        bool   `json:"active"`
}

// TransitionKind labels a state change observed during one snapshot.
type TransitionKind string

const (
	// TransitionActivated marks an application seen while it was not active,
	// including its very first sighting.
	TransitionActivated TransitionKind = "activated"
	// TransitionDeactivated marks an active application missing from the
	// snapshot; its open interval has been closed.
	TransitionDeactivated TransitionKind = "deactivated"
	// TransitionEvicted marks an inactive application dropped after the
	// grace period.
	TransitionEvicted TransitionKind = "evicted"
)

// Transition reports one state change for downstream consumers (metrics,
// history sinks). TotalActive is the accumulated time at the moment of the
// transition.
type Transition struct {
	Kind        TransitionKind
	Identity    Identity
	At          time.Time
	TotalActive time.Duration
}
