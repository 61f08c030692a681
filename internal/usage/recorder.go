package usage

import (
	"sort"
	"sync"
	"time"

	"github.com/coder/quartz"
)

type entry struct {
	accumulated time.Duration
	lastTick    time.Time // baseline of the most recent interval; zero until first tick
	firstSeen   time.Time
	lastSeen    time.Time
	active      bool
}

// recordPresence credits the elapsed interval when the entry was already
// active, then re-arms the baseline. Reports whether this sighting activated
// the entry. Time spent inactive is never credited retroactively.
func (e *entry) recordPresence(now time.Time) (activated bool) {
	wasActive := e.active
	if wasActive && !e.lastTick.IsZero() {
		if d := now.Sub(e.lastTick); d > 0 {
			e.accumulated += d
		}
	}
	e.lastTick = now
	e.lastSeen = now
	e.active = true
	return !wasActive
}

// markInactive closes the open interval if there is one. Reports whether the
// entry was active before the call.
func (e *entry) markInactive(now time.Time) (deactivated bool) {
	wasActive := e.active
	if wasActive && !e.lastTick.IsZero() {
		if d := now.Sub(e.lastTick); d > 0 {
			e.accumulated += d
		}
	}
	e.active = false
	e.lastTick = now
	return wasActive
}

// record derives the external view at now. The open interval of an active
// entry is added lazily without mutating state.
func (e *entry) record(id Identity, now time.Time) Record {
	total := e.accumulated
	if e.active && !e.lastTick.IsZero() {
		if d := now.Sub(e.lastTick); d > 0 {
			total += d
		}
	}
	return Record{
		Name:          id.Name,
		Executable:    id.Executable,
		TotalActiveMs: total.Milliseconds(),
		LastSeenAtMs:  unixMsOrZero(e.lastSeen),
		FirstSeenAtMs: unixMsOrZero(e.firstSeen),
		Active:        e.active,
	}
}

// Recorder accumulates active time per application identity from periodic
// process snapshots. All methods are safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	clock   quartz.Clock
	grace   time.Duration
	entries map[Identity]*entry
}

// NewRecorder creates a recorder evicting inactive entries after grace.
// grace <= 0 selects DefaultGracePeriod; a nil clock selects the real clock.
func NewRecorder(grace time.Duration, clk quartz.Clock) *Recorder {
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	if clk == nil {
		clk = quartz.NewReal()
	}
	return &Recorder{
		clock:   clk,
		grace:   grace,
		entries: make(map[Identity]*entry),
	}
}

// Apply reconciles the recorder against one process snapshot taken now:
// observed identities accrue or (re)activate, missing ones stop accruing, and
// entries inactive beyond the grace period are evicted. Active entries are
// never evicted. The returned transitions describe what changed.
func (r *Recorder) Apply(ids []Identity) []Transition {
	return r.applyAt(ids, r.clock.Now())
}

func (r *Recorder) applyAt(ids []Identity, now time.Time) []Transition {
	r.mu.Lock()
	defer r.mu.Unlock()

	var transitions []Transition
	observed := make(map[Identity]struct{}, len(ids))
	for _, id := range ids {
		observed[id] = struct{}{}
		e, ok := r.entries[id]
		if !ok {
			e = &entry{firstSeen: now, lastSeen: now}
			r.entries[id] = e
		}
		if e.recordPresence(now) {
			transitions = append(transitions, Transition{
				Kind: TransitionActivated, Identity: id, At: now, TotalActive: e.accumulated,
			})
		}
	}

	for id, e := range r.entries {
		if _, ok := observed[id]; ok {
			continue
		}
		if e.markInactive(now) {
			transitions = append(transitions, Transition{
				Kind: TransitionDeactivated, Identity: id, At: now, TotalActive: e.accumulated,
			})
		}
	}

	for id, e := range r.entries {
		if e.active {
			continue
		}
		// A wall clock regression makes the entry's age meaningless; drop it.
		elapsed := now.Sub(e.lastSeen)
		if elapsed >= 0 && elapsed <= r.grace {
			continue
		}
		delete(r.entries, id)
		transitions = append(transitions, Transition{
			Kind: TransitionEvicted, Identity: id, At: now, TotalActive: e.accumulated,
		})
	}
	return transitions
}

// Records returns the usage snapshot sorted by total active time descending.
// Entries that never accrued time and are not active are omitted.
func (r *Recorder) Records() []Record {
	return r.recordsAt(r.clock.Now())
}

func (r *Recorder) recordsAt(now time.Time) []Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := make([]Record, 0, len(r.entries))
	for id, e := range r.entries {
		rec := e.record(id, now)
		if rec.TotalActiveMs > 0 || rec.Active {
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].TotalActiveMs > records[j].TotalActiveMs
	})
	return records
}

// Counts reports how many applications are tracked and how many of them are
// currently active.
func (r *Recorder) Counts() (tracked, active int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tracked = len(r.entries)
	for _, e := range r.entries {
		if e.active {
			active++
		}
	}
	return tracked, active
}

func unixMsOrZero(t time.Time) int64 {
	ms := t.UnixMilli()
	if ms < 0 {
		return 0
	}
	return ms
}
