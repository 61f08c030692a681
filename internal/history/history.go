// Package history exports usage transition events to analytics sinks.
package history

import (
	"context"
	"time"
)

// EventType defines the kind of usage transition event.
type EventType string

const (
	EventActivated   EventType = "activated"
	EventDeactivated EventType = "deactivated"
	EventEvicted     EventType = "evicted"
)

// Event represents one application usage transition to be exported to
// external systems.
type Event struct {
	Type          EventType `json:"type"`
	OccurredAt    time.Time `json:"occurred_at"`
	Name          string    `json:"name"`
	Executable    string    `json:"executable,omitempty"`
	TotalActiveMs int64     `json:"total_active_ms"`
}

// Sink is a destination for usage transition events (analytics/statistics
// systems). Implementations must be safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, e Event) error
	// Close releases any resources held by the sink.
	Close() error
}
