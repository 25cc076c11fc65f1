package bus

import (
	"context"

	"github.com/vflow-labs/vflow/engine"
)

// EventStore persists events for replay and run history.
type EventStore interface {
	// Append stores an event.
	Append(ctx context.Context, event engine.Event) error

	// List returns events for an invocation, optionally filtered.
	// afterSeq: return events with Seq > afterSeq (0 means all)
	// limit: max events to return (0 means no limit)
	List(ctx context.Context, invocationID string, afterSeq uint64, limit int) ([]engine.Event, error)

	// LatestSeq returns the highest Seq for an invocation (0 if no events).
	LatestSeq(ctx context.Context, invocationID string) (uint64, error)
}
