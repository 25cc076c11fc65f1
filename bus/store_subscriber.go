package bus

import (
	"context"
	"log/slog"

	"github.com/vflow-labs/vflow/engine"
)

// StoreSubscriber writes events to an EventStore. It implements
// engine.EventPublisher so it can be chained behind a bus or installed
// directly on an executor.
type StoreSubscriber struct {
	store  EventStore
	logger *slog.Logger
}

// NewStoreSubscriber creates a new StoreSubscriber.
func NewStoreSubscriber(store EventStore, logger *slog.Logger) *StoreSubscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &StoreSubscriber{
		store:  store,
		logger: logger,
	}
}

// Publish persists a single event to the store.
func (s *StoreSubscriber) Publish(event engine.Event) {
	if err := s.store.Append(context.Background(), event); err != nil {
		s.logger.Error("failed to persist event",
			"invocation_id", event.InvocationID,
			"kind", event.Kind,
			"seq", event.Seq,
			"error", err,
		)
	}
}

// Fanout publishes each event to every publisher in order.
type Fanout []engine.EventPublisher

// Publish forwards the event to all members.
func (f Fanout) Publish(event engine.Event) {
	for _, p := range f {
		if p != nil {
			p.Publish(event)
		}
	}
}

var _ engine.EventPublisher = (*StoreSubscriber)(nil)
var _ engine.EventPublisher = (Fanout)(nil)
