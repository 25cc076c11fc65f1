// Package bus distributes engine events to subscribers and optionally
// persists them for replay. It decouples the executor from observers
// such as the shell UI, run-history views and tracing exporters.
package bus

import "github.com/vflow-labs/vflow/engine"

// EventBus distributes events to subscribers.
type EventBus interface {
	// Publish sends an event to all matching subscribers.
	Publish(event engine.Event)

	// Subscribe registers a subscriber for a specific invocation.
	// Returns a Subscription that must be closed when done.
	Subscribe(invocationID string) Subscription

	// SubscribeAll registers a subscriber that receives events from all
	// invocations. Returns a Subscription that must be closed when done.
	SubscribeAll() Subscription

	// Close shuts down the bus and all subscriptions.
	Close() error
}

// Subscription receives events.
type Subscription interface {
	// Events returns a channel of events for this subscription.
	Events() <-chan engine.Event

	// Close unsubscribes and releases resources.
	Close() error
}
