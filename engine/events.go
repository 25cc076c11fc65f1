package engine

import (
	"time"

	"github.com/vflow-labs/vflow/value"
)

// EventKind identifies the type of event emitted by the engine.
type EventKind string

const (
	// EventInvocationStarted is emitted when an event invocation begins.
	EventInvocationStarted EventKind = "invocation.started"

	// EventInvocationFinished is emitted when an invocation completes,
	// successfully or not.
	EventInvocationFinished EventKind = "invocation.finished"

	// EventNodeStarted is emitted when a node begins execution.
	EventNodeStarted EventKind = "node.started"

	// EventNodeFinished is emitted when a node completes successfully.
	EventNodeFinished EventKind = "node.finished"

	// EventNodeFailed is emitted when a node errors.
	EventNodeFailed EventKind = "node.failed"

	// EventLog is emitted for each log node message.
	EventLog EventKind = "log.emitted"

	// EventNotification is the out-of-band stream consumed by the shell UI.
	EventNotification EventKind = "notification"
)

// String returns the string representation of the EventKind.
func (k EventKind) String() string {
	return string(k)
}

// Event is a structured, streamable record of what happened during an
// invocation. Events are kept small; node output values travel only for
// node.finished and are bounded by the value display form.
type Event struct {
	// Kind identifies the event type.
	Kind EventKind `json:"kind"`

	// InvocationID is unique per ExecuteFromEvent call.
	InvocationID string `json:"invocation_id"`

	// ScriptID identifies the script being executed.
	ScriptID string `json:"script_id"`

	// NodeID is the node that produced this event (empty for
	// invocation-level events).
	NodeID string `json:"node_id,omitempty"`

	// NodeType is the node's type (empty for invocation-level events).
	NodeType string `json:"node_type,omitempty"`

	// Time is when the event occurred.
	Time time.Time `json:"time"`

	// Seq orders events within an invocation.
	Seq uint64 `json:"seq"`

	// Message carries the log line or notification body.
	Message string `json:"message,omitempty"`

	// Level is the notification level (info, warning, error).
	Level string `json:"level,omitempty"`

	// Title is the notification title.
	Title string `json:"title,omitempty"`

	// Error carries the failure text for node.failed and failed
	// invocation.finished events.
	Error string `json:"error,omitempty"`

	// Value is the compact display form of a node's primary output.
	Value string `json:"value,omitempty"`

	// Duration is set on node.finished and invocation.finished.
	Duration time.Duration `json:"duration,omitempty"`
}

// EventPublisher receives engine events. The bus package provides
// implementations; a nil publisher disables eventing.
type EventPublisher interface {
	Publish(Event)
}

// EventPublisherFunc adapts a function to EventPublisher.
type EventPublisherFunc func(Event)

// Publish invokes the function.
func (f EventPublisherFunc) Publish(e Event) { f(e) }

// displayValue renders a node output for an event, or "" when absent.
func displayValue(values map[string]value.Value) string {
	if v, ok := values["result"]; ok {
		return v.String()
	}
	if v, ok := values["value"]; ok {
		return v.String()
	}
	return ""
}
