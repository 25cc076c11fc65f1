package engine

import (
	"log/slog"
	"time"

	"github.com/vflow-labs/vflow/script"
	"github.com/vflow-labs/vflow/state"
	"github.com/vflow-labs/vflow/value"
)

// Context is the mutable state of one invocation. It is created by
// ExecuteFromEvent, used on a single goroutine, and dropped when the
// invocation returns. Isolation across concurrent invocations comes
// from each having its own Context; the only shared surfaces are the
// UI store and the persistent script states.
type Context struct {
	// Script is the immutable graph under execution.
	Script *script.Script

	// InvocationID is unique per invocation.
	InvocationID string

	// Variables are the live bindings, seeded from the script's
	// persistent state and committed back on success.
	Variables map[string]value.Value

	// EventValue is the triggering event's payload.
	EventValue value.Value

	// ComponentID is the triggering component, when the event has one.
	ComponentID string

	// UI is the shared component-value store.
	UI *state.UIStore

	// Logger is the host observability sink for log and notification
	// nodes. Never nil.
	Logger *slog.Logger

	cache   map[string]map[string]value.Value
	visited map[string]bool
	loops   []*loopFrame
	logs    []string
	seq     uint64
	emit    func(Event)
}

// loopFrame tracks one active loop: its iteration count and ceiling.
type loopFrame struct {
	iterations int
	max        int
}

func newContext(sc *script.Script, invocationID string, vars map[string]value.Value, ui *state.UIStore, logger *slog.Logger, emit func(Event)) *Context {
	if logger == nil {
		logger = slog.Default()
	}
	if ui == nil {
		ui = state.NewUIStore()
	}
	if vars == nil {
		vars = make(map[string]value.Value)
	}
	return &Context{
		Script:       sc,
		InvocationID: invocationID,
		Variables:    vars,
		UI:           ui,
		Logger:       logger,
		cache:        make(map[string]map[string]value.Value),
		visited:      make(map[string]bool),
		emit:         emit,
	}
}

// CacheOutputs stores (and overwrites) a node's value outputs.
func (c *Context) CacheOutputs(nodeID string, values map[string]value.Value) {
	if values == nil {
		values = map[string]value.Value{}
	}
	c.cache[nodeID] = values
}

// CachedOutput looks up a cached output by node ID and port name.
func (c *Context) CachedOutput(nodeID, portName string) (value.Value, bool) {
	values, ok := c.cache[nodeID]
	if !ok {
		return value.Null(), false
	}
	v, ok := values[portName]
	return v, ok
}

// HasCachedOutputs reports whether the node has executed (or been
// primed) in this invocation.
func (c *Context) HasCachedOutputs(nodeID string) bool {
	_, ok := c.cache[nodeID]
	return ok
}

// dropCached removes a node's cached outputs. Loops use this to force
// pure value nodes to re-evaluate each iteration.
func (c *Context) dropCached(nodeID string) {
	delete(c.cache, nodeID)
}

// enterNode adds a node to the visited set, failing when the node is
// already on the current straight-line flow path.
func (c *Context) enterNode(nodeID string) error {
	if c.visited[nodeID] {
		return errCycleDetected(nodeID)
	}
	c.visited[nodeID] = true
	return nil
}

// leaveNode removes a node from the visited set so a later loop
// iteration may legitimately re-enter it.
func (c *Context) leaveNode(nodeID string) {
	delete(c.visited, nodeID)
}

// pushLoop opens a loop frame with the given iteration ceiling.
func (c *Context) pushLoop(max int) *loopFrame {
	f := &loopFrame{max: max}
	c.loops = append(c.loops, f)
	return f
}

// popLoop closes the innermost loop frame.
func (c *Context) popLoop() {
	if n := len(c.loops); n > 0 {
		c.loops = c.loops[:n-1]
	}
}

// inLoop reports whether any loop frame is open.
func (c *Context) inLoop() bool {
	return len(c.loops) > 0
}

// AppendLog records a log line and mirrors it to the event stream.
func (c *Context) AppendLog(nodeID, message string) {
	c.logs = append(c.logs, message)
	c.Logger.Info(message, "script", c.Script.ID, "node", nodeID)
	c.emitEvent(Event{
		Kind:    EventLog,
		NodeID:  nodeID,
		Message: message,
	})
}

// Notify records a notification in the log buffer and publishes it on
// the out-of-band notification stream.
func (c *Context) Notify(nodeID, level, title, message string) {
	c.logs = append(c.logs, message)
	switch level {
	case "error":
		c.Logger.Error(message, "script", c.Script.ID, "node", nodeID, "title", title)
	case "warning":
		c.Logger.Warn(message, "script", c.Script.ID, "node", nodeID, "title", title)
	default:
		c.Logger.Info(message, "script", c.Script.ID, "node", nodeID, "title", title)
	}
	c.emitEvent(Event{
		Kind:    EventNotification,
		NodeID:  nodeID,
		Level:   level,
		Title:   title,
		Message: message,
	})
}

// Logs returns the accumulated log lines.
func (c *Context) Logs() []string {
	return c.logs
}

func (c *Context) emitEvent(e Event) {
	if c.emit == nil {
		return
	}
	c.seq++
	e.Seq = c.seq
	e.InvocationID = c.InvocationID
	e.ScriptID = c.Script.ID
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	c.emit(e)
}
