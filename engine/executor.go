package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vflow-labs/vflow/registry"
	"github.com/vflow-labs/vflow/rpc"
	"github.com/vflow-labs/vflow/script"
	"github.com/vflow-labs/vflow/state"
	"github.com/vflow-labs/vflow/value"
)

// Loop iteration ceilings when the node config carries none.
const (
	defaultForIterations  = 10000
	defaultLoopIterations = 1000
)

// Options configures an Executor. Zero fields take defaults.
type Options struct {
	// UI is the shared component-value store. Defaults to a fresh store.
	UI *state.UIStore

	// States holds per-script persistent variables. Defaults to a fresh
	// store.
	States *state.ScriptStates

	// Bridge reaches target-side nodes. Defaults to an unattached bridge.
	Bridge *rpc.Bridge

	// Logger is the host observability sink. Defaults to slog.Default().
	Logger *slog.Logger

	// Publisher receives engine events; nil disables eventing.
	Publisher EventPublisher

	// Registry classifies node types. Defaults to registry.Global().
	Registry *registry.Registry
}

// Executor runs scripts in response to external events. It is safe for
// concurrent use: each invocation gets its own Context, and the shared
// surfaces (UI store, script states, bridge) carry their own locks.
type Executor struct {
	ui        *state.UIStore
	states    *state.ScriptStates
	bridge    *rpc.Bridge
	logger    *slog.Logger
	publisher EventPublisher
	registry  *registry.Registry
}

// New creates an executor.
func New(opts Options) *Executor {
	if opts.UI == nil {
		opts.UI = state.NewUIStore()
	}
	if opts.States == nil {
		opts.States = state.NewScriptStates()
	}
	if opts.Bridge == nil {
		opts.Bridge = rpc.NewBridge()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Registry == nil {
		opts.Registry = registry.Global()
	}
	return &Executor{
		ui:        opts.UI,
		states:    opts.States,
		bridge:    opts.Bridge,
		logger:    opts.Logger,
		publisher: opts.Publisher,
		registry:  opts.Registry,
	}
}

// UI returns the shared component-value store.
func (e *Executor) UI() *state.UIStore { return e.ui }

func (e *Executor) publish(ev Event) {
	if e.publisher != nil {
		e.publisher.Publish(ev)
	}
}

// SetSession binds the RPC bridge to a target session.
func (e *Executor) SetSession(id string) { e.bridge.SetSession(id) }

// ClearSession detaches the RPC bridge. Persistent variable state is
// orthogonal to sessions and survives this.
func (e *Executor) ClearSession() { e.bridge.ClearSession() }

// SetRPCCaller installs the caller capability used for target nodes.
func (e *Executor) SetRPCCaller(c rpc.Caller) { e.bridge.SetCaller(c) }

// SetRPCTimeout overrides the target response deadline.
func (e *Executor) SetRPCTimeout(d time.Duration) { e.bridge.SetTimeout(d) }

// ClearScriptState drops one script's persistent variables.
func (e *Executor) ClearScriptState(scriptID string) { e.states.Clear(scriptID) }

// ClearAllStates drops every script's persistent variables.
func (e *Executor) ClearAllStates() { e.states.ClearAll() }

// ScriptState returns a copy of a script's persistent variables.
func (e *Executor) ScriptState(scriptID string) (map[string]value.Value, bool) {
	return e.states.Get(scriptID)
}

// Result is the outcome of one invocation. Logs are returned even on
// failure; persistent state is committed only on success.
type Result struct {
	Success   bool                   `json:"success"`
	Variables map[string]value.Value `json:"variables"`
	Logs      []string               `json:"logs"`
	Error     string                 `json:"error,omitempty"`
}

// ExecuteFromEvent runs the script from the given event entry node.
// componentID may be empty when the event has no originating component.
func (e *Executor) ExecuteFromEvent(ctx context.Context, sc *script.Script, eventNodeID string, eventValue value.Value, componentID string) Result {
	invocationID := uuid.NewString()
	vars := e.states.Seed(sc)
	ec := newContext(sc, invocationID, vars, e.ui, e.logger, e.publish)
	ec.EventValue = eventValue
	ec.ComponentID = componentID

	fail := func(err error) Result {
		ec.emitEvent(Event{Kind: EventInvocationFinished, Error: err.Error()})
		return Result{
			Success:   false,
			Variables: copyVars(ec.Variables),
			Logs:      ec.Logs(),
			Error:     err.Error(),
		}
	}

	eventNode, ok := sc.NodeByID(eventNodeID)
	if !ok {
		return fail(errNodeNotFound(eventNodeID))
	}
	if !e.registry.IsEvent(eventNode.Type) {
		return fail(errInvalidOperation("node %s (%s) is not an event entry", eventNode.ID, eventNode.Type))
	}

	started := time.Now()
	ec.emitEvent(Event{Kind: EventInvocationStarted, NodeID: eventNode.ID, NodeType: eventNode.Type})

	ec.CacheOutputs(eventNode.ID, primeEventOutputs(eventNode.Type, eventValue, componentID))

	for _, conn := range sc.FlowConnectionsFrom(eventNode.ID, "exec") {
		err := e.executeFlow(ctx, ec, conn.To.Node)
		if err == nil {
			continue
		}
		// A control signal escaping to the top is end-of-path, not an
		// error.
		if isControlSignal(err) {
			continue
		}
		return fail(err)
	}

	e.states.Commit(sc.ID, ec.Variables)
	ec.emitEvent(Event{Kind: EventInvocationFinished, Duration: time.Since(started)})
	return Result{
		Success:   true,
		Variables: copyVars(ec.Variables),
		Logs:      ec.Logs(),
	}
}

// primeEventOutputs builds the cache entry for the entry node: the
// event payload always, the component when supplied, and the
// kind-specific alias for timer, hotkey and session events.
func primeEventOutputs(nodeType string, eventValue value.Value, componentID string) map[string]value.Value {
	outputs := map[string]value.Value{"value": eventValue}
	if componentID != "" {
		outputs["componentId"] = value.String(componentID)
	}
	switch nodeType {
	case "event_timer":
		outputs["tick"] = eventValue
	case "event_hotkey":
		outputs["key"] = eventValue
	case "event_attach", "event_detach":
		outputs["session"] = eventValue
	}
	return outputs
}

// executeFlow pushes control through one node and onward along its flow
// output. The visited set rejects re-entry within a single straight-line
// traversal; leaving on return admits re-entry from later loop
// iterations.
func (e *Executor) executeFlow(ctx context.Context, ec *Context, nodeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	node, ok := ec.Script.NodeByID(nodeID)
	if !ok {
		return errNodeNotFound(nodeID)
	}
	if err := ec.enterNode(nodeID); err != nil {
		return err
	}
	defer ec.leaveNode(nodeID)

	if isLoopType(node.Type) {
		return e.executeLoop(ctx, ec, node)
	}

	inputs, err := e.collectInputs(ctx, ec, node)
	if err != nil {
		return err
	}
	out, err := e.dispatch(ctx, ec, node, inputs)
	if err != nil {
		return err
	}
	ec.CacheOutputs(node.ID, out.Values)

	if out.FlowOutput == "" {
		return nil
	}
	for _, conn := range ec.Script.FlowConnectionsFrom(node.ID, out.FlowOutput) {
		if err := e.executeFlow(ctx, ec, conn.To.Node); err != nil {
			return err
		}
	}
	return nil
}

// dispatch runs one node host-side or target-side and emits node events.
func (e *Executor) dispatch(ctx context.Context, ec *Context, node *script.Node, inputs map[string]value.Value) (NodeOutput, error) {
	ec.emitEvent(Event{Kind: EventNodeStarted, NodeID: node.ID, NodeType: node.Type})
	started := time.Now()

	out, err := e.dispatchInner(ctx, ec, node, inputs)
	if err != nil && !isControlSignal(err) {
		ec.emitEvent(Event{Kind: EventNodeFailed, NodeID: node.ID, NodeType: node.Type, Error: err.Error()})
		return out, err
	}
	ec.emitEvent(Event{
		Kind:     EventNodeFinished,
		NodeID:   node.ID,
		NodeType: node.Type,
		Duration: time.Since(started),
		Value:    displayValue(out.Values),
	})
	return out, err
}

func (e *Executor) dispatchInner(ctx context.Context, ec *Context, node *script.Node, inputs map[string]value.Value) (NodeOutput, error) {
	if e.registry.RuntimeFor(node.Type) == registry.RuntimeTarget {
		outputs, err := e.bridge.ExecuteNode(ctx, node.Type, node.Config, inputs)
		if err != nil {
			return NodeOutput{}, mapBridgeError(err)
		}
		// Target nodes advance flow on exec implicitly.
		return NodeOutput{Values: outputs, FlowOutput: "exec"}, nil
	}

	handler, ok := hostHandlerFor(node.Type)
	if !ok {
		return NodeOutput{}, errInvalidOperation("node type %q cannot be executed directly", node.Type)
	}
	return handler(ctx, ec, node, inputs)
}

// mapBridgeError folds the bridge's error types into the engine
// taxonomy. Context errors pass through so cancellation keeps its
// identity.
func mapBridgeError(err error) error {
	var timeout *rpc.TimeoutError
	var remote *rpc.RemoteError
	switch {
	case errors.Is(err, rpc.ErrNotAttached):
		return &Error{Kind: KindNotAttached}
	case errors.As(err, &timeout):
		return errRPCTimeout(timeout.Timeout)
	case errors.As(err, &remote):
		return NewError(KindRPCError, "%s", remote.Message)
	default:
		return err
	}
}

// collectInputs gathers the connected value inputs of a node. Cached
// producers are read from the cache; event nodes and flow-driven nodes
// that have not executed are skipped; pure value nodes are pulled
// lazily (and cached) on first demand.
func (e *Executor) collectInputs(ctx context.Context, ec *Context, node *script.Node) (map[string]value.Value, error) {
	inputs := make(map[string]value.Value)
	for i := range node.Inputs {
		port := &node.Inputs[i]
		if port.Kind != script.PortValue {
			continue
		}
		conn, ok := ec.Script.IncomingValueConnection(node.ID, port.ID)
		if !ok {
			continue
		}
		src, ok := ec.Script.NodeByID(conn.From.Node)
		if !ok {
			return nil, errNodeNotFound(conn.From.Node)
		}
		srcPort, ok := src.OutputByID(conn.From.Port)
		if !ok {
			return nil, errPortNotFound(src.ID, conn.From.Port)
		}

		if v, hit := ec.CachedOutput(src.ID, srcPort.Name); hit {
			inputs[port.Name] = v
			continue
		}
		if e.registry.IsEvent(src.Type) {
			// An event whose outputs are not cached has not fired in
			// this invocation.
			continue
		}
		if src.HasFlowInput() {
			// Flow-driven producers publish on execution; uncached means
			// not yet reached.
			continue
		}
		if err := e.evaluateValueNode(ctx, ec, src); err != nil {
			return nil, err
		}
		if v, hit := ec.CachedOutput(src.ID, srcPort.Name); hit {
			inputs[port.Name] = v
		}
	}
	return inputs, nil
}

// evaluateValueNode is the lazy pull path for pure value nodes. It
// shares the visited set with flow traversal, so value cycles are
// rejected the same way flow cycles are.
func (e *Executor) evaluateValueNode(ctx context.Context, ec *Context, node *script.Node) error {
	if err := ec.enterNode(node.ID); err != nil {
		return err
	}
	defer ec.leaveNode(node.ID)

	inputs, err := e.collectInputs(ctx, ec, node)
	if err != nil {
		return err
	}
	out, err := e.dispatch(ctx, ec, node, inputs)
	if err != nil {
		return err
	}
	ec.CacheOutputs(node.ID, out.Values)
	return nil
}

func copyVars(vars map[string]value.Value) map[string]value.Value {
	out := make(map[string]value.Value, len(vars))
	for k, v := range vars {
		out[k] = v
	}
	return out
}
