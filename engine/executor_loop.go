package engine

import (
	"context"
	"errors"

	"github.com/vflow-labs/vflow/script"
	"github.com/vflow-labs/vflow/value"
)

// executeLoop drives the three loop node kinds. Loops are driven here
// rather than in handlers so the executor can re-run body subgraphs,
// purge per-iteration caches and field break/continue signals.
func (e *Executor) executeLoop(ctx context.Context, ec *Context, node *script.Node) error {
	switch node.Type {
	case "for_each":
		return e.executeForEach(ctx, ec, node)
	case "for_range":
		return e.executeForRange(ctx, ec, node)
	case "loop":
		return e.executeWhileLoop(ctx, ec, node)
	default:
		return errInvalidOperation("node type %q is not a loop", node.Type)
	}
}

func (e *Executor) executeForEach(ctx context.Context, ec *Context, node *script.Node) error {
	inputs, err := e.collectInputs(ctx, ec, node)
	if err != nil {
		return err
	}
	array, err := requireInput(node, inputs, "array")
	if err != nil {
		return err
	}
	if array.Kind() != value.KindList {
		return errTypeMismatch("array", array.Kind())
	}
	items := array.ListVal()

	max := loopMax(node, defaultForIterations)
	frame := ec.pushLoop(max)
	for i, elem := range items {
		frame.iterations++
		if frame.iterations > max {
			ec.popLoop()
			return errLoopLimitExceeded(max)
		}
		e.dropPureCaches(ec)
		ec.CacheOutputs(node.ID, map[string]value.Value{
			"element": elem,
			"index":   value.Int(int64(i)),
		})
		stop, err := e.runLoopBody(ctx, ec, node)
		if err != nil {
			ec.popLoop()
			return err
		}
		if stop {
			break
		}
	}
	ec.popLoop()
	return e.followDone(ctx, ec, node)
}

func (e *Executor) executeForRange(ctx context.Context, ec *Context, node *script.Node) error {
	inputs, err := e.collectInputs(ctx, ec, node)
	if err != nil {
		return err
	}
	start, err := rangeBound(node, inputs, "start", 0)
	if err != nil {
		return err
	}
	end, err := rangeBound(node, inputs, "end", 0)
	if err != nil {
		return err
	}
	step, err := rangeBound(node, inputs, "step", 1)
	if err != nil {
		return err
	}
	if step == 0 {
		return errInvalidOperation("for_range step must be non-zero")
	}

	max := loopMax(node, defaultForIterations)
	frame := ec.pushLoop(max)
	for i := start; (step > 0 && i < end) || (step < 0 && i > end); i += step {
		frame.iterations++
		if frame.iterations > max {
			ec.popLoop()
			return errLoopLimitExceeded(max)
		}
		e.dropPureCaches(ec)
		ec.CacheOutputs(node.ID, map[string]value.Value{"index": value.Int(i)})
		stop, err := e.runLoopBody(ctx, ec, node)
		if err != nil {
			ec.popLoop()
			return err
		}
		if stop {
			break
		}
	}
	ec.popLoop()
	return e.followDone(ctx, ec, node)
}

func (e *Executor) executeWhileLoop(ctx context.Context, ec *Context, node *script.Node) error {
	max := loopMax(node, defaultLoopIterations)
	frame := ec.pushLoop(max)
	for iter := int64(0); ; iter++ {
		e.dropPureCaches(ec)
		// Re-collect so the condition is evaluated fresh each pass.
		inputs, err := e.collectInputs(ctx, ec, node)
		if err != nil {
			ec.popLoop()
			return err
		}
		cond, err := requireInput(node, inputs, "condition")
		if err != nil {
			ec.popLoop()
			return err
		}
		if !cond.Truthy() {
			break
		}
		frame.iterations++
		if frame.iterations > max {
			ec.popLoop()
			return errLoopLimitExceeded(max)
		}
		ec.CacheOutputs(node.ID, map[string]value.Value{"index": value.Int(iter)})
		stop, err := e.runLoopBody(ctx, ec, node)
		if err != nil {
			ec.popLoop()
			return err
		}
		if stop {
			break
		}
	}
	ec.popLoop()
	return e.followDone(ctx, ec, node)
}

// runLoopBody executes the body subgraph once. It reports stop=true
// when a break signal surfaced; a continue signal abandons the
// remaining body fan-out and moves to the next iteration.
func (e *Executor) runLoopBody(ctx context.Context, ec *Context, node *script.Node) (stop bool, err error) {
	for _, conn := range ec.Script.FlowConnectionsFrom(node.ID, "body") {
		err := e.executeFlow(ctx, ec, conn.To.Node)
		if err == nil {
			continue
		}
		if errors.Is(err, errBreakSignal) {
			return true, nil
		}
		if errors.Is(err, errContinueSignal) {
			return false, nil
		}
		return false, err
	}
	return false, nil
}

// followDone runs the continuation after the loop has exited, with the
// loop frame already popped so stray break/continue there are invalid.
func (e *Executor) followDone(ctx context.Context, ec *Context, node *script.Node) error {
	for _, conn := range ec.Script.FlowConnectionsFrom(node.ID, "done") {
		if err := e.executeFlow(ctx, ec, conn.To.Node); err != nil {
			return err
		}
	}
	return nil
}

// dropPureCaches invalidates cached outputs of pure value nodes so
// conditions and derived values recompute against the current iteration.
// Event outputs and flow-driven outputs stay put.
func (e *Executor) dropPureCaches(ec *Context) {
	for i := range ec.Script.Nodes {
		n := &ec.Script.Nodes[i]
		if n.HasFlowInput() || e.registry.IsEvent(n.Type) {
			continue
		}
		ec.dropCached(n.ID)
	}
}

// loopMax reads the iteration ceiling from node config, guarding
// against non-positive values.
func loopMax(node *script.Node, def int) int {
	n, ok := configInt(node, "maxIterations")
	if !ok || n <= 0 {
		return def
	}
	return int(n)
}

// rangeBound resolves a for_range bound from its input port, falling
// back to node config, then to a default.
func rangeBound(node *script.Node, inputs map[string]value.Value, name string, def int64) (int64, error) {
	if v, ok := inputs[name]; ok && !v.IsNull() {
		n, err := v.AsInt()
		if err != nil {
			return 0, errTypeMismatch("integer", v.Kind())
		}
		return n, nil
	}
	if raw, ok := configValue(node, name); ok {
		n, err := raw.AsInt()
		if err != nil {
			return 0, errTypeMismatch("integer", raw.Kind())
		}
		return n, nil
	}
	return def, nil
}
