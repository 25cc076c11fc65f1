package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/vflow-labs/vflow/script"
	"github.com/vflow-labs/vflow/value"
)

func handleIf(_ context.Context, _ *Context, node *script.Node, inputs map[string]value.Value) (NodeOutput, error) {
	cond, err := requireInput(node, inputs, "condition")
	if err != nil {
		return NodeOutput{}, err
	}
	if cond.Truthy() {
		return NodeOutput{FlowOutput: "true"}, nil
	}
	return NodeOutput{FlowOutput: "false"}, nil
}

// handleSwitch compares the value's string form against the configured
// case list in declaration order; the matching index selects the caseN
// flow output, otherwise default.
func handleSwitch(_ context.Context, _ *Context, node *script.Node, inputs map[string]value.Value) (NodeOutput, error) {
	v, err := requireInput(node, inputs, "value")
	if err != nil {
		return NodeOutput{}, err
	}
	rawCases, ok := configValue(node, "cases")
	if !ok || rawCases.Kind() != value.KindList {
		return NodeOutput{}, errInvalidConfig("switch %s has no cases list", node.ID)
	}
	subject := v.String()
	for i, c := range rawCases.ListVal() {
		if c.String() == subject {
			return NodeOutput{FlowOutput: fmt.Sprintf("case%d", i)}, nil
		}
	}
	return NodeOutput{FlowOutput: "default"}, nil
}

// handleDelay suspends the invocation for the configured millisecond
// duration. Cancellation propagates immediately.
func handleDelay(ctx context.Context, _ *Context, node *script.Node, _ map[string]value.Value) (NodeOutput, error) {
	ms, ok := configInt(node, "ms")
	if !ok || ms < 0 {
		return NodeOutput{}, errInvalidConfig("delay %s has no ms duration", node.ID)
	}
	timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return NodeOutput{}, ctx.Err()
	case <-timer.C:
	}
	return execOut(nil), nil
}

func handleBreak(_ context.Context, ec *Context, node *script.Node, _ map[string]value.Value) (NodeOutput, error) {
	if !ec.inLoop() {
		return NodeOutput{}, errInvalidOperation("break outside loop (node %s)", node.ID)
	}
	return NodeOutput{}, errBreakSignal
}

func handleContinue(_ context.Context, ec *Context, node *script.Node, _ map[string]value.Value) (NodeOutput, error) {
	if !ec.inLoop() {
		return NodeOutput{}, errInvalidOperation("continue outside loop (node %s)", node.ID)
	}
	return NodeOutput{}, errContinueSignal
}
