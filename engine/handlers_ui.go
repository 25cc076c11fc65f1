package engine

import (
	"context"

	"github.com/vflow-labs/vflow/script"
	"github.com/vflow-labs/vflow/value"
)

func handleUIGetValue(_ context.Context, ec *Context, node *script.Node, _ map[string]value.Value) (NodeOutput, error) {
	componentID, ok := configString(node, "componentId")
	if !ok {
		return NodeOutput{}, errInvalidConfig("ui_get_value %s has no componentId", node.ID)
	}
	v, found := ec.UI.Get(componentID)
	if !found {
		return NodeOutput{}, errUIComponentNotFound(componentID)
	}
	return execOut(map[string]value.Value{"value": v}), nil
}

func handleUISetValue(_ context.Context, ec *Context, node *script.Node, inputs map[string]value.Value) (NodeOutput, error) {
	componentID, ok := configString(node, "componentId")
	if !ok {
		return NodeOutput{}, errInvalidConfig("ui_set_value %s has no componentId", node.ID)
	}
	v, err := requireInput(node, inputs, "value")
	if err != nil {
		return NodeOutput{}, err
	}
	ec.UI.Set(componentID, v)
	return execOut(nil), nil
}

// handleLog appends the message's string form to the invocation log and
// the host sink, then advances flow.
func handleLog(_ context.Context, ec *Context, node *script.Node, inputs map[string]value.Value) (NodeOutput, error) {
	msg := inputOr(inputs, "message", value.Null())
	if msg.IsNull() {
		if cv, ok := configValue(node, "message"); ok {
			msg = cv
		}
	}
	ec.AppendLog(node.ID, msg.String())
	return execOut(nil), nil
}

// handleNotification logs the message and publishes it on the
// out-of-band notification stream with its title and level.
func handleNotification(_ context.Context, ec *Context, node *script.Node, inputs map[string]value.Value) (NodeOutput, error) {
	msg, err := requireInput(node, inputs, "message")
	if err != nil {
		if cv, ok := configValue(node, "message"); ok {
			msg = cv
		} else {
			return NodeOutput{}, err
		}
	}
	title := inputOr(inputs, "title", value.Null())
	if title.IsNull() {
		if cv, ok := configValue(node, "title"); ok {
			title = cv
		}
	}
	titleStr := ""
	if !title.IsNull() {
		titleStr = title.String()
	}
	level, _ := configString(node, "level")
	switch level {
	case "", "info":
		level = "info"
	case "warning", "error":
	default:
		return NodeOutput{}, errInvalidConfig("unknown notification level %q", level)
	}
	ec.Notify(node.ID, level, titleStr, msg.String())
	return execOut(nil), nil
}
