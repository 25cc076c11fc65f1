package engine

import (
	"context"

	"github.com/vflow-labs/vflow/script"
	"github.com/vflow-labs/vflow/value"
)

// NodeOutput is what a node execution produces: its value outputs by
// port name, and the flow output control should follow next ("" when
// the node does not advance flow).
type NodeOutput struct {
	Values     map[string]value.Value
	FlowOutput string
}

// valuesOut builds a NodeOutput that only publishes values.
func valuesOut(values map[string]value.Value) NodeOutput {
	return NodeOutput{Values: values}
}

// resultOut publishes a single "result" value.
func resultOut(v value.Value) NodeOutput {
	return NodeOutput{Values: map[string]value.Value{"result": v}}
}

// execOut advances the "exec" flow output with the given values.
func execOut(values map[string]value.Value) NodeOutput {
	return NodeOutput{Values: values, FlowOutput: "exec"}
}

// HandlerFunc executes one host node kind. Inputs are keyed by port
// name; only connected (and successfully evaluated) inputs appear.
type HandlerFunc func(ctx context.Context, ec *Context, node *script.Node, inputs map[string]value.Value) (NodeOutput, error)

// hostHandlers maps node types to their handler. Loop kinds are absent
// on purpose: the executor drives them, because they repeatedly execute
// child flow. Adding a host node kind is a map entry plus a handler.
var hostHandlers = map[string]HandlerFunc{
	"const_string":  handleConstString,
	"const_number":  handleConstNumber,
	"const_bool":    handleConstBool,
	"const_address": handleConstAddress,

	"math":    handleMath,
	"compare": handleCompare,
	"logic":   handleLogic,

	"format":      handleFormat,
	"concat":      handleConcat,
	"to_string":   handleToString,
	"parse_int":   handleParseInt,
	"parse_float": handleParseFloat,
	"to_pointer":  handleToPointer,

	"array_create": handleArrayCreate,
	"array_get":    handleArrayGet,
	"array_set":    handleArraySet,
	"array_push":   handleArrayPush,
	"array_length": handleArrayLength,
	"array_find":   handleArrayFind,
	"map_get":      handleMapGet,
	"map_set":      handleMapSet,
	"map_keys":     handleMapKeys,

	"declare_variable": handleDeclareVariable,
	"set_variable":     handleSetVariable,
	"get_variable":     handleGetVariable,

	"ui_get_value": handleUIGetValue,
	"ui_set_value": handleUISetValue,
	"log":          handleLog,
	"notification": handleNotification,

	"if":       handleIf,
	"switch":   handleSwitch,
	"delay":    handleDelay,
	"break":    handleBreak,
	"continue": handleContinue,
}

// hostHandlerFor finds the handler for a host node type.
func hostHandlerFor(nodeType string) (HandlerFunc, bool) {
	h, ok := hostHandlers[nodeType]
	return h, ok
}

// isLoopType reports whether the executor must drive the node itself.
func isLoopType(nodeType string) bool {
	switch nodeType {
	case "for_each", "for_range", "loop":
		return true
	default:
		return false
	}
}

// Config accessors. Node configuration comes from the editor as loose
// JSON, so every read goes through value.FromAny.

func configValue(node *script.Node, key string) (value.Value, bool) {
	raw, ok := node.Config[key]
	if !ok {
		return value.Null(), false
	}
	return value.FromAny(raw), true
}

func configString(node *script.Node, key string) (string, bool) {
	v, ok := configValue(node, key)
	if !ok || v.Kind() != value.KindString {
		return "", false
	}
	return v.StringVal(), true
}

func configBool(node *script.Node, key string) bool {
	v, ok := configValue(node, key)
	return ok && v.Truthy()
}

func configInt(node *script.Node, key string) (int64, bool) {
	v, ok := configValue(node, key)
	if !ok {
		return 0, false
	}
	i, err := v.AsInt()
	if err != nil {
		return 0, false
	}
	return i, true
}

// requireInput fetches a named input, failing with InvalidConfig when
// the port is not connected.
func requireInput(node *script.Node, inputs map[string]value.Value, name string) (value.Value, error) {
	v, ok := inputs[name]
	if !ok {
		return value.Null(), errInvalidConfig("node %s (%s) requires input %q", node.ID, node.Type, name)
	}
	return v, nil
}

// inputOr fetches a named input with a fallback.
func inputOr(inputs map[string]value.Value, name string, fallback value.Value) value.Value {
	if v, ok := inputs[name]; ok {
		return v
	}
	return fallback
}
