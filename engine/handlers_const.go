package engine

import (
	"context"

	"github.com/vflow-labs/vflow/script"
	"github.com/vflow-labs/vflow/value"
)

func handleConstString(_ context.Context, _ *Context, node *script.Node, _ map[string]value.Value) (NodeOutput, error) {
	v, ok := configValue(node, "value")
	if !ok {
		return NodeOutput{}, errInvalidConfig("const_string %s has no value", node.ID)
	}
	if v.Kind() != value.KindString {
		v = value.String(v.String())
	}
	return valuesOut(map[string]value.Value{"value": v}), nil
}

// handleConstNumber emits an integer unless the configured literal has a
// fraction or the isFloat hint is set.
func handleConstNumber(_ context.Context, _ *Context, node *script.Node, _ map[string]value.Value) (NodeOutput, error) {
	v, ok := configValue(node, "value")
	if !ok {
		return NodeOutput{}, errInvalidConfig("const_number %s has no value", node.ID)
	}
	if configBool(node, "isFloat") {
		f, err := v.AsFloat()
		if err != nil {
			return NodeOutput{}, errConversion(v.Kind(), value.KindFloat)
		}
		return valuesOut(map[string]value.Value{"value": value.Float(f)}), nil
	}
	switch v.Kind() {
	case value.KindInt, value.KindFloat:
		return valuesOut(map[string]value.Value{"value": v}), nil
	case value.KindString:
		if i, err := v.AsInt(); err == nil {
			return valuesOut(map[string]value.Value{"value": value.Int(i)}), nil
		}
		f, err := v.AsFloat()
		if err != nil {
			return NodeOutput{}, errConversion(value.KindString, value.KindFloat)
		}
		return valuesOut(map[string]value.Value{"value": value.Float(f)}), nil
	default:
		return NodeOutput{}, errTypeMismatch("number", v.Kind())
	}
}

func handleConstBool(_ context.Context, _ *Context, node *script.Node, _ map[string]value.Value) (NodeOutput, error) {
	v, ok := configValue(node, "value")
	if !ok {
		return NodeOutput{}, errInvalidConfig("const_bool %s has no value", node.ID)
	}
	return valuesOut(map[string]value.Value{"value": value.Bool(v.Truthy())}), nil
}

// handleConstAddress accepts hex strings ("0x…") and plain numbers.
func handleConstAddress(_ context.Context, _ *Context, node *script.Node, _ map[string]value.Value) (NodeOutput, error) {
	v, ok := configValue(node, "value")
	if !ok {
		return NodeOutput{}, errInvalidConfig("const_address %s has no value", node.ID)
	}
	a, err := v.AsAddress()
	if err != nil {
		return NodeOutput{}, errConversion(v.Kind(), value.KindAddress)
	}
	return valuesOut(map[string]value.Value{"value": value.Address(a)}), nil
}
