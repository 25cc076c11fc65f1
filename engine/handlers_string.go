package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/vflow-labs/vflow/script"
	"github.com/vflow-labs/vflow/value"
)

// handleFormat substitutes {0}..{N} placeholders in the configured
// template with the stringified argN inputs. Unconnected placeholders
// stay as-is.
func handleFormat(_ context.Context, _ *Context, node *script.Node, inputs map[string]value.Value) (NodeOutput, error) {
	template, ok := configString(node, "template")
	if !ok {
		return NodeOutput{}, errInvalidConfig("format %s has no template", node.ID)
	}
	out := template
	for name, v := range inputs {
		idx, found := strings.CutPrefix(name, "arg")
		if !found {
			continue
		}
		out = strings.ReplaceAll(out, "{"+idx+"}", v.String())
	}
	return resultOut(value.String(out)), nil
}

func handleConcat(_ context.Context, _ *Context, node *script.Node, inputs map[string]value.Value) (NodeOutput, error) {
	a, err := requireInput(node, inputs, "a")
	if err != nil {
		return NodeOutput{}, err
	}
	b, err := requireInput(node, inputs, "b")
	if err != nil {
		return NodeOutput{}, err
	}
	return resultOut(value.String(a.String() + b.String())), nil
}

// handleToString converts with the configured format: auto (display
// form), hex, decimal, binary, or json.
func handleToString(_ context.Context, _ *Context, node *script.Node, inputs map[string]value.Value) (NodeOutput, error) {
	v, err := requireInput(node, inputs, "value")
	if err != nil {
		return NodeOutput{}, err
	}
	format, _ := configString(node, "format")
	switch format {
	case "", "auto":
		return resultOut(value.String(v.String())), nil
	case "hex":
		i, err := v.AsInt()
		if err != nil {
			return NodeOutput{}, errConversion(v.Kind(), value.KindInt)
		}
		return resultOut(value.String(fmt.Sprintf("0x%x", uint64(i)))), nil
	case "decimal":
		i, err := v.AsInt()
		if err != nil {
			return NodeOutput{}, errConversion(v.Kind(), value.KindInt)
		}
		return resultOut(value.String(strconv.FormatInt(i, 10))), nil
	case "binary":
		i, err := v.AsInt()
		if err != nil {
			return NodeOutput{}, errConversion(v.Kind(), value.KindInt)
		}
		return resultOut(value.String("0b" + strconv.FormatUint(uint64(i), 2))), nil
	case "json":
		s, err := value.EncodeJSON(v)
		if err != nil {
			return NodeOutput{}, errConversion(v.Kind(), value.KindString)
		}
		return resultOut(value.String(s)), nil
	default:
		return NodeOutput{}, errInvalidConfig("unknown to_string format %q", format)
	}
}

func handleParseInt(_ context.Context, _ *Context, node *script.Node, inputs map[string]value.Value) (NodeOutput, error) {
	v, err := requireInput(node, inputs, "value")
	if err != nil {
		return NodeOutput{}, err
	}
	i, err := v.AsInt()
	if err != nil {
		return NodeOutput{}, errConversion(v.Kind(), value.KindInt)
	}
	return resultOut(value.Int(i)), nil
}

func handleParseFloat(_ context.Context, _ *Context, node *script.Node, inputs map[string]value.Value) (NodeOutput, error) {
	v, err := requireInput(node, inputs, "value")
	if err != nil {
		return NodeOutput{}, err
	}
	f, err := v.AsFloat()
	if err != nil {
		return NodeOutput{}, errConversion(v.Kind(), value.KindFloat)
	}
	return resultOut(value.Float(f)), nil
}

// handleToPointer is the only place a string becomes an address; the
// JSON decoder never auto-coerces hex strings.
func handleToPointer(_ context.Context, _ *Context, node *script.Node, inputs map[string]value.Value) (NodeOutput, error) {
	v, err := requireInput(node, inputs, "value")
	if err != nil {
		return NodeOutput{}, err
	}
	a, err := v.AsAddress()
	if err != nil {
		return NodeOutput{}, errConversion(v.Kind(), value.KindAddress)
	}
	return resultOut(value.Address(a)), nil
}
