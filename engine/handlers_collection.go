package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/vflow-labs/vflow/script"
	"github.com/vflow-labs/vflow/value"
)

// maxArrayCreateItems bounds the item0..itemN ports scanned on an
// array_create node.
const maxArrayCreateItems = 16

func handleArrayCreate(_ context.Context, _ *Context, node *script.Node, inputs map[string]value.Value) (NodeOutput, error) {
	var items []value.Value
	for i := 0; i < maxArrayCreateItems; i++ {
		key := fmt.Sprintf("item%d", i)
		v, ok := inputs[key]
		if !ok {
			// Inline literals from the editor live in config.
			if v, ok = configValue(node, key); !ok {
				continue
			}
		}
		items = append(items, v)
	}
	return resultOut(value.List(items...)), nil
}

func handleArrayGet(_ context.Context, _ *Context, node *script.Node, inputs map[string]value.Value) (NodeOutput, error) {
	arr, idx, err := arrayAndIndex(node, inputs)
	if err != nil {
		return NodeOutput{}, err
	}
	items := arr.ListVal()
	if idx < 0 || idx >= int64(len(items)) {
		return NodeOutput{}, errIndexOutOfBounds(idx, len(items))
	}
	return resultOut(items[idx]), nil
}

func handleArraySet(_ context.Context, _ *Context, node *script.Node, inputs map[string]value.Value) (NodeOutput, error) {
	arr, idx, err := arrayAndIndex(node, inputs)
	if err != nil {
		return NodeOutput{}, err
	}
	v, err := requireInput(node, inputs, "value")
	if err != nil {
		return NodeOutput{}, err
	}
	items := arr.CloneList()
	if idx < 0 || idx >= int64(len(items)) {
		return NodeOutput{}, errIndexOutOfBounds(idx, len(items))
	}
	items[idx] = v
	return resultOut(value.List(items...)), nil
}

func handleArrayPush(_ context.Context, _ *Context, node *script.Node, inputs map[string]value.Value) (NodeOutput, error) {
	arr, err := requireArray(node, inputs, "array")
	if err != nil {
		return NodeOutput{}, err
	}
	v, err := requireInput(node, inputs, "value")
	if err != nil {
		return NodeOutput{}, err
	}
	items := append(arr.CloneList(), v)
	return resultOut(value.List(items...)), nil
}

func handleArrayLength(_ context.Context, _ *Context, node *script.Node, inputs map[string]value.Value) (NodeOutput, error) {
	arr, err := requireArray(node, inputs, "array")
	if err != nil {
		return NodeOutput{}, err
	}
	return resultOut(value.Int(int64(len(arr.ListVal())))), nil
}

// handleArrayFind scans linearly by value equality; absent yields -1.
func handleArrayFind(_ context.Context, _ *Context, node *script.Node, inputs map[string]value.Value) (NodeOutput, error) {
	arr, err := requireArray(node, inputs, "array")
	if err != nil {
		return NodeOutput{}, err
	}
	needle, err := requireInput(node, inputs, "value")
	if err != nil {
		return NodeOutput{}, err
	}
	for i, item := range arr.ListVal() {
		if item.Equal(needle) {
			return resultOut(value.Int(int64(i))), nil
		}
	}
	return resultOut(value.Int(-1)), nil
}

// handleMapGet reads a map entry by the key's string form. A numeric key
// against a list accesses by index (out of range fails). A missing map
// key yields null.
func handleMapGet(_ context.Context, _ *Context, node *script.Node, inputs map[string]value.Value) (NodeOutput, error) {
	m, err := requireInput(node, inputs, "map")
	if err != nil {
		return NodeOutput{}, err
	}
	key, err := requireInput(node, inputs, "key")
	if err != nil {
		return NodeOutput{}, err
	}

	switch m.Kind() {
	case value.KindMap:
		v, ok := m.MapVal()[mapKey(key)]
		if !ok {
			v = value.Null()
		}
		return resultOut(v), nil
	case value.KindList:
		idx, err := key.AsInt()
		if err != nil {
			return NodeOutput{}, errTypeMismatch("number", key.Kind())
		}
		items := m.ListVal()
		if idx < 0 || idx >= int64(len(items)) {
			return NodeOutput{}, errIndexOutOfBounds(idx, len(items))
		}
		return resultOut(items[idx]), nil
	default:
		return NodeOutput{}, errTypeMismatch("map or list", m.Kind())
	}
}

func handleMapSet(_ context.Context, _ *Context, node *script.Node, inputs map[string]value.Value) (NodeOutput, error) {
	m, err := requireInput(node, inputs, "map")
	if err != nil {
		return NodeOutput{}, err
	}
	key, err := requireInput(node, inputs, "key")
	if err != nil {
		return NodeOutput{}, err
	}
	v, err := requireInput(node, inputs, "value")
	if err != nil {
		return NodeOutput{}, err
	}

	switch m.Kind() {
	case value.KindMap:
		out := m.CloneMap()
		out[mapKey(key)] = v
		return resultOut(value.Map(out)), nil
	case value.KindList:
		idx, err := key.AsInt()
		if err != nil {
			return NodeOutput{}, errTypeMismatch("number", key.Kind())
		}
		items := m.CloneList()
		if idx < 0 || idx >= int64(len(items)) {
			return NodeOutput{}, errIndexOutOfBounds(idx, len(items))
		}
		items[idx] = v
		return resultOut(value.List(items...)), nil
	default:
		return NodeOutput{}, errTypeMismatch("map or list", m.Kind())
	}
}

func handleMapKeys(_ context.Context, _ *Context, node *script.Node, inputs map[string]value.Value) (NodeOutput, error) {
	m, err := requireInput(node, inputs, "map")
	if err != nil {
		return NodeOutput{}, err
	}
	if m.Kind() != value.KindMap {
		return NodeOutput{}, errTypeMismatch("map", m.Kind())
	}
	keys := make([]string, 0, len(m.MapVal()))
	for k := range m.MapVal() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	items := make([]value.Value, len(keys))
	for i, k := range keys {
		items[i] = value.String(k)
	}
	return resultOut(value.List(items...)), nil
}

func requireArray(node *script.Node, inputs map[string]value.Value, name string) (value.Value, error) {
	v, err := requireInput(node, inputs, name)
	if err != nil {
		return value.Null(), err
	}
	if v.Kind() != value.KindList {
		return value.Null(), errTypeMismatch("list", v.Kind())
	}
	return v, nil
}

func arrayAndIndex(node *script.Node, inputs map[string]value.Value) (value.Value, int64, error) {
	arr, err := requireArray(node, inputs, "array")
	if err != nil {
		return value.Null(), 0, err
	}
	idxVal, err := requireInput(node, inputs, "index")
	if err != nil {
		return value.Null(), 0, err
	}
	idx, err := idxVal.AsInt()
	if err != nil {
		return value.Null(), 0, errTypeMismatch("number", idxVal.Kind())
	}
	return arr, idx, nil
}

// mapKey renders a key value as a map key string: raw for strings, the
// display form otherwise.
func mapKey(key value.Value) string {
	return key.String()
}
