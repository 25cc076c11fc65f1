package engine

import (
	"context"

	"github.com/vflow-labs/vflow/script"
	"github.com/vflow-labs/vflow/value"
)

// resolveVariableName maps a node's variable reference to the declared
// runtime name. Config carries either "variable" (a declaration ID, the
// stable reference the editor writes) or "name" (a literal name).
func resolveVariableName(ec *Context, node *script.Node) (string, error) {
	if id, ok := configString(node, "variable"); ok {
		if decl, found := ec.Script.VariableByID(id); found {
			return decl.Name, nil
		}
		// An ID that matches no declaration still addresses a runtime
		// binding under that name (declare_variable creates those).
		return id, nil
	}
	if name, ok := configString(node, "name"); ok {
		return name, nil
	}
	return "", errInvalidConfig("%s %s names no variable", node.Type, node.ID)
}

// handleDeclareVariable binds a name to the connected value, a
// configured inline literal, or null.
func handleDeclareVariable(_ context.Context, ec *Context, node *script.Node, inputs map[string]value.Value) (NodeOutput, error) {
	name, err := resolveVariableName(ec, node)
	if err != nil {
		return NodeOutput{}, err
	}
	v, ok := inputs["value"]
	if !ok {
		if cv, found := configValue(node, "value"); found {
			v = cv
		} else {
			v = value.Null()
		}
	}
	ec.Variables[name] = v
	return execOut(nil), nil
}

// handleSetVariable writes an existing binding, auto-creating it when
// absent.
func handleSetVariable(_ context.Context, ec *Context, node *script.Node, inputs map[string]value.Value) (NodeOutput, error) {
	name, err := resolveVariableName(ec, node)
	if err != nil {
		return NodeOutput{}, err
	}
	v, err := requireInput(node, inputs, "value")
	if err != nil {
		return NodeOutput{}, err
	}
	ec.Variables[name] = v
	return execOut(nil), nil
}

// handleGetVariable reads a binding; a missing variable is an error, not
// an implicit null.
func handleGetVariable(_ context.Context, ec *Context, node *script.Node, _ map[string]value.Value) (NodeOutput, error) {
	name, err := resolveVariableName(ec, node)
	if err != nil {
		return NodeOutput{}, err
	}
	v, ok := ec.Variables[name]
	if !ok {
		return NodeOutput{}, errVariableNotFound(name)
	}
	return valuesOut(map[string]value.Value{"value": v}), nil
}
