package script

import "fmt"

// Builder provides a fluent API for constructing scripts in code.
// Ports are created with their name as their ID, which keeps hand-built
// scripts readable; editor-produced scripts carry their own port IDs.
//
// Example usage:
//
//	s, err := script.NewBuilder("s1", "counter").
//	    Variable("v1", "n", "number", 0).
//	    Node("ev", "event_ui", nil, script.FlowOut("exec"), script.ValueOut("value")).
//	    Node("log", "log", nil, script.FlowIn("exec"), script.ValueIn("message"), script.FlowOut("exec")).
//	    Flow("ev", "exec", "log", "exec").
//	    Build()
type Builder struct {
	s      Script
	errors []error
}

// NewBuilder creates a builder for a script with the given ID and name.
func NewBuilder(id, name string) *Builder {
	return &Builder{s: Script{ID: id, Name: name}}
}

// FlowIn makes a flow input port named name (ID equals name).
func FlowIn(name string) Port {
	return Port{ID: name, Name: name, Kind: PortFlow, Direction: DirectionInput}
}

// FlowOut makes a flow output port named name (ID equals name).
func FlowOut(name string) Port {
	return Port{ID: name, Name: name, Kind: PortFlow, Direction: DirectionOutput}
}

// ValueIn makes a value input port named name (ID equals name).
func ValueIn(name string) Port {
	return Port{ID: name, Name: name, Kind: PortValue, Direction: DirectionInput}
}

// ValueOut makes a value output port named name (ID equals name).
func ValueOut(name string) Port {
	return Port{ID: name, Name: name, Kind: PortValue, Direction: DirectionOutput}
}

// Variable declares a script variable.
func (b *Builder) Variable(id, name, typeName string, def any) *Builder {
	b.s.Variables = append(b.s.Variables, Variable{ID: id, Name: name, Type: typeName, Default: def})
	return b
}

// Node adds a node. Ports are split into inputs and outputs by their
// declared direction.
func (b *Builder) Node(id, nodeType string, config map[string]any, ports ...Port) *Builder {
	n := Node{ID: id, Type: nodeType, Config: config}
	for _, p := range ports {
		if p.Direction == DirectionInput {
			n.Inputs = append(n.Inputs, p)
		} else {
			n.Outputs = append(n.Outputs, p)
		}
	}
	b.s.Nodes = append(b.s.Nodes, n)
	return b
}

// Flow connects a flow output to a flow input, ports addressed by name.
func (b *Builder) Flow(fromNode, fromPort, toNode, toPort string) *Builder {
	return b.connect(fromNode, fromPort, toNode, toPort)
}

// Value connects a value output to a value input, ports addressed by name.
func (b *Builder) Value(fromNode, fromPort, toNode, toPort string) *Builder {
	return b.connect(fromNode, fromPort, toNode, toPort)
}

func (b *Builder) connect(fromNode, fromPort, toNode, toPort string) *Builder {
	id := fmt.Sprintf("c%d", len(b.s.Connections)+1)
	b.s.Connections = append(b.s.Connections, Connection{
		ID:   id,
		From: Endpoint{Node: fromNode, Port: fromPort},
		To:   Endpoint{Node: toNode, Port: toPort},
	})
	return b
}

// Build validates the assembled script and returns it.
func (b *Builder) Build() (*Script, error) {
	if len(b.errors) > 0 {
		return nil, b.errors[0]
	}
	s := b.s
	if diags := s.Validate(); HasErrors(diags) {
		return nil, fmt.Errorf("invalid script: %s", diags[0].Message)
	}
	return &s, nil
}

// MustBuild is Build for tests and fixtures; it panics on error.
func (b *Builder) MustBuild() *Script {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}
