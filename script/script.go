// Package script defines the immutable description of a visual script:
// variable declarations, typed nodes with named ports, and the
// connections between ports. The engine consumes a Script; it never
// mutates one.
package script

// PortKind distinguishes control-flow ports from data ports.
type PortKind string

const (
	PortFlow  PortKind = "flow"
	PortValue PortKind = "value"
)

// PortDirection marks a port as an input or an output of its node.
type PortDirection string

const (
	DirectionInput  PortDirection = "input"
	DirectionOutput PortDirection = "output"
)

// Port is a named attachment point on a node. Name is the key used at
// evaluation time; ID is the key connections refer to. Names are unique
// per direction within a node.
type Port struct {
	ID        string        `json:"id" yaml:"id"`
	Name      string        `json:"name" yaml:"name"`
	Kind      PortKind      `json:"kind" yaml:"kind"`
	Direction PortDirection `json:"direction" yaml:"direction"`
	ValueType string        `json:"valueType,omitempty" yaml:"valueType,omitempty"`
}

// Position is the node's location on the editor canvas. The engine
// ignores it; it round-trips for the UI.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Node is one unit of the graph. Type is a free-form string; the
// registry decides whether it executes host-side or target-side.
type Node struct {
	ID       string         `json:"id" yaml:"id"`
	Type     string         `json:"type" yaml:"type"`
	Label    string         `json:"label,omitempty" yaml:"label,omitempty"`
	Position Position       `json:"position" yaml:"position"`
	Config   map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
	Inputs   []Port         `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Outputs  []Port         `json:"outputs,omitempty" yaml:"outputs,omitempty"`
}

// Endpoint addresses one side of a connection by node ID and port ID.
type Endpoint struct {
	Node string `json:"node" yaml:"node"`
	Port string `json:"port" yaml:"port"`
}

// Connection is a directed edge between an output port and an input port.
type Connection struct {
	ID   string   `json:"id" yaml:"id"`
	From Endpoint `json:"from" yaml:"from"`
	To   Endpoint `json:"to" yaml:"to"`
}

// Variable declares a script-scoped variable. Name is the runtime key;
// ID is what node configurations reference, so renaming a variable does
// not invalidate nodes.
type Variable struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Default     any    `json:"default,omitempty" yaml:"default,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Script is a complete graph document.
type Script struct {
	ID          string       `json:"id" yaml:"id"`
	Name        string       `json:"name" yaml:"name"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Variables   []Variable   `json:"variables,omitempty" yaml:"variables,omitempty"`
	Nodes       []Node       `json:"nodes" yaml:"nodes"`
	Connections []Connection `json:"connections,omitempty" yaml:"connections,omitempty"`
}

// NodeByID finds a node by ID.
func (s *Script) NodeByID(id string) (*Node, bool) {
	for i := range s.Nodes {
		if s.Nodes[i].ID == id {
			return &s.Nodes[i], true
		}
	}
	return nil, false
}

// VariableByID finds a variable declaration by ID.
func (s *Script) VariableByID(id string) (*Variable, bool) {
	for i := range s.Variables {
		if s.Variables[i].ID == id {
			return &s.Variables[i], true
		}
	}
	return nil, false
}

// InputByID finds an input port by port ID.
func (n *Node) InputByID(portID string) (*Port, bool) {
	return portByID(n.Inputs, portID)
}

// OutputByID finds an output port by port ID.
func (n *Node) OutputByID(portID string) (*Port, bool) {
	return portByID(n.Outputs, portID)
}

// InputByName finds an input port by its evaluation-time name.
func (n *Node) InputByName(name string) (*Port, bool) {
	return portByName(n.Inputs, name)
}

// OutputByName finds an output port by its evaluation-time name.
func (n *Node) OutputByName(name string) (*Port, bool) {
	return portByName(n.Outputs, name)
}

// HasFlowInput reports whether the node has any flow input port. Nodes
// without one are pure value nodes, evaluated lazily on demand.
func (n *Node) HasFlowInput() bool {
	for i := range n.Inputs {
		if n.Inputs[i].Kind == PortFlow {
			return true
		}
	}
	return false
}

func portByID(ports []Port, id string) (*Port, bool) {
	for i := range ports {
		if ports[i].ID == id {
			return &ports[i], true
		}
	}
	return nil, false
}

func portByName(ports []Port, name string) (*Port, bool) {
	for i := range ports {
		if ports[i].Name == name {
			return &ports[i], true
		}
	}
	return nil, false
}

// FlowConnectionsFrom returns, in declaration order, the connections
// leaving the named flow output of the given node. Declaration order is
// the traversal order guarantee for flow fan-out.
func (s *Script) FlowConnectionsFrom(nodeID, portName string) []Connection {
	node, ok := s.NodeByID(nodeID)
	if !ok {
		return nil
	}
	port, ok := node.OutputByName(portName)
	if !ok {
		return nil
	}
	var out []Connection
	for _, c := range s.Connections {
		if c.From.Node == nodeID && c.From.Port == port.ID {
			out = append(out, c)
		}
	}
	return out
}

// IncomingValueConnection returns the single connection feeding the given
// input port, if any. Structural validation rejects multiple producers.
func (s *Script) IncomingValueConnection(nodeID, portID string) (Connection, bool) {
	for _, c := range s.Connections {
		if c.To.Node == nodeID && c.To.Port == portID {
			return c, true
		}
	}
	return Connection{}, false
}
