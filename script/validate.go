package script

import "fmt"

// Diagnostic is a validation finding. Codes are stable so tooling can
// match on them.
type Diagnostic struct {
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Path     string `json:"path,omitempty"`
}

const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// HasErrors reports whether any diagnostic has error severity.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns only the error-severity diagnostics.
func Errors(diags []Diagnostic) []Diagnostic {
	var out []Diagnostic
	for _, d := range diags {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}
	return out
}

// Warnings returns only the warning-severity diagnostics.
func Warnings(diags []Diagnostic) []Diagnostic {
	var out []Diagnostic
	for _, d := range diags {
		if d.Severity == SeverityWarning {
			out = append(out, d)
		}
	}
	return out
}

// Validate checks structural integrity:
//   - SC-001: connection endpoints reference existing nodes
//   - SC-002: flow outputs connect only to flow inputs, value outputs
//     only to value inputs
//   - SC-003: a value input has at most one incoming connection
//   - SC-004: node, connection and variable IDs are unique
//   - SC-005: connection endpoints reference existing ports with the
//     right direction
//   - SC-006: orphan nodes (warning)
//
// Cycle legality is a runtime property (loop back-edges are legal) and
// is enforced by the executor's visited set, not here.
func (s *Script) Validate() []Diagnostic {
	var diags []Diagnostic

	nodeIDs := make(map[string]bool, len(s.Nodes))
	for i, n := range s.Nodes {
		if nodeIDs[n.ID] {
			diags = append(diags, Diagnostic{
				Code:     "SC-004",
				Severity: SeverityError,
				Message:  fmt.Sprintf("Duplicate node ID %q", n.ID),
				Path:     fmt.Sprintf("nodes[%d].id", i),
			})
		}
		nodeIDs[n.ID] = true

		diags = append(diags, validatePortNames(&s.Nodes[i], i)...)
	}

	varIDs := make(map[string]bool, len(s.Variables))
	for i, v := range s.Variables {
		if varIDs[v.ID] {
			diags = append(diags, Diagnostic{
				Code:     "SC-004",
				Severity: SeverityError,
				Message:  fmt.Sprintf("Duplicate variable ID %q", v.ID),
				Path:     fmt.Sprintf("variables[%d].id", i),
			})
		}
		varIDs[v.ID] = true
	}

	connIDs := make(map[string]bool, len(s.Connections))
	valueInputSeen := make(map[Endpoint]bool)
	for i, c := range s.Connections {
		if c.ID != "" {
			if connIDs[c.ID] {
				diags = append(diags, Diagnostic{
					Code:     "SC-004",
					Severity: SeverityError,
					Message:  fmt.Sprintf("Duplicate connection ID %q", c.ID),
					Path:     fmt.Sprintf("connections[%d].id", i),
				})
			}
			connIDs[c.ID] = true
		}

		from, fromOK := s.resolvePort(c.From, DirectionOutput, &diags, i, "from")
		to, toOK := s.resolvePort(c.To, DirectionInput, &diags, i, "to")
		if !fromOK || !toOK {
			continue
		}

		if from.Kind != to.Kind {
			diags = append(diags, Diagnostic{
				Code:     "SC-002",
				Severity: SeverityError,
				Message: fmt.Sprintf("Connection %q joins a %s output to a %s input",
					c.ID, from.Kind, to.Kind),
				Path: fmt.Sprintf("connections[%d]", i),
			})
			continue
		}

		if to.Kind == PortValue {
			if valueInputSeen[c.To] {
				diags = append(diags, Diagnostic{
					Code:     "SC-003",
					Severity: SeverityError,
					Message: fmt.Sprintf("Value input %s.%s has more than one producer",
						c.To.Node, to.Name),
					Path: fmt.Sprintf("connections[%d].to", i),
				})
			}
			valueInputSeen[c.To] = true
		}
	}

	if len(s.Nodes) > 1 {
		touched := make(map[string]bool)
		for _, c := range s.Connections {
			touched[c.From.Node] = true
			touched[c.To.Node] = true
		}
		for i, n := range s.Nodes {
			if !touched[n.ID] {
				diags = append(diags, Diagnostic{
					Code:     "SC-006",
					Severity: SeverityWarning,
					Message:  fmt.Sprintf("Node %q has no connections", n.ID),
					Path:     fmt.Sprintf("nodes[%d]", i),
				})
			}
		}
	}

	return diags
}

func validatePortNames(n *Node, idx int) []Diagnostic {
	var diags []Diagnostic
	for _, ports := range [][]Port{n.Inputs, n.Outputs} {
		seen := make(map[string]bool, len(ports))
		for _, p := range ports {
			if seen[p.Name] {
				diags = append(diags, Diagnostic{
					Code:     "SC-004",
					Severity: SeverityError,
					Message: fmt.Sprintf("Node %q declares port name %q twice in one direction",
						n.ID, p.Name),
					Path: fmt.Sprintf("nodes[%d]", idx),
				})
			}
			seen[p.Name] = true
		}
	}
	return diags
}

func (s *Script) resolvePort(ep Endpoint, dir PortDirection, diags *[]Diagnostic, idx int, side string) (*Port, bool) {
	node, ok := s.NodeByID(ep.Node)
	if !ok {
		*diags = append(*diags, Diagnostic{
			Code:     "SC-001",
			Severity: SeverityError,
			Message:  fmt.Sprintf("Connection %s references unknown node %q", side, ep.Node),
			Path:     fmt.Sprintf("connections[%d].%s", idx, side),
		})
		return nil, false
	}
	var port *Port
	if dir == DirectionOutput {
		port, ok = node.OutputByID(ep.Port)
	} else {
		port, ok = node.InputByID(ep.Port)
	}
	if !ok {
		*diags = append(*diags, Diagnostic{
			Code:     "SC-005",
			Severity: SeverityError,
			Message: fmt.Sprintf("Connection %s references unknown %s port %q on node %q",
				side, dir, ep.Port, ep.Node),
			Path: fmt.Sprintf("connections[%d].%s", idx, side),
		})
		return nil, false
	}
	return port, true
}
