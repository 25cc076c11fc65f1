package loader

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/vflow-labs/vflow/registry"
	"github.com/vflow-labs/vflow/script"
)

// Load reads a script file, parses it according to its detected format,
// and validates it structurally and against the node type registry.
func Load(path string) (*script.Script, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path from caller
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return LoadBytes(data, path)
}

// LoadBytes parses script data. The path is used only for format
// detection and error messages.
func LoadBytes(data []byte, path string) (*script.Script, error) {
	sc, diags, err := Diagnose(data, path)
	if err != nil {
		return nil, err
	}
	if script.HasErrors(diags) {
		return nil, &DiagnosticError{Diagnostics: diags}
	}
	return sc, nil
}

// Diagnose parses script data and returns all validation diagnostics,
// warnings included. The error is non-nil only for parse failures; a
// script that parses but fails validation comes back with its
// diagnostics so callers can report every finding.
func Diagnose(data []byte, path string) (*script.Script, []script.Diagnostic, error) {
	jsonData := data
	if DetectFormat(data, path) == FormatYAML {
		converted, err := yamlToJSON(data)
		if err != nil {
			return nil, nil, err
		}
		jsonData = converted
	}

	var sc script.Script
	if err := json.Unmarshal(jsonData, &sc); err != nil {
		return nil, nil, fmt.Errorf("parsing script: %w", err)
	}

	diags := sc.Validate()
	diags = append(diags, validateTypes(&sc)...)
	return &sc, diags, nil
}

// validateTypes flags node types the registry does not know. Unknown
// types are warnings, not errors: the classifier routes them to the
// target side, which may implement types this host has never seen.
func validateTypes(sc *script.Script) []script.Diagnostic {
	var diags []script.Diagnostic
	for i, n := range sc.Nodes {
		if registry.Global().Has(n.Type) {
			continue
		}
		diags = append(diags, script.Diagnostic{
			Code:     "SC-007",
			Severity: script.SeverityWarning,
			Message:  fmt.Sprintf("Node %q has unregistered type %q", n.ID, n.Type),
			Path:     fmt.Sprintf("nodes[%d].type", i),
		})
	}
	return diags
}

// DiagnosticError wraps validation diagnostics as an error.
type DiagnosticError struct {
	Diagnostics []script.Diagnostic
}

func (e *DiagnosticError) Error() string {
	var errs []script.Diagnostic
	for _, d := range e.Diagnostics {
		if d.Severity == script.SeverityError {
			errs = append(errs, d)
		}
	}
	if len(errs) == 1 {
		return fmt.Sprintf("validation error: %s", errs[0].Message)
	}
	return fmt.Sprintf("%d validation errors (first: %s)", len(errs), errs[0].Message)
}
