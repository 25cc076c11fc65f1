// Package loader reads visual script files from disk. Scripts are
// stored as JSON by the editor; YAML is accepted for hand-written
// fixtures and converts through the canonical YAML -> map -> JSON path.
package loader

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format identifies the on-disk encoding of a script file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DetectFormat determines the encoding from the file extension, falling
// back to sniffing the first non-blank byte ("{" means JSON).
func DetectFormat(data []byte, filePath string) Format {
	if isYAML(filePath) {
		return FormatYAML
	}
	ext := strings.ToLower(filepath.Ext(filePath))
	if ext == ".json" {
		return FormatJSON
	}
	for _, b := range data {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '{':
			return FormatJSON
		default:
			return FormatYAML
		}
	}
	return FormatJSON
}

// isYAML returns true if the file path has a YAML extension.
func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// yamlToJSON converts raw bytes from YAML format to JSON bytes:
// YAML -> map[string]any -> JSON bytes -> typed struct.
func yamlToJSON(data []byte) ([]byte, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	return json.Marshal(raw)
}
