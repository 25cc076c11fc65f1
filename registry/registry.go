// Package registry provides the global node-type registry: for every
// known node type it records display metadata, port schemas, and the
// runtime side the node executes on. The classifier (RuntimeFor) is a
// lookup against this registry; unknown types classify Target so the
// RPC bridge surfaces a clear error instead of the engine silently
// returning nothing.
package registry

import "sync"

// RuntimeSide says where a node type executes.
type RuntimeSide string

const (
	// RuntimeHost nodes run in the engine's own process.
	RuntimeHost RuntimeSide = "host"

	// RuntimeTarget nodes are delegated to the attached process over RPC.
	RuntimeTarget RuntimeSide = "target"
)

// NodeTypeDef describes a registered node type.
type NodeTypeDef struct {
	Type        string      `json:"type"`
	Category    string      `json:"category"` // "event", "constant", "math", "data", "variable", "ui", "control", "memory", "module", "interceptor"
	DisplayName string      `json:"display_name"`
	Description string      `json:"description"`
	Runtime     RuntimeSide `json:"runtime"`
	Ports       PortSchema  `json:"ports"`
	IsEvent     bool        `json:"is_event"` // valid entry point for an invocation
}

// PortSchema defines the input and output ports for a node type.
type PortSchema struct {
	Inputs  []PortDef `json:"inputs"`
	Outputs []PortDef `json:"outputs"`
}

// PortDef describes a single port on a node type.
type PortDef struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"` // "flow" | "value"
	Type     string `json:"type,omitempty"`
	Required bool   `json:"required,omitempty"`
}

var (
	global     *Registry
	globalOnce sync.Once
)

// Global returns the singleton registry instance. On first call it
// initializes the registry and auto-registers all built-in node types.
func Global() *Registry {
	globalOnce.Do(func() {
		global = newRegistry()
		registerBuiltins(global)
	})
	return global
}

// Registry holds all known node types.
type Registry struct {
	mu    sync.RWMutex
	types map[string]NodeTypeDef
	order []string // preserves registration order
}

func newRegistry() *Registry {
	return &Registry{
		types: make(map[string]NodeTypeDef),
	}
}

// Register adds a node type definition. If a type with the same name
// already exists it is overwritten.
func (r *Registry) Register(def NodeTypeDef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.types[def.Type]; !exists {
		r.order = append(r.order, def.Type)
	}
	r.types[def.Type] = def
}

// Get returns a node type definition by type name.
func (r *Registry) Get(typeName string) (NodeTypeDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.types[typeName]
	return def, ok
}

// Has returns true if the type name is registered.
func (r *Registry) Has(typeName string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.types[typeName]
	return ok
}

// RuntimeFor classifies a node type. The function is total: every
// registered type maps deterministically to one side, and unregistered
// types default to RuntimeTarget.
func (r *Registry) RuntimeFor(typeName string) RuntimeSide {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.types[typeName]
	if !ok {
		return RuntimeTarget
	}
	return def.Runtime
}

// IsEvent reports whether the type is a registered event entry kind.
func (r *Registry) IsEvent(typeName string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.types[typeName]
	return ok && def.IsEvent
}

// All returns all registered node types in registration order.
func (r *Registry) All() []NodeTypeDef {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]NodeTypeDef, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.types[name])
	}
	return result
}

// Len returns the number of registered node types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types)
}
