package state

import (
	"sync"

	"github.com/vflow-labs/vflow/script"
	"github.com/vflow-labs/vflow/value"
)

// ScriptStates is the process-wide map of script ID to persistent
// variable bindings. Bindings enter the store only through Commit; a
// script with no committed invocation has no stored state, so a failed
// first invocation leaves nothing behind.
//
// Reads and commits are individually atomic. Two overlapping invocations
// of the same script race read-modify-write; the last committer wins.
// Embedders needing serialisation wrap Seed and Commit in their own
// per-script lock.
type ScriptStates struct {
	mu     sync.RWMutex
	states map[string]map[string]value.Value
}

// NewScriptStates creates an empty state store.
func NewScriptStates() *ScriptStates {
	return &ScriptStates{states: make(map[string]map[string]value.Value)}
}

// Seed returns a copy of the stored bindings for the script, or fresh
// bindings built from its variable declarations when no invocation has
// committed yet. Each fresh variable takes its default literal, or the
// zero for its declared type when no default is given. Fresh bindings
// are not stored; only Commit writes to the store.
func (s *ScriptStates) Seed(sc *script.Script) map[string]value.Value {
	s.mu.RLock()
	stored, ok := s.states[sc.ID]
	if ok {
		out := make(map[string]value.Value, len(stored))
		for k, v := range stored {
			out[k] = v
		}
		s.mu.RUnlock()
		return out
	}
	s.mu.RUnlock()

	fresh := make(map[string]value.Value, len(sc.Variables))
	for _, decl := range sc.Variables {
		if decl.Default != nil {
			fresh[decl.Name] = value.FromAny(decl.Default)
		} else {
			fresh[decl.Name] = value.ZeroForType(decl.Type)
		}
	}
	return fresh
}

// Commit replaces the stored bindings for a script with the final
// bindings of a successful invocation.
func (s *ScriptStates) Commit(scriptID string, vars map[string]value.Value) {
	stored := make(map[string]value.Value, len(vars))
	for k, v := range vars {
		stored[k] = v
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[scriptID] = stored
}

// Get returns a copy of the stored bindings for a script.
func (s *ScriptStates) Get(scriptID string) (map[string]value.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.states[scriptID]
	if !ok {
		return nil, false
	}
	out := make(map[string]value.Value, len(stored))
	for k, v := range stored {
		out[k] = v
	}
	return out, true
}

// Clear drops the stored bindings for one script.
func (s *ScriptStates) Clear(scriptID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, scriptID)
}

// ClearAll drops every script's stored bindings.
func (s *ScriptStates) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = make(map[string]map[string]value.Value)
}
