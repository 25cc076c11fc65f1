// Package state holds the two shared mutable surfaces of the engine:
// the UI component-value store and the per-script persistent variable
// states. Both are plain maps behind reader-writer locks; individual
// operations are atomic, cross-operation transactions are out of scope.
package state

import (
	"sync"

	"github.com/vflow-labs/vflow/value"
)

// UIStore is the shared component-id to value map. The engine and the
// external UI layer both read and write it; last write wins.
type UIStore struct {
	mu     sync.RWMutex
	values map[string]value.Value
}

// NewUIStore creates an empty store.
func NewUIStore() *UIStore {
	return &UIStore{values: make(map[string]value.Value)}
}

// Get returns the current value of a component.
func (s *UIStore) Get(componentID string) (value.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[componentID]
	return v, ok
}

// Set writes the value of a component.
func (s *UIStore) Set(componentID string, v value.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[componentID] = v
}

// Delete removes a component entry.
func (s *UIStore) Delete(componentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, componentID)
}

// Snapshot returns a copy of the whole store.
func (s *UIStore) Snapshot() map[string]value.Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]value.Value, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}
