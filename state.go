package loom

import (
	"sort"
	"sync"
)

// State is the ordered, mutable mapping threaded through a pipeline
// invocation. At each stage boundary it must contain the exact keys the
// next stage's template expects; bridges are responsible for making that
// so. Access is mutex-guarded so that bridges and callers observing a
// shared state do not race.
type State struct {
	mu   sync.RWMutex
	keys []string
	data map[string]any
}

// NewState creates a state seeded with the given parameters. Initial keys
// are recorded in sorted order so iteration is deterministic.
func NewState(params map[string]any) *State {
	s := &State{
		data: make(map[string]any, len(params)),
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		s.keys = append(s.keys, k)
		s.data[k] = params[k]
	}
	return s
}

// Get retrieves a value by key.
func (s *State) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	return v, ok
}

// Set stores a value, appending the key to the order on first insertion.
func (s *State) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; !exists {
		s.keys = append(s.keys, key)
	}
	s.data[key] = value
}

// Delete removes a key from the state.
func (s *State) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; !exists {
		return
	}
	delete(s.data, key)
	for i, k := range s.keys {
		if k == key {
			s.keys = append(s.keys[:i], s.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the state's keys in insertion order.
func (s *State) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Len returns the number of keys in the state.
func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.keys)
}

// Snapshot returns a copy of the state as a plain map, suitable for
// template execution and JSONPath evaluation.
func (s *State) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]any, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out
}
