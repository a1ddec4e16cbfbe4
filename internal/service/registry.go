package service

import (
	"fmt"
	"sync"
)

// Entry is a registered plugin with its id.
type Entry struct {
	ID     string
	Plugin Plugin
}

// Registry is an insertion-ordered set of plugins. Dispatch iterates plugins
// in registration order, so the first registered plugin is tried first.
//
// Registry is safe for concurrent use. Dispatches work on a snapshot taken
// when they start.
type Registry struct {
	mu      sync.RWMutex
	entries []Entry
	index   map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Register adds a plugin under id.
func (r *Registry) Register(id string, p Plugin) error {
	if p == nil {
		return fmt.Errorf("plugin %q is nil", id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.index[id]; exists {
		return fmt.Errorf("%w: %s", ErrPluginExists, id)
	}
	r.index[id] = len(r.entries)
	r.entries = append(r.entries, Entry{ID: id, Plugin: p})
	return nil
}

// Get returns a plugin by id.
func (r *Registry) Get(id string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[id]
	if !ok {
		return nil, false
	}
	return r.entries[i].Plugin, true
}

// IDs returns plugin ids in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, len(r.entries))
	for i, e := range r.entries {
		ids[i] = e.ID
	}
	return ids
}

// Len returns the number of plugins.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Snapshot returns the plugins in registration order.
func (r *Registry) Snapshot() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}
