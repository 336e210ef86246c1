package gesture

import "sync"

// Registry holds the gesture table, keyed by name. YAML overrides replace
// builtins with the same name and append new ones.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Gesture
	order  []string
}

// NewRegistry creates a registry seeded with the given gestures.
func NewRegistry(gestures ...Gesture) *Registry {
	r := &Registry{byName: make(map[string]Gesture, len(gestures))}
	for _, g := range gestures {
		r.Add(g)
	}
	return r
}

// Add inserts or replaces a gesture by name.
func (r *Registry) Add(g Gesture) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[g.Name]; !exists {
		r.order = append(r.order, g.Name)
	}
	r.byName[g.Name] = g
}

// Lookup returns the gesture for a name.
func (r *Registry) Lookup(name string) (Gesture, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.byName[name]
	return g, ok
}

// Names returns the gesture names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
