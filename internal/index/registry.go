package index

import (
	"sort"
	"sync"
)

// Registry holds the key sets of the indexes known to this node.
// Key sets must be fully built before Register publishes them.
type Registry struct {
	mu   sync.RWMutex
	sets map[string]*KeySet
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sets: make(map[string]*KeySet)}
}

// Register publishes the key set of an index, replacing any previous one.
func (r *Registry) Register(name string, set *KeySet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sets[name] = set
}

// Get returns the key set of an index.
func (r *Registry) Get(name string) (*KeySet, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, ok := r.sets[name]
	return set, ok
}

// Remove drops an index. It reports whether the index was present.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sets[name]
	delete(r.sets, name)
	return ok
}

// Names returns the registered index names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.sets))
	for name := range r.sets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
