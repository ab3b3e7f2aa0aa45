package collector

import (
	"sort"
	"sync"
)

// Registry manages price sources by name
type Registry struct {
	mu      sync.RWMutex
	sources map[string]PriceSource
}

// NewRegistry creates a new price source registry
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[string]PriceSource),
	}
}

// Register adds a source to the registry
func (r *Registry) Register(s PriceSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[s.Name()] = s
}

// Get retrieves a source by name
func (r *Registry) Get(name string) (PriceSource, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sources[name]
	return s, ok
}

// Names returns the registered source names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
