package backends

import (
	"sort"
	"sync"
)

// Registry manages available emission backends
type Registry struct {
	mu       sync.RWMutex
	backends map[string]*BackendSpec
}

// NewRegistry creates a new backend registry
func NewRegistry() *Registry {
	return &Registry{
		backends: make(map[string]*BackendSpec),
	}
}

// NewDefaultRegistry creates a registry holding the built-in backends
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, spec := range GetDefaultBackends() {
		// Built-in specs are valid and unique
		_ = r.Register(spec)
	}
	return r
}

// Register adds a backend to the registry
func (r *Registry) Register(spec *BackendSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.backends[spec.ID]; exists {
		return ErrBackendAlreadyExists
	}

	r.backends[spec.ID] = spec
	return nil
}

// Get retrieves a backend by ID
func (r *Registry) Get(id string) (*BackendSpec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	spec, exists := r.backends[id]
	if !exists {
		return nil, ErrBackendNotFound
	}

	return spec, nil
}

// Resolve returns the enabled backend called id
func (r *Registry) Resolve(id string) (*BackendSpec, error) {
	spec, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	if !spec.Enabled {
		return nil, ErrBackendDisabled
	}
	return spec, nil
}

// List returns all registered backends sorted by ID
func (r *Registry) List() []*BackendSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	specs := make([]*BackendSpec, 0, len(r.backends))
	for _, spec := range r.backends {
		specs = append(specs, spec)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].ID < specs[j].ID })

	return specs
}

// Count returns the number of registered backends
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.backends)
}
