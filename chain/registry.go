package chain

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds named chain specs for lookup by transport surfaces.
// It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	chains map[string]*Spec
}

// NewRegistry creates an empty chain registry.
func NewRegistry() *Registry {
	return &Registry{
		chains: make(map[string]*Spec),
	}
}

// Register adds a chain spec under its name.
// Returns an error if a chain with the same name is already registered.
func (r *Registry) Register(spec *Spec) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.chains[spec.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, spec.Name())
	}
	r.chains[spec.Name()] = spec
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(spec *Spec) {
	if err := r.Register(spec); err != nil {
		panic(err)
	}
}

// Get returns the chain registered under name.
func (r *Registry) Get(name string) (*Spec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	spec, ok := r.chains[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return spec, nil
}

// Names returns the registered chain names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.chains))
	for name := range r.chains {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered chains.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.chains)
}

// Unregister removes a chain by name. Removing an absent name is a
// no-op.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.chains, name)
}
