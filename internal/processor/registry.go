package processor

import (
	"fmt"
	"sort"
	"sync"
)

type Registry struct {
	transformers map[string]Transformer
	mu           sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		transformers: make(map[string]Transformer),
	}
}

func (r *Registry) Register(name string, t Transformer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.transformers[name] = t
}

func (r *Registry) Get(name string) (Transformer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.transformers[name]
	return t, ok
}

// List returns registered names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.transformers))
	for name := range r.transformers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetOrError returns a transformer by name, or an error if not found.
func (r *Registry) GetOrError(name string) (Transformer, error) {
	t, exists := r.Get(name)
	if !exists {
		return nil, fmt.Errorf("%w: transformer not registered: %s", ErrEngineNotFound, name)
	}
	return t, nil
}
