package provider

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Registry knows how to build each named backend and holds the ones that
// were built.
type Registry[T Provider] struct {
	mu        sync.RWMutex
	factories map[string]Factory[T]
	live      map[string]T
}

// NewRegistry creates an empty registry.
func NewRegistry[T Provider]() *Registry[T] {
	return &Registry[T]{
		factories: map[string]Factory[T]{},
		live:      map[string]T{},
	}
}

// RegisterFactory makes name buildable with Create.
func (r *Registry[T]) RegisterFactory(name string, f Factory[T]) {
	r.mu.Lock()
	r.factories[name] = f
	r.mu.Unlock()
}

// Create builds the backend called name. The result is not stored; wrap
// it as needed and hand it to Set.
func (r *Registry[T]) Create(name string, settings map[string]any) (T, error) {
	r.mu.RLock()
	f := r.factories[name]
	r.mu.RUnlock()
	if f == nil {
		var zero T
		return zero, fmt.Errorf("provider factory %q not registered", name)
	}
	return f(settings)
}

// Set stores a built backend under name, replacing any earlier one.
func (r *Registry[T]) Set(name string, p T) {
	r.mu.Lock()
	r.live[name] = p
	r.mu.Unlock()
}

// Get returns the backend stored under name.
func (r *Registry[T]) Get(name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.live[name]
	return p, ok
}

// First returns the first stored backend among names that is available.
func (r *Registry[T]) First(ctx context.Context, names []string) (T, error) {
	for _, name := range names {
		if p, ok := r.Get(name); ok && p.IsAvailable(ctx) {
			return p, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("no available provider in %v", names)
}

// Names lists the registered factories in order.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.factories))
}
