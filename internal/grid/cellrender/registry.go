package cellrender

import (
	"errors"
	"slices"
	"sync"

	"github.com/dshills/gridstorm/internal/grid/cell"
)

// ErrEmptyKind is returned when registering a renderer without a kind.
var ErrEmptyKind = errors.New("renderer kind is empty")

// Registry maps kinds to renderers. Each grid owns its own registry.
type Registry struct {
	mu        sync.RWMutex
	renderers map[cell.Kind]Renderer
	fallback  Renderer
}

// NewRegistry returns a registry with the built-in renderers registered.
func NewRegistry() *Registry {
	r := NewEmptyRegistry()
	for _, b := range Builtins() {
		r.renderers[b.Kind()] = b
	}
	return r
}

// NewEmptyRegistry returns a registry with only the fallback renderer.
func NewEmptyRegistry() *Registry {
	return &Registry{
		renderers: make(map[cell.Kind]Renderer),
		fallback:  &Unsupported{},
	}
}

// Register adds or replaces the renderer for r.Kind().
func (r *Registry) Register(rend Renderer) error {
	if rend == nil || rend.Kind() == "" {
		return ErrEmptyKind
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderers[rend.Kind()] = rend
	return nil
}

// Unregister removes the renderer for kind and reports whether one existed.
func (r *Registry) Unregister(kind cell.Kind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.renderers[kind]
	delete(r.renderers, kind)
	return ok
}

// List returns the registered kinds in sorted order.
func (r *Registry) List() []cell.Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]cell.Kind, 0, len(r.renderers))
	for k := range r.renderers {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// Lookup returns the renderer registered for kind.
func (r *Registry) Lookup(kind cell.Kind) (Renderer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rend, ok := r.renderers[kind]
	return rend, ok
}

// Dispatch returns the renderer for kind, or the fallback renderer with
// false when kind is not registered.
func (r *Registry) Dispatch(kind cell.Kind) (Renderer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if rend, ok := r.renderers[kind]; ok {
		return rend, true
	}
	return r.fallback, false
}

// Fallback returns the renderer used for unregistered kinds.
func (r *Registry) Fallback() Renderer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fallback
}

// SetFallback replaces the renderer used for unregistered kinds.
func (r *Registry) SetFallback(rend Renderer) {
	if rend == nil {
		return
	}
	r.mu.Lock()
	r.fallback = rend
	r.mu.Unlock()
}

// Len returns the number of registered renderers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.renderers)
}
