package uispec

import (
	"strings"
	"sync"
)

// TypeSpec declares the capabilities of one node type.
type TypeSpec struct {
	Name string
	// Container types may carry children.
	Container bool
	// ListLike types bind their rows to a data source and are subject
	// to the list-binding correction heuristic.
	ListLike bool
	// Cacheable types participate in the render cache.
	Cacheable bool
}

// Registry is the closed set of node types a tree may use. One registry
// per engine; callers register additional types before ingestion.
type Registry struct {
	mu    sync.RWMutex
	types map[string]TypeSpec
}

func NewRegistry() *Registry {
	return &Registry{types: make(map[string]TypeSpec)}
}

// Register adds or replaces a type. Empty names are ignored.
func (r *Registry) Register(spec TypeSpec) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return
	}
	r.mu.Lock()
	r.types[name] = spec
	r.mu.Unlock()
}

// Lookup returns the spec for a type name.
func (r *Registry) Lookup(name string) (TypeSpec, bool) {
	if r == nil {
		return TypeSpec{}, false
	}
	r.mu.RLock()
	spec, ok := r.types[strings.TrimSpace(name)]
	r.mu.RUnlock()
	return spec, ok
}

// DefaultRegistry returns a registry preloaded with the builtin types
// planners are prompted with.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, spec := range []TypeSpec{
		{Name: "Container", Container: true},
		{Name: "Text"},
		{Name: "Button"},
		{Name: "Input"},
		{Name: "ListView", ListLike: true, Cacheable: true},
		{Name: "DetailView", Container: true, Cacheable: true},
		{Name: "Form", Container: true},
	} {
		r.Register(spec)
	}
	return r
}
