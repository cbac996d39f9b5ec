package format

import (
	"fmt"
	"strings"
	"sync"
)

// Factory creates a handler instance.
type Factory func() Handler

// Registry holds handler factories indexed by format name.
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a factory for the given format name.
// Panics if the name is already registered.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		panic(fmt.Sprintf("format handler already registered: %s", name))
	}
	r.factories[name] = factory
}

// Get returns the factory for the given format name.
func (r *Registry) Get(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	return factory, ok
}

// List returns all registered format names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}

// Create instantiates a handler for the given format name.
func (r *Registry) Create(name string) (Handler, error) {
	factory, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown format handler: %s", name)
	}
	return factory(), nil
}

// Resolve picks a handler for a harvest. An explicit name wins and must be
// registered; otherwise the handler is inferred from the metadata prefix.
// Resolution happens once per harvest, so an unknown name surfaces here
// rather than per record.
func (r *Registry) Resolve(name, prefix string) (Handler, error) {
	if name != "" {
		return r.Create(name)
	}
	return r.Create(InferName(prefix))
}

// InferName maps a metadata prefix to the name of a built-in handler.
// Unrecognized prefixes fall back to the generic structural parser.
func InferName(prefix string) string {
	switch p := strings.ToLower(strings.TrimSpace(prefix)); {
	case p == "oai_dc":
		return "dc"
	case p == "marcxml" || p == "marc21":
		return "marc"
	case p == "mods":
		return "mods"
	case strings.Contains(p, "lido"):
		return "lido"
	default:
		return "generic"
	}
}

// --- Default Global Registry ---

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the global handler registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register adds a factory to the default registry.
func Register(name string, factory Factory) {
	defaultRegistry.Register(name, factory)
}

// Resolve picks a handler from the default registry.
func Resolve(name, prefix string) (Handler, error) {
	return defaultRegistry.Resolve(name, prefix)
}
