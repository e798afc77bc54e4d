package adapter

import (
	"sort"
	"strings"
	"sync"
)

// Registry maps connection string schemes to adapters. It is an
// explicit configuration object built once at startup and passed to
// the components that need dialect resolution.
type Registry struct {
	mu        sync.RWMutex
	byScheme  map[string]Adapter
	byDialect map[string]Adapter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byScheme:  make(map[string]Adapter),
		byDialect: make(map[string]Adapter),
	}
}

// Register adds an adapter under every scheme it claims. Registering
// a scheme twice overwrites the earlier adapter.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byDialect[a.Dialect()] = a
	for _, scheme := range a.Schemes() {
		r.byScheme[scheme] = a
	}
}

// Resolve picks the adapter whose scheme prefixes the connection
// string. Returns an UnknownSchemeError if none matches.
func (r *Registry) Resolve(connString string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for scheme, a := range r.byScheme {
		if strings.HasPrefix(connString, scheme) {
			return a, nil
		}
	}
	return nil, &UnknownSchemeError{
		ConnString: connString,
		Available:  r.dialectsLocked(),
	}
}

// Get returns the adapter registered under a dialect name.
func (r *Registry) Get(dialect string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byDialect[dialect]
	return a, ok
}

// Dialects returns all registered dialect names, sorted.
func (r *Registry) Dialects() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dialectsLocked()
}

func (r *Registry) dialectsLocked() []string {
	names := make([]string, 0, len(r.byDialect))
	for name := range r.byDialect {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
