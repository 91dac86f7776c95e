package plugins

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-cms-nav/internal/validation"
)

type registeredType struct {
	typ    Type
	schema *validation.Schema
}

// Registry maps plugin type names to implementations.
type Registry struct {
	mu    sync.RWMutex
	types map[string]registeredType
}

func NewRegistry() *Registry {
	return &Registry{types: make(map[string]registeredType)}
}

// Register adds typ. Its schema is compiled once up front.
func (r *Registry) Register(typ Type) error {
	if typ == nil {
		return ErrTypeRequired
	}
	name := normalizeType(typ.Name())
	if name == "" {
		return ErrTypeRequired
	}
	compiled, err := validation.Compile(typ.Schema())
	if err != nil {
		return fmt.Errorf("plugins: type %s: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.types[name]; exists {
		return ErrTypeExists
	}
	r.types[name] = registeredType{typ: typ, schema: compiled}
	return nil
}

// MustRegister panics when Register fails.
func (r *Registry) MustRegister(types ...Type) {
	for _, typ := range types {
		if err := r.Register(typ); err != nil {
			panic(err)
		}
	}
}

func (r *Registry) Lookup(name string) (Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.types[normalizeType(name)]
	return entry.typ, ok
}

// Validate checks data against the schema of the named type.
func (r *Registry) Validate(name string, data map[string]any) error {
	r.mu.RLock()
	entry, ok := r.types[normalizeType(name)]
	r.mu.RUnlock()
	if !ok {
		return ErrTypeUnknown
	}
	return entry.schema.Validate(data)
}

// Names lists the registered type names in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.types))
	for name := range r.types {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func normalizeType(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
