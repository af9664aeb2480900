package tool

import (
	"fmt"

	santhosh "github.com/santhosh-tekuri/jsonschema/v6"
)

// Registry is an immutable, ordered catalog of tool definitions.
// It is safe for concurrent use because nothing mutates it after NewRegistry.
type Registry struct {
	defs    []Definition
	index   map[string]int
	schemas map[string]*santhosh.Schema
}

// NewRegistry builds a registry from defs, keeping their order.
// Names must be non-empty and unique, and every input schema must compile.
func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{
		defs:    make([]Definition, 0, len(defs)),
		index:   make(map[string]int, len(defs)),
		schemas: make(map[string]*santhosh.Schema, len(defs)),
	}
	for _, d := range defs {
		if d.Name == "" {
			return nil, fmt.Errorf("tool name is empty")
		}
		if _, exists := r.index[d.Name]; exists {
			return nil, fmt.Errorf("tool %q already registered", d.Name)
		}
		schema, err := d.SchemaJSON()
		if err != nil {
			return nil, fmt.Errorf("tool %q: marshal schema: %w", d.Name, err)
		}
		compiled, err := compileSchema(d.Name, schema)
		if err != nil {
			return nil, fmt.Errorf("tool %q: %w", d.Name, err)
		}
		r.index[d.Name] = len(r.defs)
		r.defs = append(r.defs, d.clone())
		r.schemas[d.Name] = compiled
	}
	return r, nil
}

// NewCIRegistry returns the registry of the four CI tools.
func NewCIRegistry() *Registry {
	r, err := NewRegistry(CI()...)
	if err != nil {
		// The CI catalog is static; a failure here is a programming error.
		panic(err)
	}
	return r
}

// List returns the catalog in declaration order.
func (r *Registry) List() []Definition {
	out := make([]Definition, len(r.defs))
	for i, d := range r.defs {
		out[i] = d.clone()
	}
	return out
}

// Names returns tool names in declaration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.defs))
	for i, d := range r.defs {
		out[i] = d.Name
	}
	return out
}

// Lookup returns a tool definition by name.
func (r *Registry) Lookup(name string) (Definition, bool) {
	i, ok := r.index[name]
	if !ok {
		return Definition{}, false
	}
	return r.defs[i].clone(), true
}

// Validate checks args against the declared schema of the named tool.
func (r *Registry) Validate(name string, args map[string]any) error {
	sch, ok := r.schemas[name]
	if !ok {
		return fmt.Errorf("unknown tool %q", name)
	}
	if args == nil {
		args = map[string]any{}
	}
	return validateValue(sch, args)
}
