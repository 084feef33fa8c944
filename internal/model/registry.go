package model

import (
	"fmt"
	"sort"
)

// Factory builds an instance of one model type, installing the type's hooks.
type Factory func(opts ...Option) *Model

type entry struct {
	schema  *Schema
	factory Factory
}

// Registry maps model type names to their closed schemas and factories.
// It is filled once at startup and read-only afterwards.
type Registry struct {
	types map[string]entry
}

func NewRegistry() *Registry {
	return &Registry{types: make(map[string]entry)}
}

// Register adds a closed schema under its name. A nil factory builds plain
// instances without hooks.
func (r *Registry) Register(s *Schema, f Factory) error {
	if !s.closed {
		defect("Register", "schema %q is not closed", s.name)
	}
	if _, ok := r.types[s.name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateType, s.name)
	}
	if f == nil {
		f = func(opts ...Option) *Model { return New(s, opts...) }
	}
	r.types[s.name] = entry{schema: s, factory: f}
	return nil
}

func (r *Registry) Schema(name string) (*Schema, error) {
	e, ok := r.types[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, name)
	}
	return e.schema, nil
}

// New builds an instance of the named type.
func (r *Registry) New(name string, opts ...Option) (*Model, error) {
	e, ok := r.types[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, name)
	}
	return e.factory(opts...), nil
}

// Names lists the registered type names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
