package model

import (
	"fmt"

	"github.com/san-kum/modelspace/internal/numeric"
	"github.com/san-kum/modelspace/internal/param"
)

// GetProperty reads the property with the given id. Values come back as
// float64 (scalar), []float64 (vector), int (vector length), bool (scalar
// fit flag) or []bool (vector fit flags). Parameter values are read from the
// original vector.
func (m *Model) GetProperty(id int) (any, error) {
	p, ok := m.schema.Property(id)
	if !ok {
		return nil, fmt.Errorf("%w: id %d in model %s", ErrUnknownProperty, id, m.schema.nick)
	}
	return m.getProperty(p)
}

// GetPropertyByName is GetProperty addressed by property name.
func (m *Model) GetPropertyByName(name string) (any, error) {
	p, ok := m.schema.PropertyByName(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q in model %s", ErrUnknownProperty, name, m.schema.nick)
	}
	return m.getProperty(p)
}

// SetProperty writes the property with the given id. Accepted value types
// mirror GetProperty; vector values may also be *numeric.Vector, and a
// vector fit property accepts a single bool which is applied to every
// component.
func (m *Model) SetProperty(id int, v any) error {
	p, ok := m.schema.Property(id)
	if !ok {
		return fmt.Errorf("%w: id %d in model %s", ErrUnknownProperty, id, m.schema.nick)
	}
	return m.setProperty(p, v)
}

// SetPropertyByName is SetProperty addressed by property name.
func (m *Model) SetPropertyByName(name string, v any) error {
	p, ok := m.schema.PropertyByName(name)
	if !ok {
		return fmt.Errorf("%w: %q in model %s", ErrUnknownProperty, name, m.schema.nick)
	}
	return m.setProperty(p, v)
}

func (m *Model) getProperty(p Property) (any, error) {
	switch p.Kind {
	case NonParam:
		h, ok := m.hooks.(PropertyHandler)
		if !ok {
			return nil, fmt.Errorf("%w: %q has no handler in model %s", ErrUnknownProperty, p.Name, m.schema.nick)
		}
		return h.GetProperty(m, p)
	case SparamValue:
		return m.params.Get(p.Index), nil
	case VparamValue:
		return m.OrigVparamVector(p.Index).Slice(), nil
	case VparamLength:
		return m.vparamLen[p.Index], nil
	case SparamFit:
		return m.ftypes[p.Index] == param.Free, nil
	case VparamFit:
		flags := make([]bool, m.vparamLen[p.Index])
		for i := range flags {
			flags[i] = m.ftypes[m.vparamPos[p.Index]+i] == param.Free
		}
		return flags, nil
	}
	return nil, fmt.Errorf("%w: kind %s", ErrUnknownProperty, p.Kind)
}

func (m *Model) setProperty(p Property, v any) error {
	switch p.Kind {
	case NonParam:
		h, ok := m.hooks.(PropertyHandler)
		if !ok {
			return fmt.Errorf("%w: %q has no handler in model %s", ErrUnknownProperty, p.Name, m.schema.nick)
		}
		return h.SetProperty(m, p, v)

	case SparamValue:
		x, ok := v.(float64)
		if !ok {
			return propertyTypeError(p, v, "float64")
		}
		m.OrigParamSet(p.Index, x)
		return nil

	case VparamValue:
		var vec *numeric.Vector
		switch x := v.(type) {
		case []float64:
			vec = numeric.NewVectorFrom(x)
		case *numeric.Vector:
			vec = x
		default:
			return propertyTypeError(p, v, "[]float64")
		}
		m.OrigVparamSetVector(p.Index, vec)
		return nil

	case VparamLength:
		return fmt.Errorf("%w: %q", ErrConstructOnly, p.Name)

	case SparamFit:
		x, ok := v.(bool)
		if !ok {
			return propertyTypeError(p, v, "bool")
		}
		m.ftypes[p.Index] = param.FitTypeOf(x)
		return nil

	case VparamFit:
		n := p.Index
		switch x := v.(type) {
		case bool:
			m.setVparamFit(n, x)
		case []bool:
			switch len(x) {
			case 1:
				m.setVparamFit(n, x[0])
			case m.vparamLen[n]:
				for i, b := range x {
					m.ftypes[m.vparamPos[n]+i] = param.FitTypeOf(b)
				}
			default:
				defect("SetProperty", "vector parameter %q has length %d, got %d fit flags", m.schema.vparams[n].Name(), m.vparamLen[n], len(x))
			}
		default:
			return propertyTypeError(p, v, "[]bool")
		}
		return nil
	}
	return fmt.Errorf("%w: kind %s", ErrUnknownProperty, p.Kind)
}

func (m *Model) setVparamFit(n int, free bool) {
	for i := 0; i < m.vparamLen[n]; i++ {
		m.ftypes[m.vparamPos[n]+i] = param.FitTypeOf(free)
	}
}

func propertyTypeError(p Property, v any, want string) error {
	return fmt.Errorf("%w: %q wants %s, got %T", ErrPropertyType, p.Name, want, v)
}
