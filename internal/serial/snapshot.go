package serial

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/san-kum/modelspace/internal/model"
	"github.com/san-kum/modelspace/internal/numeric"
)

// Snapshot is a model's property table with values, in property id order.
// The active reparametrization is not part of a snapshot; values are taken
// from the original space.
type Snapshot struct {
	Type       string     `json:"type"`
	Properties []Property `json:"properties"`
}

type Property struct {
	Name  string          `json:"name"`
	Kind  string          `json:"kind"`
	Value json.RawMessage `json:"value"`
}

// Take captures every parameter property of m, and every non-parameter
// property its hooks can report.
func Take(m *model.Model) (*Snapshot, error) {
	s := &Snapshot{Type: m.Schema().Name()}
	for _, p := range m.Schema().Properties() {
		v, err := m.GetProperty(p.ID)
		if err != nil {
			if p.Kind == model.NonParam {
				continue
			}
			return nil, err
		}
		switch x := v.(type) {
		case float64:
			v = Float(x)
		case []float64:
			v = toFloats(x)
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("serial: encode %s: %w", p.Name, err)
		}
		s.Properties = append(s.Properties, Property{Name: p.Name, Kind: p.Kind.String(), Value: raw})
	}
	return s, nil
}

// Restore builds a model of the snapshot's type from reg and applies every
// recorded property. Vector lengths are applied at construction.
func Restore(reg *model.Registry, s *Snapshot) (*model.Model, error) {
	schema, err := reg.Schema(s.Type)
	if err != nil {
		return nil, err
	}

	resolved := make([]model.Property, len(s.Properties))
	var opts []model.Option
	for i, sp := range s.Properties {
		p, ok := schema.PropertyByName(sp.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %s has no property %q", ErrMalformed, s.Type, sp.Name)
		}
		if p.Kind.String() != sp.Kind {
			return nil, fmt.Errorf("%w: property %q is %s, snapshot says %s", ErrMalformed, sp.Name, p.Kind, sp.Kind)
		}
		resolved[i] = p

		if p.Kind == model.VparamLength {
			var n int
			if err := json.Unmarshal(sp.Value, &n); err != nil || n < 0 {
				return nil, fmt.Errorf("%w: length %s: %s", ErrMalformed, sp.Name, sp.Value)
			}
			opts = append(opts, model.WithVectorLen(p.Index, n))
		}
	}

	m, err := reg.New(s.Type, opts...)
	if err != nil {
		return nil, err
	}
	for i, sp := range s.Properties {
		if err := restoreProperty(m, resolved[i], sp.Value); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func restoreProperty(m *model.Model, p model.Property, raw json.RawMessage) error {
	var v any
	switch p.Kind {
	case model.VparamLength:
		return nil
	case model.SparamValue:
		var x Float
		if err := json.Unmarshal(raw, &x); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrMalformed, p.Name, err)
		}
		v = float64(x)
	case model.VparamValue:
		vec := numeric.NewVector(m.VparamLen(p.Index))
		if err := DecodeVectorInto(raw, vec); err != nil {
			var se *ShapeError
			if errors.As(err, &se) {
				se.What = p.Name
			}
			return err
		}
		v = vec
	case model.SparamFit:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrMalformed, p.Name, err)
		}
		v = b
	case model.VparamFit:
		var flags []bool
		if err := json.Unmarshal(raw, &flags); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrMalformed, p.Name, err)
		}
		if n := m.VparamLen(p.Index); len(flags) != n && len(flags) != 1 {
			return &ShapeError{What: p.Name, Want: []int{n}, Got: []int{len(flags)}}
		}
		v = flags
	case model.NonParam:
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrMalformed, p.Name, err)
		}
	}
	if err := m.SetProperty(p.ID, v); err != nil {
		if p.Kind == model.NonParam && errors.Is(err, model.ErrReadOnly) {
			return nil
		}
		return fmt.Errorf("serial: restore %s: %w", p.Name, err)
	}
	return nil
}

// Marshal encodes m's snapshot.
func Marshal(m *model.Model) ([]byte, error) {
	s, err := Take(m)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(s, "", "  ")
}

// Unmarshal rebuilds a model from Marshal output.
func Unmarshal(reg *model.Registry, data []byte) (*model.Model, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return Restore(reg, &s)
}

// Dup clones m through a snapshot round trip. The clone has no
// reparametrization.
func Dup(reg *model.Registry, m *model.Model) (*model.Model, error) {
	s, err := Take(m)
	if err != nil {
		return nil, err
	}
	return Restore(reg, s)
}

// EncodeParams encodes m's working vector.
func EncodeParams(m *model.Model) ([]byte, error) {
	return EncodeVector(m.ParamsGetAll())
}

// DecodeParams writes an encoded working vector into m. The length must
// match m's.
func DecodeParams(m *model.Model, data []byte) error {
	v := numeric.NewVector(m.ParamsGetAll().Len())
	if err := DecodeVectorInto(data, v); err != nil {
		return err
	}
	m.ParamsSetVector(v)
	return nil
}
