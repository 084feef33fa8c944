package reparam

import (
	"fmt"
	"sort"

	"github.com/san-kum/modelspace/internal/model"
)

// Options carries the settings a kind may need. Log reads Params; Linear
// reads Matrix and Offset.
type Options struct {
	Params []string    `yaml:"params,omitempty" json:"params,omitempty"`
	Matrix [][]float64 `yaml:"matrix,omitempty" json:"matrix,omitempty"`
	Offset []float64   `yaml:"offset,omitempty" json:"offset,omitempty"`
}

// Builder constructs a reparametrization for m.
type Builder func(m *model.Model, o Options) (model.Reparam, error)

var builders = map[string]Builder{
	KindLog: func(m *model.Model, o Options) (model.Reparam, error) {
		r, err := NewLog(m, o.Params...)
		if err != nil {
			return nil, err
		}
		return r, nil
	},
	KindLinear: func(m *model.Model, o Options) (model.Reparam, error) {
		r, err := NewLinear(m, o.Matrix, o.Offset)
		if err != nil {
			return nil, err
		}
		return r, nil
	},
}

// Build constructs the reparametrization named kind.
func Build(kind string, m *model.Model, o Options) (model.Reparam, error) {
	b, ok := builders[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return b(m, o)
}

// Kinds lists the known kinds.
func Kinds() []string {
	kinds := make([]string, 0, len(builders))
	for k := range builders {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
