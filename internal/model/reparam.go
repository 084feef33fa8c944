package model

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/modelspace/internal/numeric"
	"github.com/san-kum/modelspace/internal/param"
)

// Reparam maps a model's original parameter vector to a working vector that
// fitting and sampling code operates on.
//
// While attached, the working vector returned by NewParams belongs to the
// reparametrization and is referenced by exactly one Model.
type Reparam interface {
	// Kind identifies the transform family; two models with active
	// reparams are only comparable when their kinds match.
	Kind() string

	// Len is the domain length, which must equal the model's Len.
	Len() int

	// NewParams is the working vector storage.
	NewParams() *numeric.Vector

	// Forward computes work from orig.
	Forward(m *Model, orig, work *numeric.Vector)

	// Backward computes orig from work.
	Backward(m *Model, work, orig *numeric.Vector)

	// GradToWorking maps a gradient with respect to the original
	// parameters, evaluated at orig, to one with respect to the working
	// parameters.
	GradToWorking(m *Model, orig, grad, out *numeric.Vector)

	// JacobianToWorking maps a Jacobian (rows: data points, columns:
	// original parameters) to columns in the working parameters.
	JacobianToWorking(m *Model, orig *numeric.Vector, jac, out *mat.Dense)

	// ParamDesc returns the descriptor of working slot i when the
	// transform renames or redefines it.
	ParamDesc(i int) (*param.Spec, bool)

	// IndexFromName looks up a working slot by its transformed name.
	IndexFromName(name string) (int, bool)
}
