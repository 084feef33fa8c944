package reparam

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/modelspace/internal/model"
	"github.com/san-kum/modelspace/internal/numeric"
	"github.com/san-kum/modelspace/internal/param"
)

const KindLog = "log"

// Log replaces selected positive slots x by ln_x and passes the others
// through unchanged.
type Log struct {
	n       int
	indices []int
	descs   map[int]*param.Spec
	names   map[string]int
}

// NewLog builds a log transform of the named original slots of m. Every
// named slot must have a non-negative lower bound.
func NewLog(m *model.Model, names ...string) (*Log, error) {
	if len(names) == 0 {
		return nil, ErrNoParams
	}
	r := &Log{
		n:     m.Len(),
		descs: make(map[int]*param.Spec),
		names: make(map[string]int),
	}
	for _, name := range names {
		i, ok := m.OrigParamIndexFromName(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", model.ErrParamNotFound, name)
		}
		if _, dup := r.descs[i]; dup {
			continue
		}
		d, err := logDesc(m.OrigParamDesc(i))
		if err != nil {
			return nil, err
		}
		r.descs[i] = d
		r.names[d.Name] = i
		r.indices = append(r.indices, i)
	}
	sort.Ints(r.indices)
	return r, nil
}

func logDesc(orig *param.Spec) (*param.Spec, error) {
	if orig.Lower < 0 {
		return nil, fmt.Errorf("%w: %s has lower bound %g", ErrDomain, orig.Name, orig.Lower)
	}
	if !(orig.Upper > 0) {
		return nil, fmt.Errorf("%w: %s has upper bound %g", ErrDomain, orig.Name, orig.Upper)
	}
	d := orig.Copy()
	d.Name = "ln_" + orig.Name
	d.Symbol = "ln(" + orig.Symbol + ")"
	d.Lower = math.Log(orig.Lower)
	d.Upper = math.Log(orig.Upper)
	// A zero default maps to -Inf so that defaults survive the round trip.
	d.Default = math.Log(orig.Default)
	d.Scale = orig.Scale
	if orig.Default > 0 {
		d.Scale = orig.Scale / orig.Default
	}
	if orig.AbsTol > 0 && orig.Default > 0 {
		d.AbsTol = orig.AbsTol / orig.Default
	}
	return d, nil
}

func (r *Log) Kind() string { return KindLog }
func (r *Log) Len() int     { return r.n }

func (r *Log) NewParams() *numeric.Vector { return numeric.NewVector(r.n) }

// Indices lists the transformed slots in ascending order.
func (r *Log) Indices() []int {
	out := make([]int, len(r.indices))
	copy(out, r.indices)
	return out
}

func (r *Log) Forward(_ *model.Model, orig, work *numeric.Vector) {
	work.Memcpy(orig)
	for _, i := range r.indices {
		work.Set(i, math.Log(orig.Get(i)))
	}
}

func (r *Log) Backward(_ *model.Model, work, orig *numeric.Vector) {
	orig.Memcpy(work)
	for _, i := range r.indices {
		orig.Set(i, math.Exp(work.Get(i)))
	}
}

// GradToWorking applies d x / d ln_x = x.
func (r *Log) GradToWorking(_ *model.Model, orig, grad, out *numeric.Vector) {
	out.Memcpy(grad)
	for _, i := range r.indices {
		out.Set(i, grad.Get(i)*orig.Get(i))
	}
}

func (r *Log) JacobianToWorking(_ *model.Model, orig *numeric.Vector, jac, out *mat.Dense) {
	out.Copy(jac)
	rows, _ := jac.Dims()
	for _, i := range r.indices {
		x := orig.Get(i)
		for k := 0; k < rows; k++ {
			out.Set(k, i, jac.At(k, i)*x)
		}
	}
}

func (r *Log) ParamDesc(i int) (*param.Spec, bool) {
	d, ok := r.descs[i]
	return d, ok
}

func (r *Log) IndexFromName(name string) (int, bool) {
	i, ok := r.names[name]
	return i, ok
}
