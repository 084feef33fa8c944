package reparam

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/modelspace/internal/model"
	"github.com/san-kum/modelspace/internal/numeric"
	"github.com/san-kum/modelspace/internal/param"
)

const (
	KindLinear = "linear"

	linearPrefix = "lin_"

	// maxCond rejects matrices too close to singular to invert reliably.
	maxCond = 1e12
)

// Linear maps a working vector u to the original space as x = T u + v.
type Linear struct {
	n     int
	t     *mat.Dense
	v     *mat.VecDense
	lu    mat.LU
	descs []*param.Spec
}

// NewLinear builds the affine transform with matrix t (n×n, row major) and
// offset v (length n, or nil for zero) for model m. Every working slot is
// renamed lin_0 .. lin_{n-1}; their defaults are the image of m's
// defaults.
func NewLinear(m *model.Model, t [][]float64, v []float64) (*Linear, error) {
	n := m.Len()
	if n == 0 {
		return nil, ErrNoParams
	}
	tm, err := numeric.MatrixFromRows(t)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShape, err)
	}
	if r, c := numeric.Dims(tm); r != n || c != n {
		return nil, fmt.Errorf("%w: matrix is %dx%d, model has %d parameters", ErrShape, r, c, n)
	}
	if v == nil {
		v = make([]float64, n)
	}
	if len(v) != n {
		return nil, fmt.Errorf("%w: offset has %d entries, model has %d parameters", ErrShape, len(v), n)
	}

	r := &Linear{n: n, t: tm, v: mat.NewVecDense(n, append([]float64(nil), v...))}
	r.lu.Factorize(tm)
	if c := r.lu.Cond(); math.IsInf(c, 0) || c > maxCond {
		return nil, fmt.Errorf("%w: condition number %g", ErrSingular, c)
	}

	defaults := numeric.NewVector(n)
	for i := 0; i < n; i++ {
		defaults.Set(i, m.OrigParamDesc(i).Default)
	}
	u := numeric.NewVector(n)
	r.Forward(m, defaults, u)

	r.descs = make([]*param.Spec, n)
	for i := range r.descs {
		r.descs[i] = &param.Spec{
			Name:    linearPrefix + strconv.Itoa(i),
			Symbol:  "u_" + strconv.Itoa(i),
			Lower:   math.Inf(-1),
			Upper:   math.Inf(1),
			Scale:   1,
			Default: u.Get(i),
			FitType: param.Free,
		}
	}
	return r, nil
}

func (r *Linear) Kind() string { return KindLinear }
func (r *Linear) Len() int     { return r.n }

func (r *Linear) NewParams() *numeric.Vector { return numeric.NewVector(r.n) }

// Forward solves T u = x - v.
func (r *Linear) Forward(_ *model.Model, orig, work *numeric.Vector) {
	rhs := mat.NewVecDense(r.n, nil)
	rhs.SubVec(orig.VecDense(), r.v)
	if err := r.lu.SolveVecTo(work.VecDense(), false, rhs); err != nil {
		// unreachable while NewLinear enforces maxCond
		panic(fmt.Errorf("%w: %v", ErrSingular, err))
	}
}

func (r *Linear) Backward(_ *model.Model, work, orig *numeric.Vector) {
	x := orig.VecDense()
	x.MulVec(r.t, work.VecDense())
	x.AddVec(x, r.v)
}

// GradToWorking applies the chain rule: d/du = Tᵀ d/dx.
func (r *Linear) GradToWorking(_ *model.Model, _, grad, out *numeric.Vector) {
	out.VecDense().MulVec(r.t.T(), grad.VecDense())
}

func (r *Linear) JacobianToWorking(_ *model.Model, _ *numeric.Vector, jac, out *mat.Dense) {
	out.Mul(jac, r.t)
}

func (r *Linear) ParamDesc(i int) (*param.Spec, bool) {
	if i < 0 || i >= len(r.descs) {
		return nil, false
	}
	return r.descs[i], true
}

func (r *Linear) IndexFromName(name string) (int, bool) {
	s, ok := strings.CutPrefix(name, linearPrefix)
	if !ok {
		return -1, false
	}
	i, err := strconv.Atoi(s)
	if err != nil || i < 0 || i >= r.n {
		return -1, false
	}
	return i, true
}
