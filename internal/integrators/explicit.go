package integrators

import "github.com/san-kum/modelspace/internal/dynamo"

// Tableau is the Butcher tableau of an explicit Runge-Kutta method: nodes
// C, strictly lower triangular coefficients A (row i has i entries) and
// weights B.
type Tableau struct {
	Name string
	C    []float64
	A    [][]float64
	B    []float64
}

var (
	EulerTableau = Tableau{
		Name: "euler",
		C:    []float64{0},
		A:    [][]float64{{}},
		B:    []float64{1},
	}
	MidpointTableau = Tableau{
		Name: "midpoint",
		C:    []float64{0, 0.5},
		A:    [][]float64{{}, {0.5}},
		B:    []float64{0, 1},
	}
	RK4Tableau = Tableau{
		Name: "rk4",
		C:    []float64{0, 0.5, 0.5, 1},
		A:    [][]float64{{}, {0.5}, {0, 0.5}, {0, 0, 1}},
		B:    []float64{1.0 / 6, 1.0 / 3, 1.0 / 3, 1.0 / 6},
	}
)

// Explicit steps with a fixed tableau. Stage buffers are reused between
// steps, so an Explicit must not be shared across goroutines.
type Explicit struct {
	tab     Tableau
	k       []dynamo.State
	scratch dynamo.State
}

func NewExplicit(tab Tableau) *Explicit {
	return &Explicit{tab: tab}
}

func NewEuler() *Explicit    { return NewExplicit(EulerTableau) }
func NewMidpoint() *Explicit { return NewExplicit(MidpointTableau) }
func NewRK4() *Explicit      { return NewExplicit(RK4Tableau) }

func (e *Explicit) Name() string { return e.tab.Name }

func (e *Explicit) ensureScratch(n int) {
	if len(e.scratch) == n && len(e.k) == len(e.tab.B) {
		return
	}
	e.scratch = make(dynamo.State, n)
	e.k = make([]dynamo.State, len(e.tab.B))
	for i := range e.k {
		e.k[i] = make(dynamo.State, n)
	}
}

func (e *Explicit) Step(dyn dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	n := len(x)
	e.ensureScratch(n)

	for i := range e.tab.B {
		copy(e.scratch, x)
		for j, a := range e.tab.A[i] {
			if a == 0 {
				continue
			}
			for q := 0; q < n; q++ {
				e.scratch[q] += dt * a * e.k[j][q]
			}
		}
		copy(e.k[i], dyn.Derive(e.scratch, t+e.tab.C[i]*dt))
	}

	out := x.Clone()
	for i, b := range e.tab.B {
		if b == 0 {
			continue
		}
		for q := 0; q < n; q++ {
			out[q] += dt * b * e.k[i][q]
		}
	}
	return out
}
