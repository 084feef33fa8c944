package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/modelspace/internal/dynamo"
)

// Dormand-Prince 5(4) coefficients.
var (
	dpC = []float64{0, 1.0 / 5, 3.0 / 10, 4.0 / 5, 8.0 / 9, 1, 1}
	dpA = [][]float64{
		{},
		{1.0 / 5},
		{3.0 / 40, 9.0 / 40},
		{44.0 / 45, -56.0 / 15, 32.0 / 9},
		{19372.0 / 6561, -25360.0 / 2187, 64448.0 / 6561, -212.0 / 729},
		{9017.0 / 3168, -355.0 / 33, 46732.0 / 5247, 49.0 / 176, -5103.0 / 18656},
		{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84},
	}
	dpB5 = []float64{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84, 0}
	dpB4 = []float64{5179.0 / 57600, 0, 7571.0 / 16695, 393.0 / 640, -92097.0 / 339200, 187.0 / 2100, 1.0 / 40}
)

// RK45 is the embedded Dormand-Prince pair with step size control.
type RK45 struct {
	safety   float64
	minScale float64
	maxScale float64
	minDt    float64
	k        [7]dynamo.State
}

func NewRK45() *RK45 {
	return &RK45{
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
		minDt:    1e-12,
	}
}

func (r *RK45) Name() string { return "rk45" }

// SetMinDt sets the step size below which StepAdaptive gives up.
func (r *RK45) SetMinDt(dt float64) { r.minDt = dt }

// Step takes one fixed step of size dt with the fifth order solution.
func (r *RK45) Step(dyn dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	next, _ := r.attempt(dyn, x, t, dt)
	return next
}

// attempt returns the fifth order solution and the max-norm of the
// embedded error estimate, scaled by 1+|x|.
func (r *RK45) attempt(dyn dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, float64) {
	n := len(x)
	for i := range dpC {
		stage := x.Clone()
		for j, a := range dpA[i] {
			if a == 0 {
				continue
			}
			for q := 0; q < n; q++ {
				stage[q] += dt * a * r.k[j][q]
			}
		}
		r.k[i] = dyn.Derive(stage, t+dpC[i]*dt)
	}

	next := x.Clone()
	errMax := 0.0
	for q := 0; q < n; q++ {
		var hi, lo float64
		for i := range dpB5 {
			hi += dpB5[i] * r.k[i][q]
			lo += dpB4[i] * r.k[i][q]
		}
		next[q] += dt * hi
		errMax = math.Max(errMax, math.Abs(dt*(hi-lo))/(1+math.Abs(x[q])))
	}
	return next, errMax
}

// StepAdaptive retries with smaller steps until the error estimate is
// within tol. It returns the new state, the step size actually taken and
// the suggested size of the next step.
func (r *RK45) StepAdaptive(dyn dynamo.System, x dynamo.State, t, dt, tol float64) (dynamo.State, float64, float64, error) {
	for {
		next, errMax := r.attempt(dyn, x, t, dt)
		ratio := errMax / tol

		if ratio <= 1 {
			scale := r.maxScale
			if ratio > 0 {
				scale = math.Min(r.maxScale, r.safety*math.Pow(ratio, -0.2))
			}
			return next, dt, dt * scale, nil
		}

		if math.IsNaN(ratio) {
			return x, 0, dt, fmt.Errorf("%w at t=%g", dynamo.ErrInvalidState, t)
		}
		dt *= math.Max(r.minScale, r.safety*math.Pow(ratio, -0.25))
		if dt < r.minDt {
			return x, 0, dt, fmt.Errorf("%w: %g at t=%g", dynamo.ErrStepTooSmall, dt, t)
		}
	}
}
