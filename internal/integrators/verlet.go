package integrators

import "github.com/san-kum/modelspace/internal/dynamo"

// Verlet is velocity Verlet for states laid out as [q, v]. It is
// symplectic when the acceleration depends on positions only.
type Verlet struct{}

func NewVerlet() *Verlet { return &Verlet{} }

func (v *Verlet) Name() string { return "verlet" }

func (v *Verlet) Step(dyn dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	n := len(x) / 2
	a0 := dyn.Derive(x, t)

	next := x.Clone()
	for i := 0; i < n; i++ {
		next[i] = x[i] + dt*x[n+i] + 0.5*dt*dt*a0[n+i]
	}
	a1 := dyn.Derive(next, t+dt)
	for i := 0; i < n; i++ {
		next[n+i] = x[n+i] + 0.5*dt*(a0[n+i]+a1[n+i])
	}
	return next
}
