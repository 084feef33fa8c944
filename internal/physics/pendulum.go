package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/modelspace/internal/dynamo"
	"github.com/san-kum/modelspace/internal/model"
	"github.com/san-kum/modelspace/internal/param"
)

// Scalar slots of the pendulum level.
const (
	PendulumMass = oscillatorSparams + iota
	PendulumLength
	PendulumGravity
	pendulumSparams
)

const pendulumOmega0 = "omega0"

// Pendulum is a damped simple pendulum with state [theta, omega].
type Pendulum struct {
	Oscillator
	mass    float64
	length  float64
	gravity float64
	omega0  float64
}

func pendulumSchema(parent *model.Schema) *model.Schema {
	s := model.NewSchema(TypePendulum, "pend", parent)
	s.Extend(pendulumSparams-oscillatorSparams, 0, 1)
	s.SetSparam(PendulumMass, param.New("mass", "m", 1e-3, 1e3, 0.1, 1e-8, 1.0, param.Fixed))
	s.SetSparam(PendulumLength, param.New("length", "L", 1e-3, 100, 0.1, 1e-8, 1.0, param.Free))
	s.SetSparam(PendulumGravity, param.New("gravity", "g", 0, 100, 0.1, 1e-8, 9.81, param.Fixed))
	s.SetNonParam(0, pendulumOmega0)
	s.Close()
	return s
}

func (p *Pendulum) ParamsUpdated(m *model.Model) {
	p.cache(m)
	p.mass = m.OrigParamGet(PendulumMass)
	p.length = m.OrigParamGet(PendulumLength)
	p.gravity = m.OrigParamGet(PendulumGravity)
	p.omega0 = math.Sqrt(p.gravity / p.length)
}

func (p *Pendulum) Valid(m *model.Model) bool {
	return m.OrigParamGet(PendulumMass) > 0 && m.OrigParamGet(PendulumLength) > 0
}

func (p *Pendulum) GetProperty(_ *model.Model, prop model.Property) (any, error) {
	if prop.Name != pendulumOmega0 {
		return nil, fmt.Errorf("%w: %s", model.ErrUnknownProperty, prop.Name)
	}
	return p.omega0, nil
}

func (p *Pendulum) SetProperty(_ *model.Model, prop model.Property, _ any) error {
	return fmt.Errorf("%w: %s", model.ErrReadOnly, prop.Name)
}

// Omega0 is the small-angle angular frequency sqrt(g/L).
func (p *Pendulum) Omega0() float64 { return p.omega0 }

func (p *Pendulum) StateDim() int { return 2 }

func (p *Pendulum) Derive(x dynamo.State, _ float64) dynamo.State {
	theta, omega := x[0], x[1]
	alpha := (-p.damping*omega - p.mass*p.gravity*p.length*math.Sin(theta)) / (p.mass * p.length * p.length)
	return dynamo.State{omega, alpha}
}

func (p *Pendulum) Energy(x dynamo.State) float64 {
	v := p.length * x[1]
	ke := 0.5 * p.mass * v * v
	pe := p.mass * p.gravity * p.length * (1.0 - math.Cos(x[0]))
	return ke + pe
}

// DefaultState starts at rest, displaced by the amplitude.
func (p *Pendulum) DefaultState() dynamo.State {
	return dynamo.State{p.amplitude, 0}
}
