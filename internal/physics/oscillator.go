package physics

import (
	"fmt"

	"github.com/san-kum/modelspace/internal/dynamo"
	"github.com/san-kum/modelspace/internal/model"
	"github.com/san-kum/modelspace/internal/param"
)

const (
	TypeOscillator = "oscillator"
	TypePendulum   = "pendulum"
	TypeChain      = "chain"
)

// Scalar slots of the oscillator level, inherited by every type.
const (
	Damping = iota
	Amplitude
	oscillatorSparams
)

// Oscillator holds the coefficients every type caches from the shared
// level.
type Oscillator struct {
	damping   float64
	amplitude float64
}

func (o *Oscillator) cache(m *model.Model) {
	o.damping = m.OrigParamGet(Damping)
	o.amplitude = m.OrigParamGet(Amplitude)
}

func oscillatorSchema() *model.Schema {
	s := model.NewSchema(TypeOscillator, "osc", nil)
	s.Extend(oscillatorSparams, 0, 0)
	s.SetSparam(Damping, param.New("damping", "\\gamma", 0, 10, 0.01, 1e-8, 0.1, param.Fixed))
	s.SetSparam(Amplitude, param.New("amplitude", "A", -10, 10, 0.1, 1e-8, 0.5, param.Free))
	s.Close()
	return s
}

// Register builds every schema, parent first, and adds the types to reg.
func Register(reg *model.Registry) error {
	osc := oscillatorSchema()
	pend := pendulumSchema(osc)
	chain := chainSchema(osc)

	if err := reg.Register(osc, nil); err != nil {
		return err
	}
	err := reg.Register(pend, func(opts ...model.Option) *model.Model {
		return model.New(pend, append(opts, model.WithHooks(&Pendulum{}))...)
	})
	if err != nil {
		return err
	}
	return reg.Register(chain, func(opts ...model.Option) *model.Model {
		return model.New(chain, append(opts, model.WithHooks(&Chain{}))...)
	})
}

// SystemOf returns the equations of motion of m.
func SystemOf(m *model.Model) (dynamo.System, error) {
	sys, ok := m.Hooks().(dynamo.System)
	if !ok {
		return nil, fmt.Errorf("%w: %s", dynamo.ErrNotSimulable, m.Schema().Name())
	}
	return sys, nil
}
