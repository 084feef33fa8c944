package physics

import (
	"fmt"

	"github.com/san-kum/modelspace/internal/dynamo"
	"github.com/san-kum/modelspace/internal/model"
	"github.com/san-kum/modelspace/internal/param"
)

// Vector slots of the chain level.
const (
	ChainMasses = iota
	ChainSprings
)

const chainCount = "count"

// Chain is a line of n masses between two fixed walls joined by n+1
// springs. The state is [q_0..q_{n-1}, v_0..v_{n-1}].
type Chain struct {
	Oscillator
	masses  []float64
	springs []float64
}

func chainSchema(parent *model.Schema) *model.Schema {
	s := model.NewSchema(TypeChain, "chain", parent)
	s.Extend(0, 2, 1)
	s.SetVparam(ChainMasses, 3, param.New("m", "m", 1e-3, 1e3, 0.1, 1e-8, 1.0, param.Fixed))
	s.SetVparam(ChainSprings, 4, param.New("k", "k", 0, 1e4, 1, 1e-8, 10.0, param.Free))
	s.SetNonParam(0, chainCount)
	s.Close()
	return s
}

func (c *Chain) ParamsUpdated(m *model.Model) {
	c.cache(m)
	c.masses = m.OrigVparamVector(ChainMasses).Slice()
	c.springs = m.OrigVparamVector(ChainSprings).Slice()
}

// Valid requires one more spring than masses and positive masses.
func (c *Chain) Valid(m *model.Model) bool {
	if m.VparamLen(ChainSprings) != m.VparamLen(ChainMasses)+1 {
		return false
	}
	for i := 0; i < m.VparamLen(ChainMasses); i++ {
		if m.OrigVparamGet(ChainMasses, i) <= 0 {
			return false
		}
	}
	return true
}

func (c *Chain) GetProperty(_ *model.Model, prop model.Property) (any, error) {
	if prop.Name != chainCount {
		return nil, fmt.Errorf("%w: %s", model.ErrUnknownProperty, prop.Name)
	}
	return len(c.masses), nil
}

func (c *Chain) SetProperty(_ *model.Model, prop model.Property, _ any) error {
	return fmt.Errorf("%w: %s", model.ErrReadOnly, prop.Name)
}

func (c *Chain) StateDim() int { return 2 * len(c.masses) }

// spring returns stiffness j, or zero for springs the instance lacks.
func (c *Chain) spring(j int) float64 {
	if j < len(c.springs) {
		return c.springs[j]
	}
	return 0
}

func (c *Chain) Derive(x dynamo.State, _ float64) dynamo.State {
	n := len(c.masses)
	dx := make(dynamo.State, 2*n)

	for i := 0; i < n; i++ {
		dx[i] = x[n+i]

		var left, right float64
		if i > 0 {
			left = x[i-1]
		}
		if i < n-1 {
			right = x[i+1]
		}
		force := -c.spring(i)*(x[i]-left) + c.spring(i+1)*(right-x[i])
		force -= c.damping * x[n+i]
		dx[n+i] = force / c.masses[i]
	}
	return dx
}

func (c *Chain) Energy(x dynamo.State) float64 {
	n := len(c.masses)
	e := 0.0
	for i := 0; i < n; i++ {
		v := x[n+i]
		e += 0.5 * c.masses[i] * v * v
	}
	for j := 0; j <= n; j++ {
		var left, right float64
		if j > 0 {
			left = x[j-1]
		}
		if j < n {
			right = x[j]
		}
		d := right - left
		e += 0.5 * c.spring(j) * d * d
	}
	return e
}

// DefaultState displaces the first mass by the amplitude.
func (c *Chain) DefaultState() dynamo.State {
	x := make(dynamo.State, c.StateDim())
	if len(c.masses) > 0 {
		x[0] = c.amplitude
	}
	return x
}
