// Package metrics provides per-step observers that reduce a trajectory to
// one number, usable as scan objectives.
package metrics

import (
	"math"

	"github.com/san-kum/modelspace/internal/dynamo"
)

// Energy averages the system energy over the observed states.
type Energy struct {
	dyn     dynamo.Hamiltonian
	samples int
	total   float64
}

func NewEnergy(dyn dynamo.Hamiltonian) *Energy {
	return &Energy{dyn: dyn}
}

func (e *Energy) Name() string { return "energy" }

func (e *Energy) Observe(x dynamo.State, _ float64) {
	e.total += e.dyn.Energy(x)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *Energy) Reset() {
	e.total = 0
	e.samples = 0
}

// EnergyDrift is the largest relative departure from the first observed
// energy. Systems without an energy report zero.
type EnergyDrift struct {
	dyn      dynamo.System
	initial  float64
	maxDrift float64
	samples  int
}

func NewEnergyDrift(dyn dynamo.System) *EnergyDrift {
	return &EnergyDrift{dyn: dyn}
}

func (e *EnergyDrift) Name() string { return "energy_drift" }

func (e *EnergyDrift) Observe(x dynamo.State, _ float64) {
	h, ok := e.dyn.(dynamo.Hamiltonian)
	if !ok {
		return
	}
	energy := h.Energy(x)
	if e.samples == 0 {
		e.initial = energy
	}
	e.samples++

	if e.initial != 0 {
		drift := math.Abs(energy-e.initial) / math.Abs(e.initial)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.maxDrift = 0
	e.samples = 0
}
