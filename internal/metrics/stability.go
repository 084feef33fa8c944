package metrics

import (
	"math"

	"github.com/san-kum/modelspace/internal/dynamo"
)

// Stability is the fraction of observed states whose components all stay
// within threshold.
type Stability struct {
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{threshold: threshold}
}

func (s *Stability) Name() string { return "stability" }

func (s *Stability) Observe(x dynamo.State, _ float64) {
	s.samples++
	for _, v := range x {
		if math.Abs(v) > s.threshold {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// Amplitude is the largest |x[0]| observed.
type Amplitude struct {
	max float64
}

func NewAmplitude() *Amplitude { return &Amplitude{} }

func (a *Amplitude) Name() string { return "amplitude" }

func (a *Amplitude) Observe(x dynamo.State, _ float64) {
	if len(x) > 0 {
		a.max = math.Max(a.max, math.Abs(x[0]))
	}
}

func (a *Amplitude) Value() float64 { return a.max }

func (a *Amplitude) Reset() { a.max = 0 }

// ByName builds a metric for dyn. Energy metrics require a Hamiltonian
// system.
func ByName(name string, dyn dynamo.System) (dynamo.Metric, bool) {
	switch name {
	case "energy":
		h, ok := dyn.(dynamo.Hamiltonian)
		if !ok {
			return nil, false
		}
		return NewEnergy(h), true
	case "energy_drift":
		return NewEnergyDrift(dyn), true
	case "stability":
		return NewStability(10), true
	case "amplitude":
		return NewAmplitude(), true
	case "frequency":
		return NewFrequency(), true
	}
	return nil, false
}

// Names lists the metrics ByName knows.
func Names() []string {
	return []string{"amplitude", "energy", "energy_drift", "frequency", "stability"}
}
