// Package sim runs a dynamo.System forward in time.
package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/modelspace/internal/dynamo"
)

type Simulator struct {
	dyn        dynamo.System
	integrator dynamo.Integrator
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
}

func New(dyn dynamo.System, integrator dynamo.Integrator) *Simulator {
	return &Simulator{
		dyn:        dyn,
		integrator: integrator,
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

// Run integrates from x0 over cfg.Duration. A state that turns NaN or Inf
// stops the run; the partial result is returned with a
// *dynamo.SimulationError.
func (s *Simulator) Run(ctx context.Context, x0 dynamo.State, cfg dynamo.Config) (*dynamo.Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(x0) != s.dyn.StateDim() {
		return nil, fmt.Errorf("%w: state has %d entries, system wants %d", dynamo.ErrDimensionMismatch, len(x0), s.dyn.StateDim())
	}

	result := &dynamo.Result{Metrics: make(map[string]float64)}
	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0.Clone()
	t := 0.0
	dt := cfg.Dt
	result.States = append(result.States, x.Clone())
	result.Times = append(result.Times, t)
	initialEnergy := s.computeEnergy(x)

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	for i := 0; cfg.Adaptive || i < steps; i++ {
		if cfg.Adaptive && t >= cfg.Duration {
			break
		}
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		for _, m := range s.metrics {
			m.Observe(x, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(x, t)
		}

		var next dynamo.State
		taken := dt
		if cfg.Adaptive {
			var err error
			next, taken, dt, err = s.adaptiveStep(x, t, math.Min(dt, cfg.Duration-t), cfg)
			if err != nil {
				return result, &dynamo.SimulationError{Step: i, Time: t, State: x.Clone(), Wrapped: err}
			}
		} else {
			next = s.integrator.Step(s.dyn, x, t, dt)
		}

		if cfg.ValidateState && !next.IsValid() {
			err := &dynamo.SimulationError{Step: i, Time: t, State: x.Clone(), Wrapped: dynamo.ErrInvalidState}
			result.Errors = append(result.Errors, err)
			return result, err
		}

		x = next
		t += taken
		result.StepsTaken++
		result.States = append(result.States, x.Clone())
		result.Times = append(result.Times, t)
	}

	if initialEnergy != 0 {
		result.EnergyDrift = math.Abs(s.computeEnergy(x)-initialEnergy) / math.Abs(initialEnergy)
	}
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, nil
}

func (s *Simulator) computeEnergy(x dynamo.State) float64 {
	if h, ok := s.dyn.(dynamo.Hamiltonian); ok {
		return h.Energy(x)
	}
	return 0
}

// adaptiveStep defers to an AdaptiveIntegrator, or controls a fixed-step
// integrator by step doubling.
func (s *Simulator) adaptiveStep(x dynamo.State, t, dt float64, cfg dynamo.Config) (dynamo.State, float64, float64, error) {
	if a, ok := s.integrator.(dynamo.AdaptiveIntegrator); ok {
		next, taken, suggested, err := a.StepAdaptive(s.dyn, x, t, dt, cfg.Tolerance)
		return next, taken, clampDt(suggested, cfg), err
	}

	for {
		full := s.integrator.Step(s.dyn, x, t, dt)
		half := s.integrator.Step(s.dyn, x, t, dt/2)
		two := s.integrator.Step(s.dyn, half, t+dt/2, dt/2)
		errEst := full.Sub(two).Norm()

		if errEst > cfg.Tolerance && dt/2 >= cfg.MinDt {
			dt /= 2
			continue
		}
		if math.IsNaN(errEst) {
			return x, 0, dt, dynamo.ErrInvalidState
		}
		next := dt
		if errEst < cfg.Tolerance/10 {
			next = dt * 2
		}
		return two, dt, clampDt(next, cfg), nil
	}
}

func clampDt(dt float64, cfg dynamo.Config) float64 {
	if cfg.MaxDt > 0 && dt > cfg.MaxDt {
		return cfg.MaxDt
	}
	if dt < cfg.MinDt {
		return cfg.MinDt
	}
	return dt
}
