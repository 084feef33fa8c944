// Package experiment simulates a model instance and reduces the trajectory
// to metric values.
package experiment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/modelspace/internal/dynamo"
	"github.com/san-kum/modelspace/internal/integrators"
	"github.com/san-kum/modelspace/internal/metrics"
	"github.com/san-kum/modelspace/internal/model"
	"github.com/san-kum/modelspace/internal/physics"
	"github.com/san-kum/modelspace/internal/sim"
)

type Config struct {
	Integrator string        `yaml:"integrator"`
	Sim        dynamo.Config `yaml:"sim"`
	Metrics    []string      `yaml:"metrics"`
	// InitState overrides the model's default state when set.
	InitState []float64 `yaml:"init_state,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		Integrator: "rk4",
		Sim:        dynamo.DefaultConfig(),
		Metrics:    []string{"energy_drift"},
	}
}

// Experiment runs one model instance. The model must not change while Run
// is in progress.
type Experiment struct {
	cfg    Config
	model  *model.Model
	logger *slog.Logger
}

func New(m *model.Model, cfg Config, logger *slog.Logger) *Experiment {
	if logger == nil {
		logger = slog.Default()
	}
	return &Experiment{cfg: cfg, model: m, logger: logger}
}

func (e *Experiment) Model() *model.Model { return e.model }

// Run checks the model's parameters, integrates it and collects the
// configured metrics. A model outside its bounds or failing its validity
// check is rejected with dynamo.ErrInvalidParams.
func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	if !e.model.ParamsValidBounds() || !e.model.ParamsValid() {
		return nil, fmt.Errorf("%w: %s", dynamo.ErrInvalidParams, e.model.Schema().Name())
	}

	dyn, err := physics.SystemOf(e.model)
	if err != nil {
		return nil, err
	}
	integ, err := integrators.New(e.cfg.Integrator)
	if err != nil {
		return nil, err
	}

	s := sim.New(dyn, integ)
	for _, name := range e.cfg.Metrics {
		m, ok := metrics.ByName(name, dyn)
		if !ok {
			return nil, fmt.Errorf("unknown metric: %s", name)
		}
		s.AddMetric(m)
	}

	x0, err := e.initialState(dyn)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("experiment start",
		"model", e.model.Schema().Name(),
		"integrator", e.cfg.Integrator,
		"dt", e.cfg.Sim.Dt,
		"duration", e.cfg.Sim.Duration,
	)
	result, err := s.Run(ctx, x0, e.cfg.Sim)
	if err != nil {
		return result, err
	}
	e.logger.Debug("experiment done", "steps", result.StepsTaken, "energy_drift", result.EnergyDrift)
	return result, nil
}

func (e *Experiment) initialState(dyn dynamo.System) (dynamo.State, error) {
	if len(e.cfg.InitState) > 0 {
		return dynamo.State(e.cfg.InitState).Clone(), nil
	}
	if init, ok := dyn.(dynamo.Initializer); ok {
		return init.DefaultState(), nil
	}
	return nil, fmt.Errorf("%w: no initial state for %s", dynamo.ErrDimensionMismatch, e.model.Schema().Name())
}

// Objective runs the experiment and returns the named metric, or the
// relative energy drift when metric is empty.
func (e *Experiment) Objective(ctx context.Context, metric string) (float64, error) {
	result, err := e.Run(ctx)
	if err != nil {
		return 0, err
	}
	if metric == "" {
		return result.EnergyDrift, nil
	}
	v, ok := result.Metrics[metric]
	if !ok {
		return 0, fmt.Errorf("metric %s not collected", metric)
	}
	return v, nil
}
