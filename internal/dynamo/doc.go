// Package dynamo provides the simulation primitives used to evaluate model
// instances as dynamical systems.
//
// A concrete model type (see package physics) exposes its equations of
// motion as a [System] whose coefficients are read from the instance's
// original parameter vector:
//
//   - [State]: phase-space vector
//   - [System]: dx/dt = f(x, t)
//   - [Integrator], [AdaptiveIntegrator]: numerical steppers
//   - [Metric], [Observer]: per-step instrumentation
//
// # Example
//
//	m, _ := reg.New("pendulum")
//	dyn, _ := physics.SystemOf(m)
//	s := sim.New(dyn, integrators.NewRK4())
//	result, _ := s.Run(ctx, dyn.(dynamo.Initializer).DefaultState(), dynamo.DefaultConfig())
//
// # Thread Safety
//
// Systems use coefficients cached from their model on every parameter
// change. Do not change a model's parameters while a simulation over it is
// running; clone it with serial.Dup for concurrent runs.
package dynamo
