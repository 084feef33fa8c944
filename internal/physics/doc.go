// Package physics provides concrete model types built on the schema system.
//
// Every type shares the [Oscillator] level (damping, initial amplitude) and
// adds its own parameters:
//
//   - [Pendulum]: damped simple pendulum (mass, length, gravity)
//   - [Chain]: masses between two walls joined by springs, with per-mass
//     and per-spring vector parameters
//
// Each instance's hooks cache the coefficients the equations of motion
// need, so a model built through the registry is also a [dynamo.System]
// (see [SystemOf]) and, for energy bookkeeping, a [dynamo.Hamiltonian].
//
//	reg := model.NewRegistry()
//	_ = physics.Register(reg)
//	m, _ := reg.New(physics.TypeChain, model.WithVectorLen(physics.ChainMasses, 5), model.WithVectorLen(physics.ChainSprings, 6))
//	dyn, _ := physics.SystemOf(m)
package physics
