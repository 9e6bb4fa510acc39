// Package dynamo provides the core primitives shared by the wave integrator.
//
// The package defines the fundamental types and interfaces:
//
//   - [Field]: row-major 2D scalar field ψ(x, y)
//   - [Parameters]: physical coefficients and numerical controls of one run
//   - [System]: right-hand side a(ψ, ψ_t, t) of ψ_tt = a
//   - [Integrator]: second-order time stepper with a bootstrap step
//   - [Metric] and [Observer]: per-step consumers of the field
//
// # Example
//
//	g, _ := grid.New(grid.DefaultSpec())
//	model := physics.NewHelix(g, dynamo.DefaultParameters(), forces.None{})
//	integ := integrators.NewLeapfrog(model, g, params)
//	s := sim.New(g, model, integ)
//	result, err := s.Run(ctx, psi0, sim.Config{Params: params})
//
// # Errors
//
// Validation failures wrap one of the sentinel errors ([ErrInvalidGrid],
// [ErrInvalidParameter], ...). Blow-up is reported as a [*DivergenceError]
// which matches [ErrDiverged] under errors.Is.
//
// # Thread Safety
//
// Fields are plain slices and are NOT safe for concurrent mutation. Sweeps
// run each point on its own grid and fields.
package dynamo
