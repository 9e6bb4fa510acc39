// Package physics provides the helix wave model and its initial conditions.
//
// [Helix] evaluates the full right-hand side
//
//	a = c²∇²ψ − α·ψ_t + βψ³ + β·sin(mθ)·ψ + γJ·ψ_t + S(t)
//
// and [Initial] builds ψ₀ from exactly one of the gaussian-pulse,
// random-noise or ring-pattern variants.
package physics
