// Package forces holds the right-hand-side terms of the helix wave equation.
//
// Every evaluator is a pure function of its arguments: the Into variants
// write into a caller-owned field and the plain variants allocate.
package forces

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/helixwave/internal/dynamo"
	"github.com/san-kum/helixwave/internal/grid"
)

// Nonlinear returns βψ³.
func Nonlinear(psi dynamo.Field, beta float64) dynamo.Field {
	out := dynamo.NewField(psi.NX, psi.NY)
	NonlinearInto(psi, beta, out)
	return out
}

func NonlinearInto(psi dynamo.Field, beta float64, out dynamo.Field) {
	for k, v := range psi.Data {
		out.Data[k] = beta * v * v * v
	}
}

// Modulation precomputes sin(mθ) for every cell of g.
func Modulation(g *grid.Grid, m int) dynamo.Field {
	out := g.NewField()
	for i := 0; i < g.NX(); i++ {
		for j := 0; j < g.NY(); j++ {
			out.Set(i, j, math.Sin(float64(m)*g.Theta(i, j)))
		}
	}
	return out
}

// Azimuthal returns β·sin(mθ)·ψ given the precomputed modulation.
func Azimuthal(psi, modulation dynamo.Field, beta float64) dynamo.Field {
	out := dynamo.NewField(psi.NX, psi.NY)
	AzimuthalInto(psi, modulation, beta, out)
	return out
}

func AzimuthalInto(psi, modulation dynamo.Field, beta float64, out dynamo.Field) {
	for k, v := range psi.Data {
		out.Data[k] = beta * modulation.Data[k] * v
	}
}

// HQG returns the entropic damping term γ·J·∂ψ/∂t.
// With γ == 0 the result is the zero field without touching vel.
func HQG(vel dynamo.Field, gamma, j float64) dynamo.Field {
	out := dynamo.NewField(vel.NX, vel.NY)
	HQGInto(vel, gamma, j, out)
	return out
}

func HQGInto(vel dynamo.Field, gamma, j float64, out dynamo.Field) {
	if gamma == 0 {
		out.Zero()
		return
	}
	floats.ScaleTo(out.Data, gamma*j, vel.Data)
}
