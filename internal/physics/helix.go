package physics

import (
	"github.com/san-kum/helixwave/internal/dynamo"
	"github.com/san-kum/helixwave/internal/forces"
	"github.com/san-kum/helixwave/internal/grid"
)

// Helix is the damped, driven, nonlinear 2D wave model. It owns scratch
// buffers, so one instance must not be shared across concurrent runs.
type Helix struct {
	Grid   *grid.Grid
	Params dynamo.Parameters
	Source forces.Source

	modulation dynamo.Field
	scratch    dynamo.Field
}

func NewHelix(g *grid.Grid, p dynamo.Parameters, src forces.Source) *Helix {
	if src == nil {
		src = forces.None{}
	}
	return &Helix{
		Grid:       g,
		Params:     p,
		Source:     src,
		modulation: forces.Modulation(g, p.M),
		scratch:    g.NewField(),
	}
}

// Modulation exposes the precomputed sin(mθ) field.
func (h *Helix) Modulation() dynamo.Field { return h.modulation }

// Accelerate writes a(ψ, ψ_t, t) into out. Non-finite input is reported as a
// *dynamo.DivergenceError with Step = -1. Terms with a zero coefficient are
// skipped so a disabled term contributes exactly nothing.
func (h *Helix) Accelerate(psi, vel dynamo.Field, t float64, out dynamo.Field) error {
	if err := h.checkFinite(psi); err != nil {
		return err
	}
	if err := h.checkFinite(vel); err != nil {
		return err
	}
	p := h.Params

	if p.C != 0 {
		h.Grid.Laplacian(psi, out)
		c2 := p.C * p.C
		for k := range out.Data {
			out.Data[k] *= c2
		}
	} else {
		out.Zero()
	}

	if p.Alpha != 0 {
		for k, v := range vel.Data {
			out.Data[k] -= p.Alpha * v
		}
	}

	if p.Beta != 0 {
		forces.NonlinearInto(psi, p.Beta, h.scratch)
		addInto(out, h.scratch)
		forces.AzimuthalInto(psi, h.modulation, p.Beta, h.scratch)
		addInto(out, h.scratch)
	}

	if p.Gamma != 0 {
		forces.HQGInto(vel, p.Gamma, p.J, h.scratch)
		addInto(out, h.scratch)
	}

	if _, none := h.Source.(forces.None); !none {
		h.Source.Eval(t, h.scratch)
		addInto(out, h.scratch)
	}
	return nil
}

func addInto(dst, src dynamo.Field) {
	for k, v := range src.Data {
		dst.Data[k] += v
	}
}

func (h *Helix) checkFinite(f dynamo.Field) error {
	k, bad := f.FirstNonFinite()
	if !bad {
		return nil
	}
	i, j, x, y := h.Grid.Position(k)
	return &dynamo.DivergenceError{Step: -1, I: i, J: j, X: x, Y: y, Value: f.Data[k]}
}

// Energy returns Σ[½ψ_t² + ½c²|∇ψ|² − ¼βψ⁴ − ½β·sin(mθ)·ψ²]·dx·dy, the
// quantity conserved when α, γ and S vanish. Gradients use forward differences
// and are taken as zero across the domain edge.
func (h *Helix) Energy(psi, vel dynamo.Field) float64 {
	g := h.Grid
	nx, ny := g.NX(), g.NY()
	dx, dy := g.Dx(), g.Dy()
	c2, beta := h.Params.C*h.Params.C, h.Params.Beta

	var e float64
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			k := i*ny + j
			u := psi.Data[k]
			var gx, gy float64
			if i < nx-1 {
				gx = (psi.Data[k+ny] - u) / dx
			}
			if j < ny-1 {
				gy = (psi.Data[k+1] - u) / dy
			}
			v := vel.Data[k]
			e += 0.5*v*v + 0.5*c2*(gx*gx+gy*gy) - 0.25*beta*u*u*u*u - 0.5*beta*h.modulation.Data[k]*u*u
		}
	}
	return e * dx * dy
}

// Stable reports whether the model's parameters satisfy the Courant bound on its grid.
func (h *Helix) Stable() bool {
	return h.Params.CheckCourant(h.Grid.Dx(), h.Grid.Dy()) == nil
}
