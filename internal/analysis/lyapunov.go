package analysis

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/helixwave/internal/dynamo"
	"github.com/san-kum/helixwave/internal/experiment"
	"github.com/san-kum/helixwave/internal/forces"
	"github.com/san-kum/helixwave/internal/grid"
	"github.com/san-kum/helixwave/internal/integrators"
	"github.com/san-kum/helixwave/internal/physics"
)

// Lyapunov estimates the largest Lyapunov exponent of cfg by running a twin
// whose initial field is shifted by perturbation at the cell nearest the
// origin. After every step the twin's separation is rescaled back to the
// initial separation d0 and λ ≈ Σ ln(d_n/d0) / (N·dt).
//
// A positive value means nearby fields separate exponentially.
func Lyapunov(ctx context.Context, cfg experiment.Config, perturbation float64) (float64, error) {
	if !(perturbation > 0) {
		return 0, fmt.Errorf("%w: perturbation must be positive, got %g", dynamo.ErrInvalidParameter, perturbation)
	}
	if err := experiment.NewRegistry().Validate(cfg); err != nil {
		return 0, err
	}
	g, err := grid.New(cfg.Grid)
	if err != nil {
		return 0, err
	}
	psi0, err := cfg.Initial.Build(g)
	if err != nil {
		return 0, err
	}
	ic, _ := cfg.Initial.Resolve()
	vel0 := ic.Velocity(psi0)

	base, err := twin(g, cfg, psi0, vel0)
	if err != nil {
		return 0, err
	}
	shifted := psi0.Clone()
	ci, cj := g.Locate(0, 0)
	shifted.Set(ci, cj, shifted.At(ci, cj)+perturbation)
	pert, err := twin(g, cfg, shifted, vel0)
	if err != nil {
		return 0, err
	}

	d0 := perturbation
	p := cfg.Params
	var sumLog float64
	count := 0
	cur, prev := g.NewField(), g.NewField()

	for n := 1; n <= p.Steps; n++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		t := float64(n-1) * p.Dt
		a, err := base.Advance(n, t)
		if err != nil {
			return 0, fmt.Errorf("analysis: reference run: %w", err)
		}
		b, err := pert.Advance(n, t)
		if err != nil {
			return 0, fmt.Errorf("analysis: perturbed run: %w", err)
		}

		sep := floats.Distance(a.Data, b.Data, 2)
		if sep == 0 {
			continue
		}
		sumLog += math.Log(sep / d0)
		count++

		scale := d0 / sep
		ap, bp := base.Previous(), pert.Previous()
		for k := range cur.Data {
			cur.Data[k] = a.Data[k] + (b.Data[k]-a.Data[k])*scale
			prev.Data[k] = ap.Data[k] + (bp.Data[k]-ap.Data[k])*scale
		}
		if err := pert.Restore(cur, prev); err != nil {
			return 0, err
		}
	}

	if count == 0 {
		return 0, nil
	}
	return sumLog / (float64(count) * p.Dt), nil
}

func twin(g *grid.Grid, cfg experiment.Config, psi0, vel0 dynamo.Field) (*integrators.Leapfrog, error) {
	src, err := forces.NewSource(g, cfg.Source)
	if err != nil {
		return nil, err
	}
	model := physics.NewHelix(g, cfg.Params, src)
	integ := integrators.NewLeapfrog(model, g, cfg.Params)
	if err := integ.Init(psi0, vel0); err != nil {
		return nil, err
	}
	return integ, nil
}
