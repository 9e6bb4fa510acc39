package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/helixwave/internal/dynamo"
	"github.com/san-kum/helixwave/internal/forces"
	"github.com/san-kum/helixwave/internal/grid"
	"github.com/san-kum/helixwave/internal/integrators"
	"github.com/san-kum/helixwave/internal/metrics"
	"github.com/san-kum/helixwave/internal/physics"
)

type IntegratorFactory func(sys dynamo.System, g *grid.Grid, p dynamo.Parameters) dynamo.Integrator

type Registry struct {
	integrators map[string]IntegratorFactory
}

func NewRegistry() *Registry {
	r := &Registry{integrators: make(map[string]IntegratorFactory)}
	r.integrators["leapfrog"] = func(sys dynamo.System, g *grid.Grid, p dynamo.Parameters) dynamo.Integrator {
		return integrators.NewLeapfrog(sys, g, p)
	}
	return r
}

func (r *Registry) Register(name string, f IntegratorFactory) {
	r.integrators[name] = f
}

// GetIntegrator builds the named integrator; an empty name selects leapfrog.
func (r *Registry) GetIntegrator(name string, sys dynamo.System, g *grid.Grid, p dynamo.Parameters) (dynamo.Integrator, error) {
	if name == "" {
		name = "leapfrog"
	}
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown integrator: %s", dynamo.ErrInvalidParameter, name)
	}
	return fn(sys, g, p), nil
}

func (r *Registry) ListIntegrators() []string {
	names := make([]string, 0, len(r.integrators))
	for name := range r.integrators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ListSources() []forces.SourceKind {
	return []forces.SourceKind{forces.SourceNone, forces.SourcePoint, forces.SourceDistributed, forces.SourcePulsed}
}

func ListInitial() []physics.InitialKind {
	return []physics.InitialKind{physics.GaussianPulse, physics.RandomNoise, physics.RingPattern}
}

// DefaultMetrics are attached to every CLI run.
func (r *Registry) DefaultMetrics(model *physics.Helix, window, stabilityThreshold float64) []dynamo.Metric {
	ms := metrics.Standard(model.Params.Steps, window, stabilityThreshold)
	return append(ms, metrics.NewEnergyDrift(model, model.Params.Dt))
}
