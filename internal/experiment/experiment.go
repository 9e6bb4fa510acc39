package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/helixwave/internal/dynamo"
	"github.com/san-kum/helixwave/internal/forces"
	"github.com/san-kum/helixwave/internal/grid"
	"github.com/san-kum/helixwave/internal/physics"
	"github.com/san-kum/helixwave/internal/sim"
)

// Config fully describes one run.
type Config struct {
	Grid       grid.Spec         `yaml:"grid" json:"grid"`
	Params     dynamo.Parameters `yaml:"params" json:"params"`
	Initial    physics.Initial   `yaml:"initial" json:"initial"`
	Source     forces.SourceSpec `yaml:"source" json:"source"`
	Integrator string            `yaml:"integrator" json:"integrator"`
}

func DefaultConfig() Config {
	return Config{
		Grid:       grid.DefaultSpec(),
		Params:     dynamo.DefaultParameters(),
		Initial:    physics.DefaultInitial(),
		Source:     forces.SourceSpec{Kind: forces.SourceNone},
		Integrator: "leapfrog",
	}
}

// RunOptions control what the driver keeps from a run.
type RunOptions struct {
	Stride         int
	Sink           sim.Sink
	SkipTrajectory bool
}

type Experiment struct {
	cfg       Config
	grid      *grid.Grid
	model     *physics.Helix
	simulator *sim.Simulator
	psi0      dynamo.Field
	vel0      dynamo.Field
}

func New(cfg Config) *Experiment {
	return &Experiment{cfg: cfg}
}

// Setup builds the grid, source, model, integrator and initial field, and
// validates everything that can be checked before stepping.
func (e *Experiment) Setup(registry *Registry) error {
	g, err := grid.New(e.cfg.Grid)
	if err != nil {
		return err
	}
	if err := e.cfg.Params.Validate(); err != nil {
		return err
	}
	if err := e.cfg.Params.CheckCourant(g.Dx(), g.Dy()); err != nil {
		return err
	}
	src, err := forces.NewSource(g, e.cfg.Source)
	if err != nil {
		return err
	}
	ic, err := e.cfg.Initial.Resolve()
	if err != nil {
		return err
	}
	psi0, err := ic.Build(g)
	if err != nil {
		return err
	}

	model := physics.NewHelix(g, e.cfg.Params, src)
	integ, err := registry.GetIntegrator(e.cfg.Integrator, model, g, e.cfg.Params)
	if err != nil {
		return err
	}

	e.grid = g
	e.model = model
	e.psi0 = psi0
	e.vel0 = ic.Velocity(psi0)
	e.simulator = sim.New(g, model, integ)
	return nil
}

// AddMetrics attaches metrics to the simulator; call it after Setup.
func (e *Experiment) AddMetrics(ms ...dynamo.Metric) {
	for _, m := range ms {
		e.simulator.AddMetric(m)
	}
}

func (e *Experiment) Run(ctx context.Context, opts RunOptions) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx, e.psi0, sim.Config{
		Params:         e.cfg.Params,
		Stride:         opts.Stride,
		Velocity:       e.vel0,
		Sink:           opts.Sink,
		SkipTrajectory: opts.SkipTrajectory,
	})
}

func (e *Experiment) Config() Config               { return e.cfg }
func (e *Experiment) Grid() *grid.Grid             { return e.grid }
func (e *Experiment) Model() *physics.Helix        { return e.model }
func (e *Experiment) InitialField() dynamo.Field   { return e.psi0 }
func (e *Experiment) GetSimulator() *sim.Simulator { return e.simulator }

// Validate performs the checks of Setup without building the initial field.
func (r *Registry) Validate(cfg Config) error {
	g, err := grid.New(cfg.Grid)
	if err != nil {
		return err
	}
	if err := cfg.Params.Validate(); err != nil {
		return err
	}
	if err := cfg.Params.CheckCourant(g.Dx(), g.Dy()); err != nil {
		return err
	}
	if _, err := forces.NewSource(g, cfg.Source); err != nil {
		return err
	}
	if err := cfg.Initial.Validate(); err != nil {
		return err
	}
	name := cfg.Integrator
	if name == "" {
		name = "leapfrog"
	}
	if _, ok := r.integrators[name]; !ok {
		return fmt.Errorf("%w: unknown integrator: %s", dynamo.ErrInvalidParameter, name)
	}
	return nil
}
