package sim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/san-kum/helixwave/internal/dynamo"
	"github.com/san-kum/helixwave/internal/grid"
)

type Simulator struct {
	grid       *grid.Grid
	system     dynamo.System
	integrator dynamo.Integrator
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
}

func New(g *grid.Grid, system dynamo.System, integrator dynamo.Integrator) *Simulator {
	return &Simulator{
		grid:       g,
		system:     system,
		integrator: integrator,
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]dynamo.Observer, 0),
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

// Run validates cfg, then advances psi0 for cfg.Params.Steps steps.
//
// A diverged run returns the partial result together with the
// *dynamo.DivergenceError. A cancelled run returns the partial result and
// ctx.Err(). Validation failures return a nil result.
func (s *Simulator) Run(ctx context.Context, psi0 dynamo.Field, cfg Config) (*Result, error) {
	if err := s.validateConfig(psi0, cfg); err != nil {
		return nil, err
	}
	p := cfg.Params
	stride := cfg.Stride
	if stride <= 0 {
		stride = 1
	}

	start := time.Now()
	result := &Result{
		Params:     p,
		Amplitude:  make([]float64, 0, p.Steps+1),
		DivergedAt: -1,
		Metrics:    make(map[string]float64),
	}
	if !cfg.SkipTrajectory {
		result.Trajectory.Snapshots = make([]Snapshot, 0, p.Steps/stride+2)
	}
	for _, m := range s.metrics {
		m.Reset()
	}

	if err := s.integrator.Init(psi0, cfg.Velocity); err != nil {
		return nil, err
	}

	var pool *FieldPool
	if cfg.Sink != nil && cfg.SkipTrajectory {
		pool = NewFieldPool(psi0.NX, psi0.NY)
	}
	rec := recorder{cfg: cfg, pool: pool, result: result}

	initialEnergy := s.computeEnergy(psi0, velocityOrZero(cfg.Velocity, psi0))
	s.observe(result, 0, 0, psi0)
	if err := rec.record(Snapshot{Step: 0, Time: 0, Field: psi0}); err != nil {
		return result, err
	}

	psi := psi0
	for n := 1; n <= p.Steps; n++ {
		select {
		case <-ctx.Done():
			result.Elapsed = time.Since(start)
			s.collectMetrics(result)
			return result, withFlush(ctx.Err(), rec.flush())
		default:
		}

		t := float64(n-1) * p.Dt
		next, err := s.integrator.Advance(n, t)
		if err != nil {
			result.Elapsed = time.Since(start)
			if de, ok := dynamo.AsDivergence(err); ok {
				result.Diverged = true
				result.DivergedAt = de.Step
				result.Divergence = de
			}
			s.collectMetrics(result)
			return result, withFlush(err, rec.flush())
		}
		psi = next
		result.StepsCompleted = n

		s.observe(result, n, float64(n)*p.Dt, psi)
		if n%stride == 0 || n == p.Steps {
			if err := rec.record(Snapshot{Step: n, Time: float64(n) * p.Dt, Field: psi}); err != nil {
				result.Elapsed = time.Since(start)
				s.collectMetrics(result)
				return result, withFlush(err, rec.flush())
			}
		}
	}

	if initialEnergy != 0 && result.StepsCompleted > 0 {
		finalEnergy := s.computeEnergy(psi, s.velocity(psi, p.Dt))
		result.EnergyDrift = math.Abs(finalEnergy-initialEnergy) / math.Abs(initialEnergy)
	}
	s.collectMetrics(result)
	result.Elapsed = time.Since(start)

	if err := rec.flush(); err != nil {
		return result, err
	}
	return result, nil
}

func (s *Simulator) observe(result *Result, step int, t float64, psi dynamo.Field) {
	result.Amplitude = append(result.Amplitude, psi.MeanAbs())
	if peak, _ := psi.MaxAbs(); peak > result.Peak {
		result.Peak = peak
	}
	for _, m := range s.metrics {
		m.Observe(step, t, psi)
	}
	for _, obs := range s.observers {
		obs.OnStep(step, t, psi)
	}
}

func (s *Simulator) collectMetrics(result *Result) {
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func (s *Simulator) validateConfig(psi0 dynamo.Field, cfg Config) error {
	if err := cfg.Params.Validate(); err != nil {
		return fmt.Errorf("sim: %w", err)
	}
	if err := cfg.Params.CheckCourant(s.grid.Dx(), s.grid.Dy()); err != nil {
		return fmt.Errorf("sim: %w", err)
	}
	if cfg.Stride < 0 {
		return fmt.Errorf("sim: %w: stride must be non-negative, got %d", dynamo.ErrInvalidParameter, cfg.Stride)
	}
	if !s.grid.Fits(psi0) {
		return fmt.Errorf("sim: %w: field %dx%d (%d values) does not fit grid %dx%d",
			dynamo.ErrInvalidInitialCondition, psi0.NX, psi0.NY, len(psi0.Data), s.grid.NX(), s.grid.NY())
	}
	if len(cfg.Velocity.Data) > 0 && !s.grid.Fits(cfg.Velocity) {
		return fmt.Errorf("sim: %w: initial velocity does not fit grid", dynamo.ErrInvalidInitialCondition)
	}
	return nil
}

func (s *Simulator) computeEnergy(psi, vel dynamo.Field) float64 {
	if h, ok := s.system.(dynamo.Hamiltonian); ok {
		return h.Energy(psi, vel)
	}
	return 0
}

func (s *Simulator) velocity(psi dynamo.Field, dt float64) dynamo.Field {
	prev := s.integrator.Previous()
	v := dynamo.NewField(psi.NX, psi.NY)
	for k, u := range psi.Data {
		v.Data[k] = (u - prev.Data[k]) / dt
	}
	return v
}

func withFlush(err, flushErr error) error {
	if flushErr == nil {
		return err
	}
	return errors.Join(err, flushErr)
}

func velocityOrZero(v, like dynamo.Field) dynamo.Field {
	if len(v.Data) > 0 {
		return v
	}
	return dynamo.NewField(like.NX, like.NY)
}

// recorder copies recorded fields into the trajectory and forwards them to the sink.
type recorder struct {
	cfg    Config
	pool   *FieldPool
	result *Result
}

func (r *recorder) record(snap Snapshot) error {
	if !r.cfg.SkipTrajectory {
		snap.Field = snap.Field.Clone()
		r.result.Trajectory.Append(snap)
	}
	if r.cfg.Sink == nil {
		return nil
	}
	if r.pool != nil {
		buf := r.pool.GetAndCopy(snap.Field)
		defer r.pool.Put(buf)
		snap.Field = *buf
	}
	if err := r.cfg.Sink.Write(snap); err != nil {
		return fmt.Errorf("sim: sink: %w", err)
	}
	return nil
}

func (r *recorder) flush() error {
	if r.cfg.Sink == nil {
		return nil
	}
	if err := r.cfg.Sink.Flush(); err != nil {
		return fmt.Errorf("sim: sink flush: %w", err)
	}
	return nil
}
