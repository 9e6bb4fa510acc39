package integrators

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/helixwave/internal/dynamo"
)

// Locator maps a flat field index to grid indices and coordinates.
type Locator interface {
	Position(k int) (i, j int, x, y float64)
}

// Step is the explicit central-difference update
//
//	ψ_next = 2ψ − ψ_prev + dt²·a(ψ, (ψ−ψ_prev)/dt, t)
//
// written into a freshly allocated field. It performs no divergence check.
func Step(sys dynamo.System, psi, prev dynamo.Field, t, dt float64) (dynamo.Field, error) {
	next := dynamo.NewField(psi.NX, psi.NY)
	vel := dynamo.NewField(psi.NX, psi.NY)
	acc := dynamo.NewField(psi.NX, psi.NY)
	if err := update(sys, psi, prev, next, vel, acc, t, dt); err != nil {
		return dynamo.Field{}, err
	}
	return next, nil
}

func update(sys dynamo.System, psi, prev, next, vel, acc dynamo.Field, t, dt float64) error {
	inv := 1 / dt
	for k, u := range psi.Data {
		vel.Data[k] = (u - prev.Data[k]) * inv
	}
	if err := sys.Accelerate(psi, vel, t, acc); err != nil {
		return err
	}
	dt2 := dt * dt
	for k, u := range psi.Data {
		next.Data[k] = (2*u - prev.Data[k]) + dt2*acc.Data[k]
	}
	return nil
}

// Check reports the first cell of f that is non-finite or exceeds ceiling in
// magnitude. A non-positive ceiling only checks finiteness.
func Check(f dynamo.Field, ceiling float64, step int, loc Locator) error {
	for k, v := range f.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) || (ceiling > 0 && math.Abs(v) > ceiling) {
			i, j, x, y := loc.Position(k)
			return &dynamo.DivergenceError{Step: step, I: i, J: j, X: x, Y: y, Value: v}
		}
	}
	return nil
}

type phase int

const (
	uninitialized phase = iota
	bootstrap
	history
)

// Leapfrog advances ψ with two history levels. After Init it sits in the
// bootstrap phase; the first Advance synthesizes ψ_prev from the configured
// policy and every later Advance uses the stored history.
type Leapfrog struct {
	sys     dynamo.System
	loc     Locator
	dt      float64
	ceiling float64
	policy  dynamo.Bootstrap

	phase          phase
	prev, cur, nxt dynamo.Field
	vel, acc       dynamo.Field
	vel0           dynamo.Field
}

func NewLeapfrog(sys dynamo.System, loc Locator, p dynamo.Parameters) *Leapfrog {
	policy, err := dynamo.ParseBootstrap(string(p.Bootstrap))
	if err != nil {
		policy = dynamo.BootstrapZeroVelocity
	}
	return &Leapfrog{sys: sys, loc: loc, dt: p.Dt, ceiling: p.Ceiling, policy: policy}
}

func (l *Leapfrog) Policy() dynamo.Bootstrap { return l.policy }

// Init loads ψ₀ and an optional initial velocity. A zero-length vel0 means ψ_t(0) = 0.
func (l *Leapfrog) Init(psi0, vel0 dynamo.Field) error {
	if len(psi0.Data) != psi0.NX*psi0.NY || len(psi0.Data) == 0 {
		return fmt.Errorf("%w: field shape %dx%d does not match %d values",
			dynamo.ErrInvalidInitialCondition, psi0.NX, psi0.NY, len(psi0.Data))
	}
	if len(vel0.Data) > 0 && !vel0.SameShape(psi0) {
		return fmt.Errorf("%w: initial velocity shape %dx%d differs from field %dx%d",
			dynamo.ErrInvalidInitialCondition, vel0.NX, vel0.NY, psi0.NX, psi0.NY)
	}
	if err := Check(psi0, l.ceiling, 0, l.loc); err != nil {
		return err
	}

	l.cur = psi0.Clone()
	l.prev = dynamo.NewField(psi0.NX, psi0.NY)
	l.nxt = dynamo.NewField(psi0.NX, psi0.NY)
	l.vel = dynamo.NewField(psi0.NX, psi0.NY)
	l.acc = dynamo.NewField(psi0.NX, psi0.NY)
	l.vel0 = dynamo.NewField(psi0.NX, psi0.NY)
	if len(vel0.Data) > 0 {
		l.vel0.CopyFrom(vel0)
	}
	l.phase = bootstrap
	return nil
}

// Bootstrapping reports whether the next Advance will synthesize ψ_prev.
func (l *Leapfrog) Bootstrapping() bool { return l.phase == bootstrap }

// synthesize fills prev from cur according to the bootstrap policy.
func (l *Leapfrog) synthesize(t float64) error {
	switch l.policy {
	case dynamo.BootstrapTaylor:
		if err := l.sys.Accelerate(l.cur, l.vel0, t, l.acc); err != nil {
			return err
		}
		half := 0.5 * l.dt * l.dt
		for k, u := range l.cur.Data {
			l.prev.Data[k] = u - l.dt*l.vel0.Data[k] + half*l.acc.Data[k]
		}
	default:
		l.prev.CopyFrom(l.cur)
	}
	return nil
}

// Advance produces the field for the given step from the field at time t.
// The returned field is owned by the integrator and is overwritten by the
// next call. On error the integrator state is left unchanged.
func (l *Leapfrog) Advance(step int, t float64) (dynamo.Field, error) {
	switch l.phase {
	case uninitialized:
		return dynamo.Field{}, errors.New("integrators: Advance called before Init")
	case bootstrap:
		if err := l.synthesize(t); err != nil {
			return dynamo.Field{}, withStep(err, step)
		}
	}

	if err := update(l.sys, l.cur, l.prev, l.nxt, l.vel, l.acc, t, l.dt); err != nil {
		return dynamo.Field{}, withStep(err, step)
	}
	if err := Check(l.nxt, l.ceiling, step, l.loc); err != nil {
		return l.nxt, err
	}

	l.prev, l.cur, l.nxt = l.cur, l.nxt, l.prev
	l.phase = history
	return l.cur, nil
}

// Current returns the latest accepted field.
func (l *Leapfrog) Current() dynamo.Field { return l.cur }

// Previous returns ψ_prev: the synthesized value during bootstrap, the
// prior accepted field afterwards.
func (l *Leapfrog) Previous() dynamo.Field { return l.prev }

// Velocity returns the backward-difference estimate (ψ − ψ_prev)/dt.
func (l *Leapfrog) Velocity() dynamo.Field {
	v := dynamo.NewField(l.cur.NX, l.cur.NY)
	for k, u := range l.cur.Data {
		v.Data[k] = (u - l.prev.Data[k]) / l.dt
	}
	return v
}

func withStep(err error, step int) error {
	if de, ok := dynamo.AsDivergence(err); ok && de.Step < 0 {
		de.Step = step
	}
	return err
}

// Restore replaces both history levels and leaves the integrator in the
// history phase. It is used to renormalize a perturbed twin run.
func (l *Leapfrog) Restore(cur, prev dynamo.Field) error {
	if l.phase == uninitialized {
		return errors.New("integrators: Restore called before Init")
	}
	if !cur.SameShape(l.cur) || !prev.SameShape(l.cur) {
		return fmt.Errorf("%w: restored fields do not match %dx%d",
			dynamo.ErrInvalidInitialCondition, l.cur.NX, l.cur.NY)
	}
	l.cur.CopyFrom(cur)
	l.prev.CopyFrom(prev)
	l.phase = history
	return nil
}
