package forces

import (
	"fmt"
	"math"

	"github.com/san-kum/helixwave/internal/dynamo"
	"github.com/san-kum/helixwave/internal/grid"
)

// Source generates the external drive S(t, x, y).
type Source interface {
	Name() string
	// Eval overwrites out with S at time t.
	Eval(t float64, out dynamo.Field)
}

type SourceKind string

const (
	SourceNone        SourceKind = "none"
	SourcePoint       SourceKind = "point"
	SourceDistributed SourceKind = "distributed"
	SourcePulsed      SourceKind = "pulsed"
)

const DefaultRamp = 1.0

// SourceSpec is the serializable description of a source. Fields that do
// not apply to Kind are ignored.
type SourceSpec struct {
	Kind      SourceKind `yaml:"kind" json:"kind"`
	X         float64    `yaml:"x" json:"x"`
	Y         float64    `yaml:"y" json:"y"`
	Amplitude float64    `yaml:"amplitude" json:"amplitude"`
	Width     float64    `yaml:"width" json:"width"`
	Frequency float64    `yaml:"frequency" json:"frequency"`
	Ramp      float64    `yaml:"ramp" json:"ramp"`
	Start     float64    `yaml:"start" json:"start"`
	Duration  float64    `yaml:"duration" json:"duration"`
	Period    float64    `yaml:"period" json:"period"`
}

// NewSource builds the generator described by spec on g.
func NewSource(g *grid.Grid, spec SourceSpec) (Source, error) {
	for _, v := range [...]float64{spec.X, spec.Y, spec.Amplitude, spec.Width, spec.Frequency, spec.Ramp, spec.Start, spec.Duration, spec.Period} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite option in %s source", dynamo.ErrInvalidSource, spec.Kind)
		}
	}
	if spec.Frequency < 0 {
		return nil, fmt.Errorf("%w: frequency must be non-negative, got %g", dynamo.ErrInvalidSource, spec.Frequency)
	}

	switch spec.Kind {
	case "", SourceNone:
		return None{}, nil

	case SourcePoint:
		if !g.Contains(spec.X, spec.Y) {
			return nil, fmt.Errorf("%w: point (%g,%g) outside the grid", dynamo.ErrInvalidSource, spec.X, spec.Y)
		}
		ramp := spec.Ramp
		if ramp == 0 {
			ramp = DefaultRamp
		}
		if ramp < 0 {
			return nil, fmt.Errorf("%w: ramp must be positive, got %g", dynamo.ErrInvalidSource, spec.Ramp)
		}
		i, j := g.Locate(spec.X, spec.Y)
		return &Point{I: i, J: j, Amplitude: spec.Amplitude, Frequency: spec.Frequency, Ramp: ramp}, nil

	case SourceDistributed:
		if spec.Width <= 0 {
			return nil, fmt.Errorf("%w: distributed width must be positive, got %g", dynamo.ErrInvalidSource, spec.Width)
		}
		if spec.Ramp < 0 {
			return nil, fmt.Errorf("%w: ramp must be non-negative, got %g", dynamo.ErrInvalidSource, spec.Ramp)
		}
		return &Distributed{
			Envelope:  gaussianEnvelope(g, spec.X, spec.Y, spec.Width),
			Amplitude: spec.Amplitude,
			Frequency: spec.Frequency,
			Ramp:      spec.Ramp,
		}, nil

	case SourcePulsed:
		if spec.Width <= 0 {
			return nil, fmt.Errorf("%w: pulse width must be positive, got %g", dynamo.ErrInvalidSource, spec.Width)
		}
		if spec.Duration <= 0 || spec.Start < 0 {
			return nil, fmt.Errorf("%w: pulse needs start >= 0 and duration > 0, got start=%g duration=%g",
				dynamo.ErrInvalidSource, spec.Start, spec.Duration)
		}
		if spec.Period != 0 && spec.Period < spec.Duration {
			return nil, fmt.Errorf("%w: period %g shorter than duration %g", dynamo.ErrInvalidSource, spec.Period, spec.Duration)
		}
		return &Pulsed{
			Envelope:  gaussianEnvelope(g, spec.X, spec.Y, spec.Width),
			Amplitude: spec.Amplitude,
			Start:     spec.Start,
			Duration:  spec.Duration,
			Period:    spec.Period,
		}, nil
	}
	return nil, fmt.Errorf("%w: unknown source kind %q", dynamo.ErrInvalidSource, spec.Kind)
}

func gaussianEnvelope(g *grid.Grid, x0, y0, w float64) dynamo.Field {
	env := g.NewField()
	inv := 1 / (2 * w * w)
	for i := 0; i < g.NX(); i++ {
		dx := g.X(i) - x0
		for j := 0; j < g.NY(); j++ {
			dy := g.Y(j) - y0
			env.Set(i, j, math.Exp(-(dx*dx+dy*dy)*inv))
		}
	}
	return env
}

// None is S ≡ 0.
type None struct{}

func (None) Name() string                     { return string(SourceNone) }
func (None) Eval(_ float64, out dynamo.Field) { out.Zero() }

// Point injects into a single cell, switched on with a raised-cosine ramp.
type Point struct {
	I, J      int
	Amplitude float64
	Frequency float64
	Ramp      float64
}

func (p *Point) Name() string { return string(SourcePoint) }

func (p *Point) Eval(t float64, out dynamo.Field) {
	out.Zero()
	out.Set(p.I, p.J, p.Amplitude*rampUp(t, p.Ramp)*carrier(t, p.Frequency))
}

// Distributed is a Gaussian envelope, optionally ramped and modulated by a carrier.
type Distributed struct {
	Envelope  dynamo.Field
	Amplitude float64
	Frequency float64
	Ramp      float64
}

func (d *Distributed) Name() string { return string(SourceDistributed) }

func (d *Distributed) Eval(t float64, out dynamo.Field) {
	s := d.Amplitude * rampUp(t, d.Ramp) * carrier(t, d.Frequency)
	for k, e := range d.Envelope.Data {
		out.Data[k] = s * e
	}
}

// Pulsed is a Gaussian envelope switched on during [Start, Start+Duration),
// repeating every Period when Period > 0.
type Pulsed struct {
	Envelope  dynamo.Field
	Amplitude float64
	Start     float64
	Duration  float64
	Period    float64
}

func (p *Pulsed) Name() string { return string(SourcePulsed) }

func (p *Pulsed) Active(t float64) bool {
	if t < p.Start {
		return false
	}
	local := t - p.Start
	if p.Period > 0 {
		local = math.Mod(local, p.Period)
	}
	return local < p.Duration
}

func (p *Pulsed) Eval(t float64, out dynamo.Field) {
	if !p.Active(t) {
		out.Zero()
		return
	}
	for k, e := range p.Envelope.Data {
		out.Data[k] = p.Amplitude * e
	}
}

// rampUp rises smoothly from 0 at t=0 to 1 at t=window. A zero window means no ramp.
func rampUp(t, window float64) float64 {
	if window <= 0 || t >= window {
		return 1
	}
	if t <= 0 {
		return 0
	}
	return 0.5 * (1 - math.Cos(math.Pi*t/window))
}

func carrier(t, freq float64) float64 {
	if freq == 0 {
		return 1
	}
	return math.Cos(2 * math.Pi * freq * t)
}
