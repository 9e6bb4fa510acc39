package physics

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/helixwave/internal/dynamo"
	"github.com/san-kum/helixwave/internal/grid"
)

type InitialKind string

const (
	GaussianPulse InitialKind = "gaussian-pulse"
	RandomNoise   InitialKind = "random-noise"
	RingPattern   InitialKind = "ring-pattern"
)

// Gaussian is A·exp(−|x−x₀|²/(2w²)).
type Gaussian struct {
	X         float64 `yaml:"x" json:"x"`
	Y         float64 `yaml:"y" json:"y"`
	Width     float64 `yaml:"width" json:"width"`
	Amplitude float64 `yaml:"amplitude" json:"amplitude"`
}

// Noise draws every cell uniformly from [−A, A] with a fixed seed.
type Noise struct {
	Amplitude float64 `yaml:"amplitude" json:"amplitude"`
	Seed      int64   `yaml:"seed" json:"seed"`
}

// Ring is A·exp(−(r−r₀)²/(2w²)).
type Ring struct {
	Radius    float64 `yaml:"radius" json:"radius"`
	Width     float64 `yaml:"width" json:"width"`
	Amplitude float64 `yaml:"amplitude" json:"amplitude"`
}

// Initial selects exactly one initial-condition variant. Kind may be left
// empty when exactly one variant block is set; a kind with no block uses
// that variant's defaults.
type Initial struct {
	Kind     InitialKind `yaml:"kind" json:"kind"`
	Gaussian *Gaussian   `yaml:"gaussian,omitempty" json:"gaussian,omitempty"`
	Noise    *Noise      `yaml:"noise,omitempty" json:"noise,omitempty"`
	Ring     *Ring       `yaml:"ring,omitempty" json:"ring,omitempty"`

	// VelocityScale sets ψ_t(0) = VelocityScale·ψ₀; only the taylor bootstrap reads it.
	VelocityScale float64 `yaml:"velocity_scale,omitempty" json:"velocity_scale,omitempty"`
}

func DefaultGaussian() Gaussian { return Gaussian{Width: 1, Amplitude: 1} }
func DefaultNoise() Noise       { return Noise{Amplitude: 0.1, Seed: 1} }
func DefaultRing() Ring         { return Ring{Radius: 3, Width: 1, Amplitude: 2} }

func DefaultInitial() Initial {
	r := DefaultRing()
	return Initial{Kind: RingPattern, Ring: &r}
}

func invalidIC(format string, args ...any) error {
	return fmt.Errorf("%w: %s", dynamo.ErrInvalidInitialCondition, fmt.Sprintf(format, args...))
}

// Resolve returns a copy with Kind set and the matching block filled in.
func (ic Initial) Resolve() (Initial, error) {
	var set []InitialKind
	if ic.Gaussian != nil {
		set = append(set, GaussianPulse)
	}
	if ic.Noise != nil {
		set = append(set, RandomNoise)
	}
	if ic.Ring != nil {
		set = append(set, RingPattern)
	}
	if len(set) > 1 {
		return ic, invalidIC("conflicting variants %v, select exactly one", set)
	}
	if ic.Kind == "" {
		if len(set) == 0 {
			return ic, invalidIC("no initial condition selected")
		}
		ic.Kind = set[0]
	}
	if len(set) == 1 && set[0] != ic.Kind {
		return ic, invalidIC("kind %q does not match the %s block", ic.Kind, set[0])
	}

	switch ic.Kind {
	case GaussianPulse:
		if ic.Gaussian == nil {
			d := DefaultGaussian()
			ic.Gaussian = &d
		}
	case RandomNoise:
		if ic.Noise == nil {
			d := DefaultNoise()
			ic.Noise = &d
		}
	case RingPattern:
		if ic.Ring == nil {
			d := DefaultRing()
			ic.Ring = &d
		}
	default:
		return ic, invalidIC("unknown kind %q", ic.Kind)
	}
	if math.IsNaN(ic.VelocityScale) || math.IsInf(ic.VelocityScale, 0) {
		return ic, invalidIC("velocity scale must be finite")
	}
	return ic, nil
}

// Validate resolves the variant and checks its options without touching a grid.
func (ic Initial) Validate() error {
	ic, err := ic.Resolve()
	if err != nil {
		return err
	}
	switch ic.Kind {
	case GaussianPulse:
		p := *ic.Gaussian
		if !(p.Width > 0) || !finite(p.X, p.Y, p.Width, p.Amplitude) {
			return invalidIC("gaussian needs width > 0 and finite center/amplitude, got %+v", p)
		}
	case RandomNoise:
		p := *ic.Noise
		if !(p.Amplitude >= 0) || math.IsInf(p.Amplitude, 0) {
			return invalidIC("noise amplitude must be finite and non-negative, got %g", p.Amplitude)
		}
	case RingPattern:
		p := *ic.Ring
		if !(p.Width > 0) || !(p.Radius >= 0) || !finite(p.Radius, p.Width, p.Amplitude) {
			return invalidIC("ring needs width > 0, radius >= 0 and finite amplitude, got %+v", p)
		}
	}
	return nil
}

// Build evaluates ψ₀ on g.
func (ic Initial) Build(g *grid.Grid) (dynamo.Field, error) {
	if err := ic.Validate(); err != nil {
		return dynamo.Field{}, err
	}
	ic, _ = ic.Resolve()
	psi := g.NewField()

	switch ic.Kind {
	case GaussianPulse:
		p := *ic.Gaussian
		inv := 1 / (2 * p.Width * p.Width)
		for i := 0; i < g.NX(); i++ {
			dx := g.X(i) - p.X
			for j := 0; j < g.NY(); j++ {
				dy := g.Y(j) - p.Y
				psi.Set(i, j, p.Amplitude*math.Exp(-(dx*dx+dy*dy)*inv))
			}
		}

	case RandomNoise:
		p := *ic.Noise
		rng := rand.New(rand.NewSource(p.Seed))
		for k := range psi.Data {
			psi.Data[k] = p.Amplitude * (2*rng.Float64() - 1)
		}

	case RingPattern:
		p := *ic.Ring
		inv := 1 / (2 * p.Width * p.Width)
		for i := 0; i < g.NX(); i++ {
			for j := 0; j < g.NY(); j++ {
				d := g.R(i, j) - p.Radius
				psi.Set(i, j, p.Amplitude*math.Exp(-d*d*inv))
			}
		}
	}
	return psi, nil
}

// Velocity returns ψ_t(0) for the given ψ₀.
func (ic Initial) Velocity(psi0 dynamo.Field) dynamo.Field {
	v := dynamo.NewField(psi0.NX, psi0.NY)
	if ic.VelocityScale == 0 {
		return v
	}
	for k, u := range psi0.Data {
		v.Data[k] = ic.VelocityScale * u
	}
	return v
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
