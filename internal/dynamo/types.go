package dynamo

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Field is a 2D scalar field stored row-major: Data[i*NY+j] holds ψ(x_i, y_j).
type Field struct {
	NX, NY int
	Data   []float64
}

func NewField(nx, ny int) Field {
	return Field{NX: nx, NY: ny, Data: make([]float64, nx*ny)}
}

func (f Field) Len() int            { return len(f.Data) }
func (f Field) Index(i, j int) int  { return i*f.NY + j }
func (f Field) At(i, j int) float64 { return f.Data[i*f.NY+j] }
func (f Field) Set(i, j int, v float64) {
	f.Data[i*f.NY+j] = v
}

// Coords converts a flat index back to (i, j).
func (f Field) Coords(k int) (int, int) {
	return k / f.NY, k % f.NY
}

func (f Field) Clone() Field {
	c := Field{NX: f.NX, NY: f.NY, Data: make([]float64, len(f.Data))}
	copy(c.Data, f.Data)
	return c
}

func (f Field) CopyFrom(src Field) {
	copy(f.Data, src.Data)
}

func (f Field) Zero() {
	for i := range f.Data {
		f.Data[i] = 0
	}
}

func (f Field) SameShape(other Field) bool {
	return f.NX == other.NX && f.NY == other.NY && len(f.Data) == len(other.Data)
}

func (f Field) IsValid() bool {
	_, ok := f.FirstNonFinite()
	return !ok
}

// FirstNonFinite returns the flat index of the first NaN or Inf element.
func (f Field) FirstNonFinite() (int, bool) {
	for k, v := range f.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return k, true
		}
	}
	return -1, false
}

// MaxAbs returns the largest |ψ| and its flat index.
func (f Field) MaxAbs() (float64, int) {
	best, at := 0.0, -1
	for k, v := range f.Data {
		if a := math.Abs(v); a > best || at < 0 {
			best, at = a, k
		}
	}
	return best, at
}

func (f Field) MeanAbs() float64 {
	if len(f.Data) == 0 {
		return 0
	}
	return floats.Norm(f.Data, 1) / float64(len(f.Data))
}

func (f Field) RMS() float64 {
	if len(f.Data) == 0 {
		return 0
	}
	return floats.Norm(f.Data, 2) / math.Sqrt(float64(len(f.Data)))
}

func (f Field) Equal(other Field) bool {
	return f.SameShape(other) && floats.Equal(f.Data, other.Data)
}

// Parameters are the physical and numerical knobs of one run.
type Parameters struct {
	C     float64 `yaml:"c" json:"c"`
	Alpha float64 `yaml:"alpha" json:"alpha"`
	Beta  float64 `yaml:"beta" json:"beta"`
	M     int     `yaml:"m" json:"m"`
	Gamma float64 `yaml:"gamma" json:"gamma"`
	J     float64 `yaml:"j" json:"j"`
	Dt    float64 `yaml:"dt" json:"dt"`
	Steps int     `yaml:"steps" json:"steps"`

	// Ceiling is the |ψ| magnitude above which a step counts as diverged.
	Ceiling   float64   `yaml:"ceiling" json:"ceiling"`
	Bootstrap Bootstrap `yaml:"bootstrap" json:"bootstrap"`
}

const (
	DefaultC       = 1.0
	DefaultAlpha   = 0.1
	DefaultBeta    = 0.03
	DefaultM       = 3
	DefaultJ       = 1.0
	DefaultDt      = 0.1
	DefaultSteps   = 200
	DefaultCeiling = 1e6

	// CourantLimit bounds c·dt/min(dx,dy).
	CourantLimit = 1.0
)

func DefaultParameters() Parameters {
	return Parameters{
		C:         DefaultC,
		Alpha:     DefaultAlpha,
		Beta:      DefaultBeta,
		M:         DefaultM,
		Gamma:     0,
		J:         DefaultJ,
		Dt:        DefaultDt,
		Steps:     DefaultSteps,
		Ceiling:   DefaultCeiling,
		Bootstrap: BootstrapZeroVelocity,
	}
}

// Validate checks everything that does not depend on the grid. Use CheckCourant once the grid spacing is known.
func (p Parameters) Validate() error {
	names := [...]string{"c", "alpha", "beta", "gamma", "j", "dt"}
	for i, v := range [...]float64{p.C, p.Alpha, p.Beta, p.Gamma, p.J, p.Dt} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return paramErrorf("%s must be finite, got %v", names[i], v)
		}
	}
	if p.C <= 0 {
		return paramErrorf("c must be positive, got %g", p.C)
	}
	if p.Dt <= 0 {
		return paramErrorf("dt must be positive, got %g", p.Dt)
	}
	if p.Steps < 0 {
		return paramErrorf("steps must be non-negative, got %d", p.Steps)
	}
	if p.M < 0 {
		return paramErrorf("m must be non-negative, got %d", p.M)
	}
	if p.Alpha < 0 {
		return paramErrorf("alpha must be non-negative, got %g", p.Alpha)
	}
	if p.Gamma != 0 && p.J == 0 {
		return paramErrorf("gamma=%g has no effect with j=0; set gamma=0 to disable the term", p.Gamma)
	}
	if !(p.Ceiling > 0) {
		return paramErrorf("ceiling must be positive, got %g", p.Ceiling)
	}
	if _, err := ParseBootstrap(string(p.Bootstrap)); err != nil {
		return err
	}
	return nil
}

// Courant returns c·dt/min(dx,dy).
func (p Parameters) Courant(dx, dy float64) float64 {
	return p.C * p.Dt / math.Min(dx, dy)
}

func (p Parameters) CheckCourant(dx, dy float64) error {
	if nu := p.Courant(dx, dy); nu > CourantLimit {
		return paramErrorf("courant number c*dt/min(dx,dy) = %.4f exceeds %.1f (c=%g dt=%g dx=%g dy=%g)",
			nu, CourantLimit, p.C, p.Dt, dx, dy)
	}
	return nil
}

// Bootstrap selects how the integrator synthesizes ψ_prev on the first step.
type Bootstrap string

const (
	// BootstrapZeroVelocity sets ψ_prev = ψ₀.
	BootstrapZeroVelocity Bootstrap = "zero-velocity"
	// BootstrapTaylor sets ψ_prev = ψ₀ − dt·v₀ + ½dt²·a(ψ₀, v₀, 0).
	BootstrapTaylor Bootstrap = "taylor"
)

func ParseBootstrap(s string) (Bootstrap, error) {
	switch Bootstrap(s) {
	case "", BootstrapZeroVelocity:
		return BootstrapZeroVelocity, nil
	case BootstrapTaylor:
		return BootstrapTaylor, nil
	}
	return "", paramErrorf("unknown bootstrap policy %q", s)
}

// System computes the right-hand side of ψ_tt = a(ψ, ψ_t, t).
type System interface {
	Accelerate(psi, vel Field, t float64, out Field) error
}

// Hamiltonian systems expose a conserved (or slowly drifting) energy.
type Hamiltonian interface {
	Energy(psi, vel Field) float64
}

// Integrator advances a second-order-in-time field by one step.
type Integrator interface {
	Init(psi0, vel0 Field) error
	Advance(step int, t float64) (Field, error)
	Previous() Field
}

type Metric interface {
	Name() string
	Observe(step int, t float64, psi Field)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(step int, t float64, psi Field)
}

func (p Parameters) String() string {
	return fmt.Sprintf("c=%g alpha=%g beta=%g m=%d gamma=%g j=%g dt=%g steps=%d",
		p.C, p.Alpha, p.Beta, p.M, p.Gamma, p.J, p.Dt, p.Steps)
}

// Get returns a named parameter, matching the sweep axis names.
func (p Parameters) Get(name string) (float64, error) {
	switch name {
	case "c":
		return p.C, nil
	case "alpha":
		return p.Alpha, nil
	case "beta":
		return p.Beta, nil
	case "m":
		return float64(p.M), nil
	case "gamma":
		return p.Gamma, nil
	case "j":
		return p.J, nil
	case "dt":
		return p.Dt, nil
	case "steps":
		return float64(p.Steps), nil
	case "ceiling":
		return p.Ceiling, nil
	}
	return 0, paramErrorf("unknown parameter %q", name)
}

// Set assigns a named parameter. Integer parameters reject fractional values.
func (p *Parameters) Set(name string, v float64) error {
	switch name {
	case "c":
		p.C = v
	case "alpha":
		p.Alpha = v
	case "beta":
		p.Beta = v
	case "gamma":
		p.Gamma = v
	case "j":
		p.J = v
	case "dt":
		p.Dt = v
	case "ceiling":
		p.Ceiling = v
	case "m", "steps":
		if v != math.Trunc(v) {
			return paramErrorf("%s must be an integer, got %g", name, v)
		}
		if name == "m" {
			p.M = int(v)
		} else {
			p.Steps = int(v)
		}
	default:
		return paramErrorf("unknown parameter %q", name)
	}
	return nil
}

// ParamNames lists the names accepted by Get and Set.
func ParamNames() []string {
	return []string{"c", "alpha", "beta", "m", "gamma", "j", "dt", "steps", "ceiling"}
}
