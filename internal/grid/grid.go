package grid

import (
	"fmt"
	"math"

	"github.com/san-kum/helixwave/internal/dynamo"
)

// Boundary selects the ghost-cell rule used by the Laplacian at the domain edge.
type Boundary string

const (
	// Reflective mirrors the first interior row across the edge (zero normal flux).
	Reflective Boundary = "reflective"
	// Periodic wraps indices around the domain.
	Periodic Boundary = "periodic"
	// Fixed pins the ghost cells to zero (homogeneous Dirichlet).
	Fixed Boundary = "fixed"
)

// Stencil selects the finite-difference Laplacian.
type Stencil string

const (
	FivePoint Stencil = "5-point"
	// NinePoint is the isotropic 9-point stencil; it needs dx == dy.
	NinePoint Stencil = "9-point"
)

const spacingTolerance = 1e-12

// Spec describes a rectangular grid with inclusive endpoints.
type Spec struct {
	NX       int      `yaml:"nx" json:"nx"`
	NY       int      `yaml:"ny" json:"ny"`
	XMin     float64  `yaml:"x_min" json:"x_min"`
	XMax     float64  `yaml:"x_max" json:"x_max"`
	YMin     float64  `yaml:"y_min" json:"y_min"`
	YMax     float64  `yaml:"y_max" json:"y_max"`
	Boundary Boundary `yaml:"boundary" json:"boundary"`
	Stencil  Stencil  `yaml:"stencil" json:"stencil"`
}

func DefaultSpec() Spec {
	return Spec{
		NX: 64, NY: 64,
		XMin: -10, XMax: 10,
		YMin: -10, YMax: 10,
		Boundary: Reflective,
		Stencil:  FivePoint,
	}
}

// Grid holds the coordinate arrays and polar coordinates of every cell.
// It is read-only after New returns.
type Grid struct {
	spec     Spec
	dx, dy   float64
	x, y     []float64
	r, theta []float64
}

func New(spec Spec) (*Grid, error) {
	if spec.Boundary == "" {
		spec.Boundary = Reflective
	}
	if spec.Stencil == "" {
		spec.Stencil = FivePoint
	}
	if spec.NX < 3 || spec.NY < 3 {
		return nil, fmt.Errorf("%w: need at least 3 points per axis, got %dx%d", dynamo.ErrInvalidGrid, spec.NX, spec.NY)
	}
	for _, v := range [...]float64{spec.XMin, spec.XMax, spec.YMin, spec.YMax} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: extents must be finite", dynamo.ErrInvalidGrid)
		}
	}
	if !(spec.XMax > spec.XMin) || !(spec.YMax > spec.YMin) {
		return nil, fmt.Errorf("%w: extents must be increasing, got x=[%g,%g] y=[%g,%g]",
			dynamo.ErrInvalidGrid, spec.XMin, spec.XMax, spec.YMin, spec.YMax)
	}
	switch spec.Boundary {
	case Reflective, Periodic, Fixed:
	default:
		return nil, fmt.Errorf("%w: unknown boundary %q", dynamo.ErrInvalidGrid, spec.Boundary)
	}

	g := &Grid{
		spec: spec,
		dx:   (spec.XMax - spec.XMin) / float64(spec.NX-1),
		dy:   (spec.YMax - spec.YMin) / float64(spec.NY-1),
	}
	switch spec.Stencil {
	case FivePoint:
	case NinePoint:
		if math.Abs(g.dx-g.dy) > spacingTolerance*math.Max(g.dx, g.dy) {
			return nil, fmt.Errorf("%w: 9-point stencil needs dx == dy, got dx=%g dy=%g", dynamo.ErrInvalidGrid, g.dx, g.dy)
		}
	default:
		return nil, fmt.Errorf("%w: unknown stencil %q", dynamo.ErrInvalidGrid, spec.Stencil)
	}

	g.x = linspace(spec.XMin, spec.XMax, spec.NX)
	g.y = linspace(spec.YMin, spec.YMax, spec.NY)
	g.r = make([]float64, spec.NX*spec.NY)
	g.theta = make([]float64, spec.NX*spec.NY)
	for i, x := range g.x {
		for j, y := range g.y {
			k := i*spec.NY + j
			g.r[k] = math.Hypot(x, y)
			g.theta[k] = math.Atan2(y, x)
		}
	}
	return g, nil
}

// linspace pins the last point to hi so the endpoints are exact.
func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}

func (g *Grid) Spec() Spec          { return g.spec }
func (g *Grid) NX() int             { return g.spec.NX }
func (g *Grid) NY() int             { return g.spec.NY }
func (g *Grid) Dx() float64         { return g.dx }
func (g *Grid) Dy() float64         { return g.dy }
func (g *Grid) X(i int) float64     { return g.x[i] }
func (g *Grid) Y(j int) float64     { return g.y[j] }
func (g *Grid) Boundary() Boundary  { return g.spec.Boundary }
func (g *Grid) Stencil() Stencil    { return g.spec.Stencil }
func (g *Grid) MinSpacing() float64 { return math.Min(g.dx, g.dy) }

func (g *Grid) R(i, j int) float64     { return g.r[i*g.spec.NY+j] }
func (g *Grid) Theta(i, j int) float64 { return g.theta[i*g.spec.NY+j] }

// NewField allocates a zero field shaped like the grid.
func (g *Grid) NewField() dynamo.Field {
	return dynamo.NewField(g.spec.NX, g.spec.NY)
}

func (g *Grid) Fits(f dynamo.Field) bool {
	return f.NX == g.spec.NX && f.NY == g.spec.NY && len(f.Data) == g.spec.NX*g.spec.NY
}

// Locate returns the cell nearest to (x, y), clamped to the domain.
func (g *Grid) Locate(x, y float64) (int, int) {
	i := int(math.Round((x - g.spec.XMin) / g.dx))
	j := int(math.Round((y - g.spec.YMin) / g.dy))
	return clamp(i, 0, g.spec.NX-1), clamp(j, 0, g.spec.NY-1)
}

// Contains reports whether (x, y) lies within the closed extents.
func (g *Grid) Contains(x, y float64) bool {
	return x >= g.spec.XMin && x <= g.spec.XMax && y >= g.spec.YMin && y <= g.spec.YMax
}

// Position maps a flat field index to its coordinates.
func (g *Grid) Position(k int) (i, j int, x, y float64) {
	i, j = k/g.spec.NY, k%g.spec.NY
	return i, j, g.x[i], g.y[j]
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
