package grid

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/helixwave/internal/dynamo"
)

func TestNew_Spacing(t *testing.T) {
	g, err := New(Spec{NX: 5, NY: 3, XMin: -1, XMax: 1, YMin: 0, YMax: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Dx() != 0.5 || g.Dy() != 2 {
		t.Errorf("expected dx=0.5 dy=2, got dx=%g dy=%g", g.Dx(), g.Dy())
	}
	if g.X(0) != -1 || g.X(4) != 1 || g.Y(2) != 4 {
		t.Errorf("endpoints not inclusive: x=[%g,%g] y_max=%g", g.X(0), g.X(4), g.Y(2))
	}
	if g.Boundary() != Reflective || g.Stencil() != FivePoint {
		t.Errorf("expected reflective 5-point defaults, got %s %s", g.Boundary(), g.Stencil())
	}
}

func TestNew_Polar(t *testing.T) {
	g, err := New(Spec{NX: 3, NY: 3, XMin: -1, XMax: 1, YMin: -1, YMax: 1})
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		i, j  int
		r, th float64
	}{
		{2, 1, 1, 0},
		{1, 2, 1, math.Pi / 2},
		{0, 1, 1, math.Pi},
		{1, 0, 1, -math.Pi / 2},
		{2, 2, math.Sqrt2, math.Pi / 4},
		{1, 1, 0, 0},
	}
	for _, tt := range tests {
		if math.Abs(g.R(tt.i, tt.j)-tt.r) > 1e-12 {
			t.Errorf("r(%d,%d) = %g, want %g", tt.i, tt.j, g.R(tt.i, tt.j), tt.r)
		}
		if math.Abs(g.Theta(tt.i, tt.j)-tt.th) > 1e-12 {
			t.Errorf("theta(%d,%d) = %g, want %g", tt.i, tt.j, g.Theta(tt.i, tt.j), tt.th)
		}
	}
}

func TestNew_Invalid(t *testing.T) {
	base := DefaultSpec()
	tests := []struct {
		name   string
		mutate func(*Spec)
	}{
		{"too few x", func(s *Spec) { s.NX = 2 }},
		{"too few y", func(s *Spec) { s.NY = 0 }},
		{"reversed x", func(s *Spec) { s.XMin, s.XMax = 1, -1 }},
		{"empty y", func(s *Spec) { s.YMax = s.YMin }},
		{"nan extent", func(s *Spec) { s.XMax = math.NaN() }},
		{"inf extent", func(s *Spec) { s.YMin = math.Inf(-1) }},
		{"unknown boundary", func(s *Spec) { s.Boundary = "absorbing" }},
		{"unknown stencil", func(s *Spec) { s.Stencil = "13-point" }},
		{"anisotropic 9-point", func(s *Spec) { s.Stencil = NinePoint; s.YMax = 30 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := base
			tt.mutate(&spec)
			_, err := New(spec)
			if !errors.Is(err, dynamo.ErrInvalidGrid) {
				t.Errorf("expected ErrInvalidGrid, got %v", err)
			}
		})
	}
}

func TestLocate(t *testing.T) {
	g, _ := New(DefaultSpec())
	i, j := g.Locate(0, 0)
	if math.Abs(g.X(i)) > g.Dx()/2 || math.Abs(g.Y(j)) > g.Dy()/2 {
		t.Errorf("Locate(0,0) = (%d,%d) at (%g,%g)", i, j, g.X(i), g.Y(j))
	}
	i, j = g.Locate(100, -100)
	if i != g.NX()-1 || j != 0 {
		t.Errorf("expected clamp to (%d,0), got (%d,%d)", g.NX()-1, i, j)
	}
}

func fill(g *Grid, f func(x, y float64) float64) dynamo.Field {
	psi := g.NewField()
	for i := 0; i < g.NX(); i++ {
		for j := 0; j < g.NY(); j++ {
			psi.Set(i, j, f(g.X(i), g.Y(j)))
		}
	}
	return psi
}

func TestLaplacian_QuadraticInterior(t *testing.T) {
	for _, st := range []Stencil{FivePoint, NinePoint} {
		t.Run(string(st), func(t *testing.T) {
			spec := DefaultSpec()
			spec.Stencil = st
			g, err := New(spec)
			if err != nil {
				t.Fatal(err)
			}
			psi := fill(g, func(x, y float64) float64 { return x*x + y*y })
			out := g.NewField()
			g.Laplacian(psi, out)
			for i := 1; i < g.NX()-1; i++ {
				for j := 1; j < g.NY()-1; j++ {
					if v := out.At(i, j); math.Abs(v-4) > 1e-8 {
						t.Fatalf("lap(%d,%d) = %g, want 4", i, j, v)
					}
				}
			}
		})
	}
}

func TestLaplacian_Constant(t *testing.T) {
	for _, b := range []Boundary{Reflective, Periodic} {
		for _, st := range []Stencil{FivePoint, NinePoint} {
			t.Run(string(b)+"/"+string(st), func(t *testing.T) {
				spec := DefaultSpec()
				spec.NX, spec.NY, spec.Boundary, spec.Stencil = 8, 8, b, st
				g, _ := New(spec)
				psi := fill(g, func(_, _ float64) float64 { return 2.5 })
				out := g.NewField()
				g.Laplacian(psi, out)
				if m, _ := out.MaxAbs(); m > 1e-12 {
					t.Errorf("constant field should have zero laplacian, max |lap| = %g", m)
				}
			})
		}
	}
}

func TestLaplacian_FixedEdgesSeeZero(t *testing.T) {
	spec := DefaultSpec()
	spec.NX, spec.NY, spec.Boundary = 6, 6, Fixed
	g, _ := New(spec)
	psi := fill(g, func(_, _ float64) float64 { return 1 })
	out := g.NewField()
	g.Laplacian(psi, out)

	ix2, iy2 := 1/(g.Dx()*g.Dx()), 1/(g.Dy()*g.Dy())
	if v := out.At(0, 0); math.Abs(v-(-ix2-iy2)) > 1e-9 {
		t.Errorf("corner lap = %g, want %g", v, -ix2-iy2)
	}
	if v := out.At(0, 3); math.Abs(v-(-ix2)) > 1e-9 {
		t.Errorf("edge lap = %g, want %g", v, -ix2)
	}
	if v := out.At(3, 3); v != 0 {
		t.Errorf("interior lap = %g, want 0", v)
	}
}

func TestLaplacian_ReflectiveMirror(t *testing.T) {
	spec := DefaultSpec()
	spec.NX, spec.NY = 5, 5
	g, _ := New(spec)
	psi := fill(g, func(x, _ float64) float64 { return x })
	out := g.NewField()
	g.Laplacian(psi, out)

	want := 2 * (psi.At(1, 2) - psi.At(0, 2)) / (g.Dx() * g.Dx())
	if v := out.At(0, 2); math.Abs(v-want) > 1e-9 {
		t.Errorf("mirror edge lap = %g, want %g", v, want)
	}
}

func TestLaplacian_PeriodicWraps(t *testing.T) {
	spec := DefaultSpec()
	spec.NX, spec.NY, spec.Boundary = 6, 6, Periodic
	g, _ := New(spec)
	psi := g.NewField()
	psi.Set(0, 0, 1)
	out := g.NewField()
	g.Laplacian(psi, out)

	ix2, iy2 := 1/(g.Dx()*g.Dx()), 1/(g.Dy()*g.Dy())
	if v := out.At(5, 0); math.Abs(v-ix2) > 1e-9 {
		t.Errorf("wrapped neighbor in x = %g, want %g", v, ix2)
	}
	if v := out.At(0, 5); math.Abs(v-iy2) > 1e-9 {
		t.Errorf("wrapped neighbor in y = %g, want %g", v, iy2)
	}
}

func BenchmarkLaplacian5(b *testing.B) {
	g, _ := New(DefaultSpec())
	psi := fill(g, func(x, y float64) float64 { return math.Sin(x) * math.Cos(y) })
	out := g.NewField()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g.Laplacian(psi, out)
	}
}

func BenchmarkLaplacian9(b *testing.B) {
	spec := DefaultSpec()
	spec.Stencil = NinePoint
	g, _ := New(spec)
	psi := fill(g, func(x, y float64) float64 { return math.Sin(x) * math.Cos(y) })
	out := g.NewField()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g.Laplacian(psi, out)
	}
}
