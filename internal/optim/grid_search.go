package optim

import (
	"fmt"
	"strconv"
	"strings"
)

// Axis is one named dimension of a parameter grid.
type Axis struct {
	Name   string    `yaml:"name" json:"name"`
	Values []float64 `yaml:"values" json:"values"`
}

// Point is one combination of axis values, in axis order.
type Point struct {
	Names  []string
	Values []float64
}

func (p Point) Get(name string) (float64, bool) {
	for i, n := range p.Names {
		if n == name {
			return p.Values[i], true
		}
	}
	return 0, false
}

func (p Point) Map() map[string]float64 {
	m := make(map[string]float64, len(p.Names))
	for i, n := range p.Names {
		m[n] = p.Values[i]
	}
	return m
}

func (p Point) String() string {
	parts := make([]string, len(p.Names))
	for i, n := range p.Names {
		parts[i] = n + "=" + strconv.FormatFloat(p.Values[i], 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}

// Grid is the Cartesian product of its axes; the first axis varies slowest.
type Grid struct {
	axes []Axis
}

func NewGrid(axes ...Axis) (*Grid, error) {
	if len(axes) == 0 {
		return nil, fmt.Errorf("optim: grid needs at least one axis")
	}
	seen := make(map[string]bool, len(axes))
	for _, a := range axes {
		if a.Name == "" {
			return nil, fmt.Errorf("optim: axis with empty name")
		}
		if seen[a.Name] {
			return nil, fmt.Errorf("optim: duplicate axis %q", a.Name)
		}
		if len(a.Values) == 0 {
			return nil, fmt.Errorf("optim: axis %q has no values", a.Name)
		}
		seen[a.Name] = true
	}
	return &Grid{axes: axes}, nil
}

func (g *Grid) Axes() []Axis { return g.axes }

func (g *Grid) Names() []string {
	out := make([]string, len(g.axes))
	for i, a := range g.axes {
		out[i] = a.Name
	}
	return out
}

func (g *Grid) Size() int {
	n := 1
	for _, a := range g.axes {
		n *= len(a.Values)
	}
	return n
}

// Points enumerates the product in declared order.
func (g *Grid) Points() []Point {
	out := make([]Point, 0, g.Size())
	names := g.Names()
	g.enumerate(0, make([]float64, len(g.axes)), func(vals []float64) {
		out = append(out, Point{Names: names, Values: append([]float64(nil), vals...)})
	})
	return out
}

func (g *Grid) enumerate(depth int, current []float64, visit func([]float64)) {
	if depth == len(g.axes) {
		visit(current)
		return
	}
	for _, v := range g.axes[depth].Values {
		current[depth] = v
		g.enumerate(depth+1, current, visit)
	}
}

// ParseAxis reads "name=v1,v2,..." or "name=start:stop:step".
func ParseAxis(s string) (Axis, error) {
	name, spec, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" || spec == "" {
		return Axis{}, fmt.Errorf("optim: axis %q: want name=values", s)
	}
	if strings.Contains(spec, ":") {
		parts := strings.Split(spec, ":")
		if len(parts) != 3 {
			return Axis{}, fmt.Errorf("optim: axis %q: range needs start:stop:step", s)
		}
		var r [3]float64
		for i, p := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return Axis{}, fmt.Errorf("optim: axis %q: %w", s, err)
			}
			r[i] = v
		}
		return Range(name, r[0], r[1], r[2])
	}

	var vals []float64
	for _, p := range strings.Split(spec, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Axis{}, fmt.Errorf("optim: axis %q: %w", s, err)
		}
		vals = append(vals, v)
	}
	return Axis{Name: name, Values: vals}, nil
}

// Range builds an axis from start to stop inclusive. Values are computed as
// start+i*step so they do not accumulate rounding error.
func Range(name string, start, stop, step float64) (Axis, error) {
	if !(step > 0) || stop < start {
		return Axis{}, fmt.Errorf("optim: range %s=%g:%g:%g needs step > 0 and stop >= start", name, start, stop, step)
	}
	n := int((stop-start)/step+1e-9) + 1
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = start + float64(i)*step
	}
	return Axis{Name: name, Values: vals}, nil
}
