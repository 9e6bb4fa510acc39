package viz

import (
	"math"
	"sort"

	"github.com/san-kum/helixwave/internal/dynamo"
)

type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Camera manages 3D projection to a 2D plane.
type Camera struct {
	Distance         float64
	RotX, RotY, RotZ float64
	Zoom             float64
}

// NewCamera looks down on the surface at a tilt.
func NewCamera() *Camera {
	return &Camera{Distance: 5, RotX: -0.6, Zoom: 1}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) RotateZ(a float64) { c.RotZ += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

func (c *Camera) rotate(p Vec3) Vec3 {
	cx, sx := math.Cos(c.RotX), math.Sin(c.RotX)
	p.Y, p.Z = p.Y*cx-p.Z*sx, p.Y*sx+p.Z*cx
	cy, sy := math.Cos(c.RotY), math.Sin(c.RotY)
	p.X, p.Z = p.X*cy+p.Z*sy, -p.X*sy+p.Z*cy
	cz, sz := math.Cos(c.RotZ), math.Sin(c.RotZ)
	p.X, p.Y = p.X*cz-p.Y*sz, p.X*sz+p.Y*cz
	return p
}

// Project maps p onto a sw x sh pixel plane and returns x, y, depth and
// whether the point lands on screen.
func (c *Camera) Project(p Vec3, sw, sh int) (int, int, float64, bool) {
	rot := c.rotate(p).Scale(c.Zoom)
	if rot.Z >= c.Distance-0.1 {
		return 0, 0, 0, false
	}
	scale := c.Distance / (c.Distance - rot.Z)
	pScale := float64(min(sw, sh)) / 2.5
	sx := int(rot.X*scale*pScale) + sw/2
	sy := int(-rot.Y*scale*pScale) + sh/2
	return sx, sy, rot.Z, sx >= 0 && sx < sw && sy >= 0 && sy < sh
}

type Edge struct {
	Start, End Vec3
}

type Wireframe struct{ Edges []Edge }

func (w *Wireframe) AddEdge(s, e Vec3) { w.Edges = append(w.Edges, Edge{s, e}) }

// SurfaceWireframe meshes ψ as a height map over [-1,1]², sampling every
// stride cells. Heights are ψ/scale·0.5; a scale <= 0 uses the field maximum.
func SurfaceWireframe(f dynamo.Field, stride int, scale float64) *Wireframe {
	if stride < 1 {
		stride = 1
	}
	if scale <= 0 {
		scale, _ = f.MaxAbs()
		if scale == 0 || math.IsInf(scale, 0) || math.IsNaN(scale) {
			scale = 1
		}
	}
	vertex := func(i, j int) Vec3 {
		v := f.At(i, j)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		return Vec3{
			X: 2*float64(i)/float64(f.NX-1) - 1,
			Y: 0.5 * v / scale,
			Z: 2*float64(j)/float64(f.NY-1) - 1,
		}
	}
	w := &Wireframe{}
	for i := 0; i < f.NX; i += stride {
		for j := 0; j < f.NY; j += stride {
			p := vertex(i, j)
			if i+stride < f.NX {
				w.AddEdge(p, vertex(i+stride, j))
			}
			if j+stride < f.NY {
				w.AddEdge(p, vertex(i, j+stride))
			}
		}
	}
	return w
}

// Render3D draws the wireframe back to front onto the canvas.
func Render3D(c *Canvas, w *Wireframe, cam *Camera) {
	if c == nil || w == nil || cam == nil {
		return
	}
	pw, ph := c.Pixels()
	type projected struct {
		x1, y1, x2, y2 int
		depth          float64
	}
	proj := make([]projected, 0, len(w.Edges))
	for _, e := range w.Edges {
		x1, y1, d1, v1 := cam.Project(e.Start, pw, ph)
		x2, y2, d2, v2 := cam.Project(e.End, pw, ph)
		if v1 || v2 {
			proj = append(proj, projected{x1, y1, x2, y2, (d1 + d2) / 2})
		}
	}
	sort.Slice(proj, func(i, j int) bool { return proj[i].depth < proj[j].depth })
	for _, e := range proj {
		c.DrawLine(e.x1, e.y1, e.x2, e.y2)
	}
}
