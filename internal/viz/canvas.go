package viz

import (
	"math"
	"strings"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Canvas is a Braille pixel buffer. Its resolution in sub-pixels is
// (Width*2) x (Height*4).
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, Grid: make([][]rune, h)}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Pixels returns the sub-pixel resolution.
func (c *Canvas) Pixels() (int, int) { return c.Width * 2, c.Height * 4 }

// Set lights the sub-pixel (x, y); out-of-range coordinates are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// On reports whether sub-pixel (x, y) is lit.
func (c *Canvas) On(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx, dy := absInt(x1-x0), absInt(y1-y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy
	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// DrawSeries plots values as a polyline spanning the canvas, with lo at the
// bottom edge and hi at the top. A zero axis is drawn when lo < 0 < hi.
func (c *Canvas) DrawSeries(values []float64, lo, hi float64) {
	if len(values) == 0 {
		return
	}
	pw, ph := c.Pixels()
	if hi <= lo {
		hi = lo + 1
	}
	ypix := func(v float64) int {
		if math.IsNaN(v) {
			v = lo
		}
		v = math.Max(lo, math.Min(hi, v))
		return ph - 1 - int(math.Round((v-lo)/(hi-lo)*float64(ph-1)))
	}
	if lo < 0 && hi > 0 {
		z := ypix(0)
		for x := 0; x < pw; x += 2 {
			c.Set(x, z)
		}
	}
	if len(values) == 1 {
		c.DrawLine(0, ypix(values[0]), pw-1, ypix(values[0]))
		return
	}
	px, py := 0, ypix(values[0])
	for k := 1; k < len(values); k++ {
		x := k * (pw - 1) / (len(values) - 1)
		y := ypix(values[k])
		c.DrawLine(px, py, x, y)
		px, py = x, y
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
