package viz

import (
	"math"
	"strings"

	"github.com/san-kum/helixwave/internal/dynamo"
)

// Ramp orders characters from empty to dense.
const Ramp = " .:-=+*#%@"

// Heatmap renders |ψ| as text no larger than width x height characters. Row 0
// is the largest y so the picture matches the usual axes. Cells are averaged
// when the field is larger than the output. A scale <= 0 normalizes to the
// field's own maximum. Non-finite cells print as '!'.
func Heatmap(f dynamo.Field, width, height int, scale float64) string {
	cells := Downsample(f, width, height)
	if scale <= 0 {
		for _, row := range cells {
			for _, v := range row {
				if !math.IsInf(v, 0) && v > scale {
					scale = v
				}
			}
		}
	}
	var b strings.Builder
	for _, row := range cells {
		for _, v := range row {
			b.WriteByte(level(v, scale))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Downsample averages |ψ| over blocks so the result has at most height rows
// (top = largest y) and width columns (left = smallest x).
func Downsample(f dynamo.Field, width, height int) [][]float64 {
	cols, rows := min(width, f.NX), min(height, f.NY)
	if cols < 1 || rows < 1 {
		return nil
	}
	out := make([][]float64, rows)
	for r := 0; r < rows; r++ {
		out[r] = make([]float64, cols)
		// r = 0 covers the top block of j values.
		j0 := f.NY - (r+1)*f.NY/rows
		j1 := f.NY - r*f.NY/rows
		for c := 0; c < cols; c++ {
			i0, i1 := c*f.NX/cols, (c+1)*f.NX/cols
			var sum float64
			for i := i0; i < i1; i++ {
				for j := j0; j < j1; j++ {
					sum += math.Abs(f.At(i, j))
				}
			}
			out[r][c] = sum / float64((i1-i0)*(j1-j0))
		}
	}
	return out
}

func level(v, scale float64) byte {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return '!'
	}
	if scale <= 0 {
		return Ramp[0]
	}
	k := int(v/scale*float64(len(Ramp)-1) + 0.5)
	if k < 0 {
		k = 0
	}
	if k >= len(Ramp) {
		k = len(Ramp) - 1
	}
	return Ramp[k]
}

// Slice returns ψ along the row of constant y nearest the middle of the grid.
func Slice(f dynamo.Field) []float64 {
	j := f.NY / 2
	out := make([]float64, f.NX)
	for i := range out {
		out[i] = f.At(i, j)
	}
	return out
}
