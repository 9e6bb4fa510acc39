package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/helixwave/internal/dynamo"
	"github.com/san-kum/helixwave/internal/viz"
)

// FieldToSVG draws ψ as a grid of cell-sized rectangles, red for positive and
// blue for negative, with opacity proportional to |ψ|/scale. A scale <= 0
// uses the field's own maximum. The top row is the largest y.
func FieldToSVG(f dynamo.Field, cell float64, scale float64) string {
	if f.NX == 0 || f.NY == 0 {
		return ""
	}
	if cell <= 0 {
		cell = 6
	}
	if scale <= 0 {
		scale, _ = f.MaxAbs()
	}
	width, height := float64(f.NX)*cell, float64(f.NY)*cell

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#ffffff"/>
`, width, height, width, height))

	for i := 0; i < f.NX; i++ {
		for j := 0; j < f.NY; j++ {
			v := f.At(i, j)
			fill, alpha := cellColor(v, scale)
			if alpha == 0 {
				continue
			}
			x := float64(i) * cell
			y := float64(f.NY-1-j) * cell
			sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s" fill-opacity="%.3f"/>
`, x, y, cell, cell, fill, alpha))
		}
	}
	sb.WriteString("</svg>")
	return sb.String()
}

func cellColor(v, scale float64) (string, float64) {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return "#000000", 1
	case scale <= 0 || v == 0:
		return "", 0
	case v > 0:
		return "#d62728", math.Min(1, v/scale)
	}
	return "#1f77b4", math.Min(1, -v/scale)
}

// CanvasToSVG converts a Braille canvas to SVG format
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}
	pw, ph := canvas.Pixels()
	width, height := float64(pw)*scale, float64(ph)*scale

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="#00ff88">
`, width, height, width, height))

	dotRadius := scale * 0.4
	for y := 0; y < ph; y++ {
		for x := 0; x < pw; x++ {
			if canvas.On(x, y) {
				sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f"/>
`, float64(x)*scale+scale/2, float64(y)*scale+scale/2, dotRadius))
			}
		}
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// SeriesToSVG draws ys against xs as a single polyline scaled into the box.
func SeriesToSVG(xs, ys []float64, width, height int, strokeColor string) string {
	n := min(len(xs), len(ys))
	if n < 2 {
		return ""
	}
	minX, maxX := xs[0], xs[0]
	minY, maxY := ys[0], ys[0]
	for k := 0; k < n; k++ {
		minX, maxX = math.Min(minX, xs[k]), math.Max(maxX, xs[k])
		minY, maxY = math.Min(minY, ys[k]), math.Max(maxY, ys[k])
	}
	if maxX == minX {
		maxX = minX + 1
	}
	if maxY == minY {
		maxY = minY + 1
	}

	const pad = 20.0
	w, h := float64(width)-2*pad, float64(height)-2*pad

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#ffffff"/>
<polyline fill="none" stroke="%s" stroke-width="1.5" points="`, width, height, width, height, strokeColor))
	for k := 0; k < n; k++ {
		px := pad + (xs[k]-minX)/(maxX-minX)*w
		py := pad + h - (ys[k]-minY)/(maxY-minY)*h
		sb.WriteString(fmt.Sprintf("%.1f,%.1f ", px, py))
	}
	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
