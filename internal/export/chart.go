package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/san-kum/helixwave/internal/analysis"
)

const (
	chartWidth  = 900
	chartHeight = 400
)

// AmplitudePNG renders the mean|ψ| series of one run as a PNG line chart.
func AmplitudePNG(w io.Writer, times, series []float64, title string) error {
	if len(series) < 2 || len(times) != len(series) {
		return fmt.Errorf("export: need at least two samples with matching times, got %d/%d", len(series), len(times))
	}
	graph := chart.Chart{
		Title:  title,
		Width:  chartWidth,
		Height: chartHeight,
		XAxis:  chart.XAxis{Name: "t", Style: chart.Style{FontSize: 10.0}},
		YAxis:  chart.YAxis{Name: "mean|psi|", Style: chart.Style{FontSize: 10.0}},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "mean|psi|",
				XValues: times,
				YValues: series,
				Style:   chart.Style{StrokeColor: chart.ColorBlue, StrokeWidth: 2.0},
			},
		},
	}
	return graph.Render(chart.PNG, w)
}

// SweepPNG plots the terminal mean over one axis. Entries that agree on every
// other axis share a line; diverged and invalid points are left out of the
// lines and marked in red along the top edge.
func SweepPNG(w io.Writer, res *analysis.SweepResult, axis string) error {
	col := -1
	for k, name := range res.Axes {
		if name == axis {
			col = k
		}
	}
	if col < 0 {
		return fmt.Errorf("export: sweep has no axis %q (axes %v)", axis, res.Axes)
	}

	type line struct{ xs, ys []float64 }
	lines := map[string]*line{}
	var divergedX []float64
	top := 0.0
	for _, e := range res.Entries {
		x := e.Point.Values[col]
		if e.Outcome == analysis.Diverged || e.Outcome == analysis.Invalid {
			divergedX = append(divergedX, x)
			continue
		}
		key := otherAxes(res.Axes, e.Point.Values, col)
		l, ok := lines[key]
		if !ok {
			l = &line{}
			lines[key] = l
		}
		l.xs = append(l.xs, x)
		l.ys = append(l.ys, e.TerminalMean)
		top = max(top, e.TerminalMean)
	}

	keys := make([]string, 0, len(lines))
	for k, l := range lines {
		if len(l.xs) >= 2 {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return fmt.Errorf("export: axis %q has fewer than two non-diverged points per line", axis)
	}
	sort.Strings(keys)

	series := make([]chart.Series, 0, len(keys)+1)
	for i, k := range keys {
		name := "terminal mean"
		if k != "" {
			name = k
		}
		series = append(series, chart.ContinuousSeries{
			Name:    name,
			XValues: lines[k].xs,
			YValues: lines[k].ys,
			Style: chart.Style{
				StrokeColor: palette[i%len(palette)],
				StrokeWidth: 2.0,
				DotColor:    palette[i%len(palette)],
				DotWidth:    3.0,
			},
		})
	}
	if len(divergedX) > 0 {
		ys := make([]float64, len(divergedX))
		for i := range ys {
			ys[i] = top
		}
		series = append(series, chart.ContinuousSeries{
			Name:    "diverged",
			XValues: divergedX,
			YValues: ys,
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotColor:    chart.ColorRed,
				DotWidth:    5.0,
			},
		})
	}

	graph := chart.Chart{
		Title:  "terminal mean|psi| over " + axis,
		Width:  chartWidth,
		Height: chartHeight,
		XAxis:  chart.XAxis{Name: axis, Style: chart.Style{FontSize: 10.0}},
		YAxis:  chart.YAxis{Name: "mean|psi|", Style: chart.Style{FontSize: 10.0}},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return graph.Render(chart.PNG, w)
}

var palette = []drawing.Color{
	chart.ColorBlue,
	chart.ColorGreen,
	{R: 255, G: 165, B: 0, A: 255},
	chart.ColorCyan,
	chart.ColorBlack,
}

func otherAxes(names []string, values []float64, skip int) string {
	parts := make([]string, 0, len(names))
	for k, name := range names {
		if k != skip {
			parts = append(parts, fmt.Sprintf("%s=%g", name, values[k]))
		}
	}
	return strings.Join(parts, " ")
}
