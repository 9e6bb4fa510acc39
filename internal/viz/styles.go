package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/helixwave/internal/analysis"
)

var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ffff"))

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	MetricLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899")).
			Width(12)

	MetricValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff")).
			Bold(true)

	KeyHint = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688")).
		Italic(true)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("#444466"))

	StatusRunning = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff88"))
	StatusPaused  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffaa00"))
	StatusFailed  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff4444"))

	SparkHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
	SparkMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	SparkLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
)

var outcomeStyles = map[analysis.Outcome]lipgloss.Style{
	analysis.Decayed:       lipgloss.NewStyle().Foreground(lipgloss.Color("#4488aa")),
	analysis.StablePattern: lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88")).Bold(true),
	analysis.Diverged:      lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444")).Bold(true),
	analysis.Invalid:       lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")).Italic(true),
}

// OutcomeStyle colors an outcome label.
func OutcomeStyle(o analysis.Outcome) lipgloss.Style {
	if s, ok := outcomeStyles[o]; ok {
		return s
	}
	return lipgloss.NewStyle()
}

// SweepTable lays out one row per entry: axis values, outcome, terminal
// mean, peak and divergence step.
func SweepTable(res *analysis.SweepResult) string {
	const colW = 16
	cell := lipgloss.NewStyle().Width(colW)
	head := lipgloss.NewStyle().Width(colW).Bold(true).Foreground(lipgloss.Color("#ffffff"))

	var b strings.Builder
	cols := append(append([]string{}, res.Axes...), "outcome", "mean|psi|", "peak", "diverged@")
	for _, c := range cols {
		b.WriteString(head.Render(c))
	}
	b.WriteString("\n")
	b.WriteString(Subtle.Render(strings.Repeat("─", colW*len(cols))))
	b.WriteString("\n")

	for _, e := range res.Entries {
		for _, v := range e.Point.Values {
			b.WriteString(cell.Render(fmt.Sprintf("%g", v)))
		}
		b.WriteString(OutcomeStyle(e.Outcome).Width(colW).Render(string(e.Outcome)))
		if e.Outcome == analysis.Invalid {
			b.WriteString(Subtle.Render(e.Err))
			b.WriteString("\n")
			continue
		}
		b.WriteString(cell.Render(fmt.Sprintf("%.4g", e.TerminalMean)))
		b.WriteString(cell.Render(fmt.Sprintf("%.4g", e.Peak)))
		div := "-"
		if e.DivergedAt >= 0 {
			div = fmt.Sprintf("%d", e.DivergedAt)
		}
		b.WriteString(cell.Render(div))
		b.WriteString("\n")
	}
	return b.String()
}

// ProgressBar renders a fraction in [0, 1] as a bar of the given width.
func ProgressBar(fraction float64, width int) string {
	filled := int(fraction * float64(width))
	filled = max(0, min(width, filled))
	return SparkLow.Render(strings.Repeat("█", filled)) + Subtle.Render(strings.Repeat("░", width-filled))
}

// SparklineChart renders a mini sparkline, sampling values to fit width.
// Higher values are drawn hotter.
func SparklineChart(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}
	step := max(1, len(values)/width)

	var result strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - lo) / rng
		idx := max(0, min(len(chars)-1, int(norm*float64(len(chars)-1))))
		c := string(chars[idx])
		switch {
		case norm > 0.7:
			result.WriteString(SparkHigh.Render(c))
		case norm > 0.3:
			result.WriteString(SparkMid.Render(c))
		default:
			result.WriteString(SparkLow.Render(c))
		}
	}
	return result.String()
}

func Separator(width int) string {
	return Subtle.Render(strings.Repeat("─", width))
}
