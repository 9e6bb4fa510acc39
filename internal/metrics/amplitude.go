package metrics

import (
	"math"

	"github.com/san-kum/helixwave/internal/dynamo"
)

// MaxAmplitude is the largest |ψ| seen over the run.
type MaxAmplitude struct {
	peak float64
}

func NewMaxAmplitude() *MaxAmplitude { return &MaxAmplitude{} }

func (m *MaxAmplitude) Name() string { return "max_amplitude" }

func (m *MaxAmplitude) Observe(_ int, _ float64, psi dynamo.Field) {
	if p, _ := psi.MaxAbs(); p > m.peak {
		m.peak = p
	}
}

func (m *MaxAmplitude) Value() float64 { return m.peak }
func (m *MaxAmplitude) Reset()         { m.peak = 0 }

// TerminalMean averages mean|ψ| over steps in the final fraction of a run of
// known length. Step 0 is never part of the window unless the run has no steps.
type TerminalMean struct {
	from  int
	sum   float64
	count int
}

func NewTerminalMean(steps int, fraction float64) *TerminalMean {
	window := int(math.Ceil(fraction * float64(steps)))
	if window < 1 {
		window = 1
	}
	from := steps - window + 1
	if from < 0 {
		from = 0
	}
	return &TerminalMean{from: from}
}

func (m *TerminalMean) Name() string { return "terminal_mean" }

func (m *TerminalMean) Observe(step int, _ float64, psi dynamo.Field) {
	if step >= m.from {
		m.sum += psi.MeanAbs()
		m.count++
	}
}

func (m *TerminalMean) Value() float64 {
	if m.count == 0 {
		return 0
	}
	return m.sum / float64(m.count)
}

func (m *TerminalMean) Reset() {
	m.sum = 0
	m.count = 0
}

// RMS is the root-mean-square of the last observed field.
type RMS struct {
	last float64
}

func NewRMS() *RMS { return &RMS{} }

func (m *RMS) Name() string                               { return "rms" }
func (m *RMS) Observe(_ int, _ float64, psi dynamo.Field) { m.last = psi.RMS() }
func (m *RMS) Value() float64                             { return m.last }
func (m *RMS) Reset()                                     { m.last = 0 }

// Standard returns the metrics attached to every CLI run.
func Standard(steps int, fraction, threshold float64) []dynamo.Metric {
	return []dynamo.Metric{
		NewMaxAmplitude(),
		NewTerminalMean(steps, fraction),
		NewRMS(),
		NewStability(threshold),
	}
}
