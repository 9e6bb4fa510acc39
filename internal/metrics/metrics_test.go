package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/helixwave/internal/dynamo"
)

func field(vals ...float64) dynamo.Field {
	return dynamo.Field{NX: 1, NY: len(vals), Data: vals}
}

func TestStability(t *testing.T) {
	m := NewStability(1)
	if m.Value() != 1 {
		t.Errorf("empty stability should be 1, got %f", m.Value())
	}
	m.Observe(0, 0, field(0.5, -0.9))
	m.Observe(1, 0, field(0.5, -1.5))
	m.Observe(2, 0, field(1, 0))
	m.Observe(3, 0, field(3, 0))
	if m.Value() != 0.5 {
		t.Errorf("expected 0.5, got %f", m.Value())
	}
	m.Reset()
	if m.Value() != 1 {
		t.Errorf("expected 1 after reset, got %f", m.Value())
	}
}

func TestMaxAmplitude(t *testing.T) {
	m := NewMaxAmplitude()
	m.Observe(0, 0, field(1, -4))
	m.Observe(1, 0, field(2, 3))
	if m.Value() != 4 {
		t.Errorf("expected 4, got %f", m.Value())
	}
	m.Reset()
	if m.Value() != 0 {
		t.Errorf("expected 0 after reset, got %f", m.Value())
	}
}

func TestTerminalMean(t *testing.T) {
	tests := []struct {
		steps    int
		fraction float64
		want     float64
	}{
		{10, 0.1, 10},
		{8, 0.25, 7.5},
		{0, 0.1, 0},
	}
	for _, tt := range tests {
		m := NewTerminalMean(tt.steps, tt.fraction)
		for n := 0; n <= tt.steps; n++ {
			m.Observe(n, 0, field(float64(n), -float64(n)))
		}
		if got := m.Value(); got != tt.want {
			t.Errorf("steps=%d fraction=%g: got %g, want %g", tt.steps, tt.fraction, got, tt.want)
		}
	}
}

func TestRMS(t *testing.T) {
	m := NewRMS()
	m.Observe(0, 0, field(3, 4, 0, 0))
	if got := m.Value(); math.Abs(got-2.5) > 1e-12 {
		t.Errorf("expected 2.5, got %g", got)
	}
}

type quadratic struct{}

func (quadratic) Energy(psi, vel dynamo.Field) float64 {
	var e float64
	for k := range psi.Data {
		e += 0.5 * (vel.Data[k]*vel.Data[k] + psi.Data[k]*psi.Data[k])
	}
	return e
}

func TestEnergyDrift(t *testing.T) {
	m := NewEnergyDrift(quadratic{}, 0.5)
	m.Observe(0, 0, field(2))
	m.Observe(1, 0.5, field(2))
	if m.Value() != 0 {
		t.Errorf("resting field should not drift, got %g", m.Value())
	}
	// ψ=1 with velocity (1−2)/0.5 = −2: E = ½(4+1) = 2.5 against E₀ = 2.
	m.Observe(2, 1, field(1))
	if got := m.Value(); math.Abs(got-0.25) > 1e-12 {
		t.Errorf("expected drift 0.25, got %g", got)
	}
	m.Reset()
	if m.Value() != 0 {
		t.Errorf("expected 0 after reset, got %g", m.Value())
	}
}

func TestStandard(t *testing.T) {
	names := map[string]bool{}
	for _, m := range Standard(100, 0.1, 10) {
		names[m.Name()] = true
	}
	for _, want := range []string{"max_amplitude", "terminal_mean", "rms", "stability"} {
		if !names[want] {
			t.Errorf("missing metric %s", want)
		}
	}
}
