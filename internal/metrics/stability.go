package metrics

import "github.com/san-kum/helixwave/internal/dynamo"

// Stability is the fraction of observed steps whose max |ψ| stays at or below threshold.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(_ int, _ float64, psi dynamo.Field) {
	s.samples++
	if peak, _ := psi.MaxAbs(); peak > s.threshold {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
