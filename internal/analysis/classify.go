package analysis

import (
	"fmt"
	"math"

	"github.com/san-kum/helixwave/internal/dynamo"
	"github.com/san-kum/helixwave/internal/sim"
)

type Outcome string

const (
	Decayed       Outcome = "decayed"
	StablePattern Outcome = "stable-pattern"
	Diverged      Outcome = "diverged"
	// Invalid marks a sweep point whose configuration failed validation.
	Invalid Outcome = "invalid"
)

// Thresholds bound the terminal-window statistic.
type Thresholds struct {
	Decay      float64 `yaml:"decay" json:"decay"`
	Divergence float64 `yaml:"divergence" json:"divergence"`
	// Window is the trailing fraction of completed steps that is averaged.
	Window float64 `yaml:"window" json:"window"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{Decay: 1e-3, Divergence: 10, Window: 0.1}
}

func (th Thresholds) Validate() error {
	if !(th.Decay >= 0) || !(th.Divergence > th.Decay) || math.IsInf(th.Divergence, 0) {
		return fmt.Errorf("%w: thresholds need 0 <= decay < divergence, got decay=%g divergence=%g",
			dynamo.ErrInvalidParameter, th.Decay, th.Divergence)
	}
	if !(th.Window > 0 && th.Window <= 1) {
		return fmt.Errorf("%w: window must be in (0, 1], got %g", dynamo.ErrInvalidParameter, th.Window)
	}
	return nil
}

// Classify labels a run from its result and run error. A divergence error
// always classifies as diverged; otherwise the terminal-window mean decides.
func Classify(result *sim.Result, runErr error, th Thresholds) (Outcome, float64) {
	if _, ok := dynamo.AsDivergence(runErr); ok {
		stat := math.Inf(1)
		if result != nil && len(result.Amplitude) > 0 {
			stat = result.TerminalMean(th.Window)
		}
		return Diverged, stat
	}
	if result == nil {
		return Invalid, math.NaN()
	}
	stat := result.TerminalMean(th.Window)
	switch {
	case math.IsNaN(stat) || stat > th.Divergence:
		return Diverged, stat
	case stat < th.Decay:
		return Decayed, stat
	}
	return StablePattern, stat
}
