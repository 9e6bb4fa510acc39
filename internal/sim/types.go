package sim

import (
	"math"
	"time"

	"github.com/san-kum/helixwave/internal/dynamo"
)

// Snapshot is one recorded field with its step index and simulated time.
type Snapshot struct {
	Step  int          `json:"step"`
	Time  float64      `json:"time"`
	Field dynamo.Field `json:"-"`
}

// Trajectory is the append-only sequence of recorded snapshots, in step order.
type Trajectory struct {
	Snapshots []Snapshot
}

func (tr *Trajectory) Append(s Snapshot) { tr.Snapshots = append(tr.Snapshots, s) }
func (tr *Trajectory) Len() int          { return len(tr.Snapshots) }

func (tr *Trajectory) Last() (Snapshot, bool) {
	if len(tr.Snapshots) == 0 {
		return Snapshot{}, false
	}
	return tr.Snapshots[len(tr.Snapshots)-1], true
}

// Find returns the snapshot recorded at step, if any.
func (tr *Trajectory) Find(step int) (Snapshot, bool) {
	for _, s := range tr.Snapshots {
		if s.Step == step {
			return s, true
		}
	}
	return Snapshot{}, false
}

func (tr *Trajectory) Steps() []int {
	out := make([]int, len(tr.Snapshots))
	for i, s := range tr.Snapshots {
		out[i] = s.Step
	}
	return out
}

// Probe returns ψ at cell (i, j) across the recorded snapshots.
func (tr *Trajectory) Probe(i, j int) []float64 {
	out := make([]float64, len(tr.Snapshots))
	for k, s := range tr.Snapshots {
		out[k] = s.Field.At(i, j)
	}
	return out
}

// Sink receives recorded snapshots as they are produced. The field is only
// valid for the duration of Write.
type Sink interface {
	Write(s Snapshot) error
	Flush() error
}

// SinkFunc adapts a function to a Sink with a no-op Flush.
type SinkFunc func(Snapshot) error

func (f SinkFunc) Write(s Snapshot) error { return f(s) }
func (f SinkFunc) Flush() error           { return nil }

type Config struct {
	Params dynamo.Parameters
	// Stride records every Stride-th step; 0 means every step.
	Stride int
	// Velocity is ψ_t(0), read by the taylor bootstrap. Empty means zero.
	Velocity dynamo.Field
	Sink     Sink
	// SkipTrajectory keeps only the amplitude series, for sweeps.
	SkipTrajectory bool
}

type Result struct {
	Params     dynamo.Parameters
	Trajectory Trajectory
	// Amplitude[n] is mean|ψ| after step n; Amplitude[0] is the initial field.
	Amplitude []float64
	// Peak is the largest |ψ| seen over the accepted steps.
	Peak           float64
	StepsCompleted int
	Diverged       bool
	// DivergedAt is the step that failed, or -1.
	DivergedAt  int
	Divergence  *dynamo.DivergenceError
	Metrics     map[string]float64
	EnergyDrift float64
	Elapsed     time.Duration
}

// TerminalMean averages the amplitude series over the final fraction of the
// completed steps, always using at least one sample.
func (r *Result) TerminalMean(fraction float64) float64 {
	series := r.Amplitude
	if len(series) == 0 {
		return 0
	}
	if len(series) > 1 {
		series = series[1:]
	}
	n := int(math.Ceil(fraction * float64(len(series))))
	if n < 1 {
		n = 1
	}
	if n > len(series) {
		n = len(series)
	}
	var sum float64
	for _, v := range series[len(series)-n:] {
		sum += v
	}
	return sum / float64(n)
}

// Times returns the simulated time of each amplitude sample.
func (r *Result) Times() []float64 {
	out := make([]float64, len(r.Amplitude))
	for i := range out {
		out[i] = float64(i) * r.Params.Dt
	}
	return out
}
