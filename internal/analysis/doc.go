// Package analysis characterizes helix wave runs.
//
// The package includes:
//
//   - [Classify]: decayed / stable-pattern / diverged from the terminal-window mean |ψ|
//   - [Sweep]: parallel Cartesian parameter sweeps with ordered results
//   - [DominantFrequency]: strongest temporal frequency of a probe series
//   - [Lyapunov]: separation growth rate between a run and a perturbed twin
//
// # Stable band
//
// The documented operating point sits near β ≈ 0.03:
//
//	res, err := analysis.Sweep(ctx, analysis.SweepConfig{
//	    Base: experiment.DefaultConfig(),
//	    Axes: []optim.Axis{{Name: "beta", Values: []float64{0, 0.03, 1}}},
//	})
//	lo, hi, ok := res.StableBand("beta")
package analysis
