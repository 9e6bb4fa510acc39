package automation

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/helixwave/internal/analysis"
	"github.com/san-kum/helixwave/internal/config"
	"github.com/san-kum/helixwave/internal/dynamo"
	"github.com/san-kum/helixwave/internal/experiment"
	"github.com/san-kum/helixwave/internal/forces"
	"github.com/san-kum/helixwave/internal/optim"
	"github.com/san-kum/helixwave/internal/physics"
	"github.com/san-kum/helixwave/internal/sim"
)

// Scenario defines a scripted sequence of runs
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one run of a scenario. It starts from the named preset, or
// from the scenario's base configuration, and applies Params (any sweep axis
// name) and the optional initial and source blocks on top.
type ScenarioStep struct {
	Name    string             `yaml:"name"`
	Preset  string             `yaml:"preset"`
	Params  map[string]float64 `yaml:"params"`
	Initial *physics.Initial   `yaml:"initial"`
	Source  *forces.SourceSpec `yaml:"source"`
}

// StepResult is the outcome of one scenario step. Err is only set for a
// divergence; any other run error aborts the scenario.
type StepResult struct {
	Name    string
	Config  experiment.Config
	Stride  int
	Result  *sim.Result
	Err     error
	Outcome analysis.Outcome
	Stat    float64
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("automation: parse %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("automation: scenario %q has no steps", scenario.Name)
	}
	return &scenario, nil
}

// StepConfig resolves the configuration a step runs with.
func StepConfig(base *config.Config, step ScenarioStep) (*config.Config, error) {
	cfg := base
	if step.Preset != "" {
		cfg = config.GetPreset(step.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %q", step.Preset)
		}
	}
	out := *cfg

	names := make([]string, 0, len(step.Params))
	for k := range step.Params {
		names = append(names, k)
	}
	sort.Strings(names)
	point := optim.Point{Names: names, Values: make([]float64, len(names))}
	for i, k := range names {
		point.Values[i] = step.Params[k]
	}
	ec, err := analysis.PointConfig(out.Config, point)
	if err != nil {
		return nil, err
	}
	out.Config = ec
	if step.Initial != nil {
		out.Initial = *step.Initial
	}
	if step.Source != nil {
		out.Source = *step.Source
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

// RunScenario executes all steps in order. Every step is resolved and
// validated before the first one runs. A diverged step is recorded and the
// scenario continues.
func RunScenario(ctx context.Context, scenario *Scenario, base *config.Config, progress func(i, total int, r StepResult)) ([]StepResult, error) {
	cfgs := make([]*config.Config, len(scenario.Steps))
	for i, step := range scenario.Steps {
		cfg, err := StepConfig(base, step)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		cfgs[i] = cfg
	}

	registry := experiment.NewRegistry()
	results := make([]StepResult, 0, len(scenario.Steps))
	for i, step := range scenario.Steps {
		cfg := cfgs[i]
		exp := experiment.New(cfg.Config)
		if err := exp.Setup(registry); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		result, err := exp.Run(ctx, cfg.RunOptions())
		if err != nil && !errors.Is(err, dynamo.ErrDiverged) {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step-%d", i+1)
		}
		r := StepResult{Name: name, Config: cfg.Config, Stride: cfg.Run.Stride, Result: result, Err: err}
		r.Outcome, r.Stat = analysis.Classify(result, err, cfg.Sweep.Thresholds)
		results = append(results, r)
		if progress != nil {
			progress(i+1, len(scenario.Steps), r)
		}
	}

	return results, nil
}

// MonteCarloConfig defines Monte Carlo simulation parameters
type MonteCarloConfig struct {
	Base experiment.Config
	// Perturbation is the relative jitter applied to the initial amplitude:
	// each trial scales it by a uniform factor in [1-p, 1+p].
	Perturbation float64
	NumTrials    int
	Seed         int64
	Thresholds   analysis.Thresholds
}

// MonteCarloResult holds the outcome of one perturbed trial
type MonteCarloResult struct {
	TrialID        int
	Amplitude      float64
	NoiseSeed      int64
	Outcome        analysis.Outcome
	Stat           float64
	StepsCompleted int
}

// RunMonteCarlo executes trials with randomly perturbed initial amplitudes.
// Random-noise initial fields also draw a fresh noise seed per trial.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, progress func(done, total int)) ([]MonteCarloResult, error) {
	if cfg.NumTrials < 1 {
		return nil, fmt.Errorf("%w: need at least one trial, got %d", dynamo.ErrInvalidParameter, cfg.NumTrials)
	}
	if !(cfg.Perturbation >= 0 && cfg.Perturbation < 1) {
		return nil, fmt.Errorf("%w: perturbation must be in [0, 1), got %g", dynamo.ErrInvalidParameter, cfg.Perturbation)
	}
	th := cfg.Thresholds
	if th == (analysis.Thresholds{}) {
		th = analysis.DefaultThresholds()
	}
	if err := th.Validate(); err != nil {
		return nil, err
	}
	base, err := cfg.Base.Initial.Resolve()
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	registry := experiment.NewRegistry()
	results := make([]MonteCarloResult, 0, cfg.NumTrials)
	for trial := 0; trial < cfg.NumTrials; trial++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		factor := 1 + (rng.Float64()*2-1)*cfg.Perturbation
		ic, amp, seed := perturb(base, factor, rng)

		expCfg := cfg.Base
		expCfg.Initial = ic
		exp := experiment.New(expCfg)
		if err := exp.Setup(registry); err != nil {
			return results, fmt.Errorf("trial %d setup: %w", trial, err)
		}
		result, err := exp.Run(ctx, experiment.RunOptions{SkipTrajectory: true})
		if err != nil && !errors.Is(err, dynamo.ErrDiverged) {
			return results, fmt.Errorf("trial %d run: %w", trial, err)
		}

		r := MonteCarloResult{TrialID: trial, Amplitude: amp, NoiseSeed: seed}
		r.Outcome, r.Stat = analysis.Classify(result, err, th)
		if result != nil {
			r.StepsCompleted = result.StepsCompleted
		}
		results = append(results, r)
		if progress != nil {
			progress(trial+1, cfg.NumTrials)
		}
	}

	return results, nil
}

// perturb scales the amplitude of the resolved variant and returns fresh
// copies so trials never share a variant block.
func perturb(ic physics.Initial, factor float64, rng *rand.Rand) (physics.Initial, float64, int64) {
	out := ic
	switch ic.Kind {
	case physics.GaussianPulse:
		g := *ic.Gaussian
		g.Amplitude *= factor
		out.Gaussian = &g
		return out, g.Amplitude, 0
	case physics.RandomNoise:
		n := *ic.Noise
		n.Amplitude *= factor
		n.Seed = rng.Int63()
		out.Noise = &n
		return out, n.Amplitude, n.Seed
	default:
		r := *ic.Ring
		r.Amplitude *= factor
		out.Ring = &r
		return out, r.Amplitude, 0
	}
}

// MonteCarloStats counts bounded (decayed or stable-pattern) and diverged trials.
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Outcome == analysis.Diverged {
			unstableCount++
		} else {
			stableCount++
		}
	}
	return
}
