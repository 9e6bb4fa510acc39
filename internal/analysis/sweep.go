package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"runtime"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/helixwave/internal/dynamo"
	"github.com/san-kum/helixwave/internal/experiment"
	"github.com/san-kum/helixwave/internal/optim"
)

// AxisN sets the grid resolution NX = NY; every other axis name is a
// dynamo.Parameters field.
const AxisN = "n"

// SweepAxes lists the names Sweep accepts.
func SweepAxes() []string {
	return []string{"beta", "dt", "alpha", "c", "gamma", "j", "m", AxisN, "steps"}
}

type SweepConfig struct {
	Base       experiment.Config
	Axes       []optim.Axis
	Thresholds Thresholds
	// Workers bounds concurrent runs; 0 uses GOMAXPROCS.
	Workers int
	// SkipInvalid records points that fail validation as Invalid instead of
	// rejecting the whole sweep.
	SkipInvalid bool
	// Progress, if set, is called after each completed run. Calls are serialized.
	Progress func(done, total int, e Entry)
}

// Entry is the outcome of one sweep point.
type Entry struct {
	Index          int                `json:"index"`
	Point          optim.Point        `json:"-"`
	Values         map[string]float64 `json:"values"`
	Params         dynamo.Parameters  `json:"params"`
	N              int                `json:"n"`
	Outcome        Outcome            `json:"outcome"`
	TerminalMean   float64            `json:"terminal_mean"`
	TerminalStd    float64            `json:"terminal_std"`
	Peak           float64            `json:"peak"`
	StepsCompleted int                `json:"steps_completed"`
	DivergedAt     int                `json:"diverged_at"`

	// TimeToDivergence is DivergedAt·dt, or -1.
	TimeToDivergence float64       `json:"time_to_divergence"`
	Elapsed          time.Duration `json:"elapsed"`
	Err              string        `json:"error,omitempty"`
}

// MarshalJSON writes the statistics as text when they are not finite (an
// invalid point has a NaN terminal mean, a run that diverged on its first
// step has +Inf), since JSON numbers cannot carry NaN or Inf.
func (e Entry) MarshalJSON() ([]byte, error) {
	type plain Entry
	return json.Marshal(struct {
		plain
		TerminalMean     json.RawMessage `json:"terminal_mean"`
		TerminalStd      json.RawMessage `json:"terminal_std"`
		Peak             json.RawMessage `json:"peak"`
		TimeToDivergence json.RawMessage `json:"time_to_divergence"`
	}{
		plain:            plain(e),
		TerminalMean:     jsonFloat(e.TerminalMean),
		TerminalStd:      jsonFloat(e.TerminalStd),
		Peak:             jsonFloat(e.Peak),
		TimeToDivergence: jsonFloat(e.TimeToDivergence),
	})
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	type plain Entry
	aux := struct {
		*plain
		TerminalMean     json.RawMessage `json:"terminal_mean"`
		TerminalStd      json.RawMessage `json:"terminal_std"`
		Peak             json.RawMessage `json:"peak"`
		TimeToDivergence json.RawMessage `json:"time_to_divergence"`
	}{plain: (*plain)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	for _, f := range []struct {
		raw json.RawMessage
		dst *float64
	}{
		{aux.TerminalMean, &e.TerminalMean},
		{aux.TerminalStd, &e.TerminalStd},
		{aux.Peak, &e.Peak},
		{aux.TimeToDivergence, &e.TimeToDivergence},
	} {
		v, err := parseJSONFloat(f.raw)
		if err != nil {
			return err
		}
		*f.dst = v
	}
	return nil
}

func jsonFloat(v float64) json.RawMessage {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		s = strconv.Quote(s)
	}
	return json.RawMessage(s)
}

func parseJSONFloat(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}
	s := string(raw)
	if raw[0] == '"' {
		var err error
		if s, err = strconv.Unquote(s); err != nil {
			return 0, err
		}
	}
	return strconv.ParseFloat(s, 64)
}

// SweepResult holds completed entries in Cartesian-product order.
type SweepResult struct {
	Axes       []string   `json:"axes"`
	Thresholds Thresholds `json:"thresholds"`
	Total      int        `json:"total"`
	Entries    []Entry    `json:"entries"`
	Cancelled  bool       `json:"cancelled"`
}

// PointConfig applies one sweep point on top of base.
func PointConfig(base experiment.Config, p optim.Point) (experiment.Config, error) {
	cfg := base
	for i, name := range p.Names {
		v := p.Values[i]
		if name == AxisN {
			if v != math.Trunc(v) || v < 0 || v > math.MaxInt32 {
				return cfg, fmt.Errorf("%w: n must be a non-negative integer, got %g", dynamo.ErrInvalidGrid, v)
			}
			cfg.Grid.NX, cfg.Grid.NY = int(v), int(v)
			continue
		}
		if name == "ceiling" {
			return cfg, fmt.Errorf("%w: %q is not a sweep axis", dynamo.ErrInvalidParameter, name)
		}
		if err := cfg.Params.Set(name, v); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// Sweep runs one independent simulation per point of the Cartesian product
// of cfg.Axes. Each run builds its own grid and fields.
//
// Every point is validated before the first run starts. On cancellation no
// new runs are started, runs already in flight finish, and the completed
// entries are returned together with ctx.Err().
func Sweep(ctx context.Context, cfg SweepConfig) (*SweepResult, error) {
	th := cfg.Thresholds
	if th == (Thresholds{}) {
		th = DefaultThresholds()
	}
	if err := th.Validate(); err != nil {
		return nil, err
	}
	for _, a := range cfg.Axes {
		if !knownAxis(a.Name) {
			return nil, fmt.Errorf("%w: unknown sweep axis %q (want one of %v)", dynamo.ErrInvalidParameter, a.Name, SweepAxes())
		}
	}
	pgrid, err := optim.NewGrid(cfg.Axes...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dynamo.ErrInvalidParameter, err)
	}

	points := pgrid.Points()
	registry := experiment.NewRegistry()
	configs := make([]experiment.Config, len(points))
	entries := make([]Entry, len(points))
	invalid := make([]bool, len(points))

	for i, p := range points {
		entries[i] = Entry{Index: i, Point: p, Values: p.Map(), DivergedAt: -1, TimeToDivergence: -1}
		pc, err := PointConfig(cfg.Base, p)
		if err == nil {
			err = registry.Validate(pc)
		}
		if err != nil {
			if !cfg.SkipInvalid {
				return nil, fmt.Errorf("analysis: sweep point %d (%s): %w", i, p, err)
			}
			invalid[i] = true
			entries[i].Outcome = Invalid
			entries[i].Err = err.Error()
			entries[i].TerminalMean = math.NaN()
		}
		configs[i] = pc
		entries[i].Params = pc.Params
		entries[i].N = pc.Grid.NX
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	done := make([]bool, len(points))
	var (
		mu       sync.Mutex
		finished int
	)
	report := func(i int) {
		mu.Lock()
		defer mu.Unlock()
		done[i] = true
		finished++
		if cfg.Progress != nil {
			cfg.Progress(finished, len(points), entries[i])
		}
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i := range points {
		if egCtx.Err() != nil {
			break
		}
		if invalid[i] {
			report(i)
			continue
		}
		i := i
		eg.Go(func() error {
			// Go may block until a worker frees up; do not start once cancelled.
			if egCtx.Err() != nil {
				return nil
			}
			// In-flight runs are not interrupted so their entries stay whole.
			if err := runPoint(context.WithoutCancel(egCtx), registry, configs[i], th, &entries[i]); err != nil {
				return fmt.Errorf("analysis: sweep point %d (%s): %w", i, points[i], err)
			}
			report(i)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	res := &SweepResult{Axes: pgrid.Names(), Thresholds: th, Total: len(points)}
	for i := range entries {
		if done[i] {
			res.Entries = append(res.Entries, entries[i])
		}
	}
	if err := ctx.Err(); err != nil {
		res.Cancelled = true
		return res, err
	}
	return res, nil
}

func runPoint(ctx context.Context, registry *experiment.Registry, cfg experiment.Config, th Thresholds, e *Entry) error {
	exp := experiment.New(cfg)
	if err := exp.Setup(registry); err != nil {
		return err
	}
	result, runErr := exp.Run(ctx, experiment.RunOptions{SkipTrajectory: true})
	if runErr != nil && !errors.Is(runErr, dynamo.ErrDiverged) {
		return runErr
	}

	e.Outcome, e.TerminalMean = Classify(result, runErr, th)
	if de, ok := dynamo.AsDivergence(runErr); ok {
		e.DivergedAt = de.Step
		e.TimeToDivergence = float64(de.Step) * cfg.Params.Dt
		e.Err = de.Error()
	}
	if result != nil {
		e.Peak = result.Peak
		e.StepsCompleted = result.StepsCompleted
		e.Elapsed = result.Elapsed
		e.TerminalStd = terminalStd(result.Amplitude, th.Window)
	}
	return nil
}

func terminalStd(series []float64, window float64) float64 {
	if len(series) > 1 {
		series = series[1:]
	}
	n := int(math.Ceil(window * float64(len(series))))
	if n < 2 || n > len(series) {
		return 0
	}
	return stat.StdDev(series[len(series)-n:], nil)
}

func knownAxis(name string) bool {
	for _, a := range SweepAxes() {
		if a == name {
			return true
		}
	}
	return false
}

// Find returns the entry whose point has exactly the given values, in axis order.
func (r *SweepResult) Find(values ...float64) (Entry, bool) {
	for _, e := range r.Entries {
		if len(e.Point.Values) != len(values) {
			continue
		}
		match := true
		for i, v := range values {
			if e.Point.Values[i] != v {
				match = false
				break
			}
		}
		if match {
			return e, true
		}
	}
	return Entry{}, false
}

// StableBand returns the smallest and largest values of axis among
// stable-pattern entries.
func (r *SweepResult) StableBand(axis string) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, e := range r.Entries {
		if e.Outcome != StablePattern {
			continue
		}
		v, has := e.Point.Get(axis)
		if !has {
			continue
		}
		lo, hi, ok = math.Min(lo, v), math.Max(hi, v), true
	}
	if !ok {
		return 0, 0, false
	}
	return lo, hi, true
}

// Counts tallies entries per outcome.
func (r *SweepResult) Counts() map[Outcome]int {
	out := make(map[Outcome]int)
	for _, e := range r.Entries {
		out[e.Outcome]++
	}
	return out
}
