package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/helixwave/internal/analysis"
	"github.com/san-kum/helixwave/internal/config"
	"github.com/san-kum/helixwave/internal/dynamo"
	"github.com/san-kum/helixwave/internal/forces"
	"github.com/san-kum/helixwave/internal/grid"
	"github.com/san-kum/helixwave/internal/optim"
	"github.com/san-kum/helixwave/internal/physics"
)

var (
	dataDir    string
	configFile string
	preset     string

	// Grid
	gridN    int
	boundary string
	stencil  string

	// Parameters
	c         float64
	alpha     float64
	beta      float64
	m         int
	gamma     float64
	j         float64
	dt        float64
	steps     int
	ceiling   float64
	bootstrap string

	// Initial condition and source
	initialKind string
	amplitude   float64
	velScale    float64
	sourceKind  string
	sourceAmp   float64
	sourceFreq  float64

	stride int

	// Sweep
	axisSpecs   []string
	workers     int
	skipInvalid bool
	decay       float64
	divergence  float64
	window      float64
	pngOut      string
	plotAxis    string

	// Inspection and export
	stepSel      int
	view         string
	probeI       int
	probeJ       int
	perturbation float64
	outFile      string
	pick         bool
	replayID     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "helixwave",
		Short: "damped, driven, nonlinear 2D wave integrator and stability explorer",
		RunE: func(cmd *cobra.Command, args []string) error {
			pick = true
			return runLive(cmd, args)
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultOutputDir, "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run one simulation and store its trajectory",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "classify runs over a Cartesian product of parameter values",
		Long: "Axes are given as name=v1,v2,... or name=start:stop:step. Names: " +
			fmt.Sprint(analysis.SweepAxes()),
		Args: cobra.NoArgs,
		RunE: runSweep,
	}
	addConfigFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&axisSpecs, "axis", nil, "sweep axis, repeatable (e.g. beta=0,0.03,1)")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "parallel runs (0 = GOMAXPROCS)")
	sweepCmd.Flags().BoolVar(&skipInvalid, "skip-invalid", false, "record invalid points instead of failing")
	sweepCmd.Flags().Float64Var(&decay, "decay", analysis.DefaultThresholds().Decay, "decayed below this terminal mean|psi|")
	sweepCmd.Flags().Float64Var(&divergence, "divergence", analysis.DefaultThresholds().Divergence, "diverged above this terminal mean|psi|")
	sweepCmd.Flags().Float64Var(&window, "window", analysis.DefaultThresholds().Window, "terminal window fraction")
	sweepCmd.Flags().StringVar(&pngOut, "png", "", "write a chart of the terminal mean to this PNG")
	sweepCmd.Flags().StringVar(&plotAxis, "plot-axis", "", "axis for --png (default: first axis)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs and sweeps",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [id]",
		Short: "print run metadata or a sweep table",
		Args:  cobra.ExactArgs(1),
		RunE:  showRecord,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the mean|psi| series of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	frameCmd := &cobra.Command{
		Use:   "frame [run_id]",
		Short: "draw one recorded snapshot",
		Args:  cobra.ExactArgs(1),
		RunE:  showFrame,
	}
	frameCmd.Flags().IntVar(&stepSel, "step", -1, "recorded step (default: last)")
	frameCmd.Flags().StringVar(&view, "view", "heatmap", "heatmap, slice or surface")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "watch a simulation as it runs",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)
	liveCmd.Flags().BoolVar(&pick, "pick", false, "choose a preset from a menu")
	liveCmd.Flags().StringVar(&replayID, "replay", "", "replay a stored run instead of simulating")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "dominant temporal frequency of a probe cell",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().IntVar(&probeI, "i", -1, "probe column (default: grid center)")
	analyzeCmd.Flags().IntVar(&probeJ, "j", -1, "probe row (default: grid center)")

	lyapunovCmd := &cobra.Command{
		Use:   "lyapunov",
		Short: "estimate the separation growth rate of nearby fields",
		Args:  cobra.NoArgs,
		RunE:  runLyapunov,
	}
	addConfigFlags(lyapunovCmd)
	lyapunovCmd.Flags().Float64Var(&perturbation, "perturbation", 1e-6, "initial separation at the center cell")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export a trajectory as long-form CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export a snapshot as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().IntVar(&stepSel, "step", -1, "recorded step (default: last)")
	exportSVGCmd.Flags().StringVar(&view, "view", "heatmap", "heatmap, slice or surface")
	exportPNGCmd := &cobra.Command{
		Use:   "export-png [id]",
		Short: "chart a run's mean|psi| series or a sweep's terminal mean",
		Args:  cobra.ExactArgs(1),
		RunE:  exportPNG,
	}
	exportPNGCmd.Flags().StringVar(&plotAxis, "axis", "", "sweep axis to chart (default: first axis)")
	for _, cmd := range []*cobra.Command{exportCSVCmd, exportJSONCmd, exportSVGCmd, exportPNGCmd} {
		cmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default: stdout, or <id>.png)")
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [name]",
		Short: "list presets, or print one as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showPresets,
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted sequence of simulations from YAML",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	addConfigFlags(scenarioCmd)

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "classify runs with randomly perturbed initial amplitudes",
		Args:  cobra.NoArgs,
		RunE:  runMonteCarlo,
	}
	addConfigFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", 1, "random seed (0 = time based)")
	monteCarloCmd.Flags().Float64Var(&jitter, "perturbation", 0.2, "relative amplitude jitter in [0, 1)")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "measure step throughput across grid sizes",
		Args:  cobra.NoArgs,
		RunE:  benchGrid,
	}

	rootCmd.AddCommand(runCmd, sweepCmd, listCmd, showCmd, plotCmd, frameCmd, liveCmd, analyzeCmd,
		lyapunovCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd, exportPNGCmd, presetsCmd,
		scenarioCmd, monteCarloCmd, benchCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	d := dynamo.DefaultParameters()
	g := grid.DefaultSpec()
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")

	f.IntVar(&gridN, "n", g.NX, "grid points per side")
	f.StringVar(&boundary, "boundary", string(g.Boundary), "reflective, periodic or fixed")
	f.StringVar(&stencil, "stencil", string(g.Stencil), "5-point or 9-point")

	f.Float64Var(&c, "c", d.C, "wave speed")
	f.Float64Var(&alpha, "alpha", d.Alpha, "linear damping")
	f.Float64Var(&beta, "beta", d.Beta, "nonlinear and azimuthal coefficient")
	f.IntVar(&m, "m", d.M, "azimuthal mode number")
	f.Float64Var(&gamma, "gamma", d.Gamma, "HQG coupling (0 disables)")
	f.Float64Var(&j, "j", d.J, "HQG current")
	f.Float64Var(&dt, "dt", d.Dt, "timestep")
	f.IntVar(&steps, "steps", d.Steps, "number of steps")
	f.Float64Var(&ceiling, "ceiling", d.Ceiling, "|psi| above which a step counts as diverged")
	f.StringVar(&bootstrap, "bootstrap", string(d.Bootstrap), "zero-velocity or taylor")

	f.StringVar(&initialKind, "initial", "", "gaussian-pulse, random-noise or ring-pattern")
	f.Float64Var(&amplitude, "amplitude", 0, "initial amplitude (0 keeps the variant default)")
	f.Float64Var(&velScale, "velocity-scale", 0, "initial velocity as a multiple of psi0 (taylor bootstrap)")
	f.StringVar(&sourceKind, "source", "", "none, point, distributed or pulsed")
	f.Float64Var(&sourceAmp, "source-amplitude", 1, "source amplitude")
	f.Float64Var(&sourceFreq, "source-frequency", 0, "source carrier frequency")

	f.IntVar(&stride, "stride", config.DefaultStride, "record every stride-th step")
}

// buildConfig layers preset, then config file, then explicitly set flags.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	fl := cmd.Flags()
	if fl.Changed("n") {
		cfg.Grid.NX, cfg.Grid.NY = gridN, gridN
	}
	if fl.Changed("boundary") {
		cfg.Grid.Boundary = grid.Boundary(boundary)
	}
	if fl.Changed("stencil") {
		cfg.Grid.Stencil = grid.Stencil(stencil)
	}
	if fl.Changed("c") {
		cfg.Params.C = c
	}
	if fl.Changed("alpha") {
		cfg.Params.Alpha = alpha
	}
	if fl.Changed("beta") {
		cfg.Params.Beta = beta
	}
	if fl.Changed("m") {
		cfg.Params.M = m
	}
	if fl.Changed("gamma") {
		cfg.Params.Gamma = gamma
	}
	if fl.Changed("j") {
		cfg.Params.J = j
	}
	if fl.Changed("dt") {
		cfg.Params.Dt = dt
	}
	if fl.Changed("steps") {
		cfg.Params.Steps = steps
	}
	if fl.Changed("ceiling") {
		cfg.Params.Ceiling = ceiling
	}
	if fl.Changed("bootstrap") {
		b, err := dynamo.ParseBootstrap(bootstrap)
		if err != nil {
			return nil, err
		}
		cfg.Params.Bootstrap = b
	}
	if fl.Changed("initial") {
		cfg.Initial = physics.Initial{Kind: physics.InitialKind(initialKind)}
	}
	if fl.Changed("amplitude") || fl.Changed("velocity-scale") {
		ic, err := cfg.Initial.Resolve()
		if err != nil {
			return nil, err
		}
		if fl.Changed("amplitude") {
			switch ic.Kind {
			case physics.GaussianPulse:
				ic.Gaussian.Amplitude = amplitude
			case physics.RandomNoise:
				ic.Noise.Amplitude = amplitude
			case physics.RingPattern:
				ic.Ring.Amplitude = amplitude
			}
		}
		if fl.Changed("velocity-scale") {
			ic.VelocityScale = velScale
		}
		cfg.Initial = ic
	}
	if fl.Changed("source") {
		cfg.Source = forces.SourceSpec{Kind: forces.SourceKind(sourceKind), Amplitude: sourceAmp, Frequency: sourceFreq}
		if cfg.Source.Kind == forces.SourceDistributed || cfg.Source.Kind == forces.SourcePulsed {
			cfg.Source.Width, cfg.Source.Duration = 1, 1
		}
	} else {
		if fl.Changed("source-amplitude") {
			cfg.Source.Amplitude = sourceAmp
		}
		if fl.Changed("source-frequency") {
			cfg.Source.Frequency = sourceFreq
		}
	}
	if fl.Changed("stride") {
		cfg.Run.Stride = stride
	}
	if fl.Changed("data") {
		cfg.Run.OutputDir = dataDir
	} else if cfg.Run.OutputDir != "" {
		dataDir = cfg.Run.OutputDir
	}

	if fl.Lookup("axis") != nil {
		if len(axisSpecs) > 0 {
			axes := make([]optim.Axis, 0, len(axisSpecs))
			for _, s := range axisSpecs {
				a, err := optim.ParseAxis(s)
				if err != nil {
					return nil, err
				}
				axes = append(axes, a)
			}
			cfg.Sweep.Axes = axes
		}
		if fl.Changed("workers") {
			cfg.Sweep.Workers = workers
		}
		if fl.Changed("skip-invalid") {
			cfg.Sweep.SkipInvalid = skipInvalid
		}
		if fl.Changed("decay") {
			cfg.Sweep.Thresholds.Decay = decay
		}
		if fl.Changed("divergence") {
			cfg.Sweep.Thresholds.Divergence = divergence
		}
		if fl.Changed("window") {
			cfg.Sweep.Thresholds.Window = window
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
