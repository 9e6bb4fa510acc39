package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/helixwave/internal/analysis"
	"github.com/san-kum/helixwave/internal/dynamo"
	"github.com/san-kum/helixwave/internal/experiment"
	"github.com/san-kum/helixwave/internal/export"
	"github.com/san-kum/helixwave/internal/storage"
	"github.com/san-kum/helixwave/internal/viz"
)

func openStore() (*storage.Store, error) {
	store := storage.New(dataDir)
	if err := store.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return store, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore()
	if err != nil {
		return err
	}

	exp := experiment.New(cfg.Config)
	registry := experiment.NewRegistry()
	if err := exp.Setup(registry); err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}
	th := cfg.Sweep.Thresholds
	exp.AddMetrics(registry.DefaultMetrics(exp.Model(), th.Window, th.Divergence)...)

	rec, err := store.Begin()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p := cfg.Params
	fmt.Printf("running %dx%d grid, %s\n", cfg.Grid.NX, cfg.Grid.NY, p)
	opts := cfg.RunOptions()
	opts.Sink = rec
	opts.SkipTrajectory = true
	result, runErr := exp.Run(ctx, opts)

	meta, err := rec.Finish(cfg.Config, cfg.Run.Stride, result, runErr)
	if err != nil {
		return fmt.Errorf("failed to save: %w", err)
	}
	if runErr != nil && !errors.Is(runErr, dynamo.ErrDiverged) && !meta.Cancelled {
		return runErr
	}

	outcome, stat := analysis.Classify(result, runErr, th)
	fmt.Printf("run %s\n", meta.ID)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "outcome\t%s\n", viz.OutcomeStyle(outcome).Render(string(outcome)))
	fmt.Fprintf(w, "terminal mean|psi|\t%.6g\n", stat)
	fmt.Fprintf(w, "steps\t%d/%d\n", meta.StepsCompleted, p.Steps)
	fmt.Fprintf(w, "snapshots\t%d\n", meta.Snapshots)
	fmt.Fprintf(w, "peak |psi|\t%.6g\n", meta.Peak)
	fmt.Fprintf(w, "energy drift\t%.4g\n", meta.EnergyDrift)
	fmt.Fprintf(w, "elapsed\t%.1fms\n", meta.ElapsedMS)
	if de, ok := dynamo.AsDivergence(runErr); ok {
		fmt.Fprintf(w, "diverged\tstep %d at (%d,%d) x=%.3g y=%.3g psi=%g\n", de.Step, de.I, de.J, de.X, de.Y, de.Value)
	}
	if meta.Cancelled {
		fmt.Fprintf(w, "cancelled\tafter %d steps\n", meta.StepsCompleted)
	}
	w.Flush()

	if result != nil && len(result.Amplitude) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(result.Amplitude, asciigraph.Height(8), asciigraph.Width(70), asciigraph.Caption("mean|psi|")))
	}
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if len(cfg.Sweep.Axes) == 0 {
		return fmt.Errorf("no sweep axes: pass --axis name=values or set sweep.axes in the config")
	}
	store, err := openStore()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	spec := cfg.SweepSpec()
	spec.Progress = func(done, total int, e analysis.Entry) {
		fmt.Fprintf(os.Stderr, "\r%s %d/%d", viz.ProgressBar(float64(done)/float64(total), 30), done, total)
		if done == total {
			fmt.Fprintln(os.Stderr)
		}
	}
	res, err := analysis.Sweep(ctx, spec)
	if res == nil {
		return err
	}
	if res.Cancelled {
		fmt.Fprintf(os.Stderr, "\ncancelled after %d of %d points\n", len(res.Entries), res.Total)
	}

	fmt.Println(viz.SweepTable(res))
	counts := res.Counts()
	parts := make([]string, 0, 4)
	for _, o := range []analysis.Outcome{analysis.Decayed, analysis.StablePattern, analysis.Diverged, analysis.Invalid} {
		if counts[o] > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", o, counts[o]))
		}
	}
	fmt.Println(strings.Join(parts, "  "))
	for _, a := range res.Axes {
		if lo, hi, ok := res.StableBand(a); ok {
			fmt.Printf("stable band %s: [%g, %g]\n", a, lo, hi)
		}
	}

	id, saveErr := store.SaveSweep(cfg.Config, res)
	if saveErr != nil {
		return fmt.Errorf("failed to save sweep: %w", saveErr)
	}
	fmt.Printf("sweep %s\n", id)

	if pngOut != "" {
		axis := plotAxis
		if axis == "" {
			axis = res.Axes[0]
		}
		if perr := writeFile(pngOut, func(f *os.File) error { return export.SweepPNG(f, res, axis) }); perr != nil {
			return perr
		}
		fmt.Printf("chart written to %s\n", pngOut)
	}
	return nil
}

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
