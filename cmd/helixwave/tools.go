package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/helixwave/internal/analysis"
	"github.com/san-kum/helixwave/internal/config"
	"github.com/san-kum/helixwave/internal/experiment"
)

func showPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		cfg := config.GetPreset(args[0])
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
		}
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(cfg)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tGRID\tBETA\tALPHA\tDT\tSTEPS\tINITIAL\tSOURCE\tDESCRIPTION")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		p := cfg.Params
		src := string(cfg.Source.Kind)
		if src == "" {
			src = "none"
		}
		fmt.Fprintf(w, "%s\t%dx%d\t%g\t%g\t%g\t%d\t%s\t%s\t%s\n", name, cfg.Grid.NX, cfg.Grid.NY,
			p.Beta, p.Alpha, p.Dt, p.Steps, cfg.Initial.Kind, src, presetDescriptions[name])
	}
	return w.Flush()
}

func runLyapunov(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	lambda, err := analysis.Lyapunov(ctx, cfg.Config, perturbation)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "lyapunov exponent\t%.6g\n", lambda)
	fmt.Fprintf(w, "perturbation\t%g\n", perturbation)
	fmt.Fprintf(w, "steps\t%d\n", cfg.Params.Steps)
	fmt.Fprintf(w, "elapsed\t%v\n", time.Since(start).Round(time.Millisecond))
	w.Flush()
	if lambda > 0 {
		fmt.Println("nearby fields separate exponentially")
	} else {
		fmt.Println("nearby fields stay together")
	}
	return nil
}

func benchGrid(cmd *cobra.Command, args []string) error {
	const benchSteps = 100
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GRID\tSTEPS\tELAPSED\tSTEPS/S\tCELLS/S")
	for _, n := range []int{32, 64, 128} {
		cfg := experiment.DefaultConfig()
		cfg.Grid.NX, cfg.Grid.NY = n, n
		cfg.Params.Steps = benchSteps
		exp := experiment.New(cfg)
		if err := exp.Setup(experiment.NewRegistry()); err != nil {
			return err
		}
		start := time.Now()
		res, err := exp.Run(context.Background(), experiment.RunOptions{SkipTrajectory: true})
		if err != nil {
			return fmt.Errorf("bench %dx%d: %w", n, n, err)
		}
		elapsed := time.Since(start)
		rate := float64(res.StepsCompleted) / elapsed.Seconds()
		fmt.Fprintf(w, "%dx%d\t%d\t%v\t%.0f\t%.3g\n", n, n, res.StepsCompleted,
			elapsed.Round(time.Microsecond), rate, rate*float64(n*n))
	}
	return w.Flush()
}
