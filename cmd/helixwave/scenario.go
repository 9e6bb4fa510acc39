package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/helixwave/internal/analysis"
	"github.com/san-kum/helixwave/internal/automation"
	"github.com/san-kum/helixwave/internal/viz"
)

var (
	trials int
	seed   int64
	jitter float64
)

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	base, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("scenario %s: %d steps\n", sc.Name, len(sc.Steps))
	if sc.Description != "" {
		fmt.Println(viz.Subtle.Render(sc.Description))
	}
	results, runErr := automation.RunScenario(ctx, sc, base, func(i, total int, r automation.StepResult) {
		fmt.Fprintf(os.Stderr, "step %d/%d: %s %s\n", i, total, r.Name, r.Outcome)
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tRUN\tBETA\tDT\tOUTCOME\tMEAN|PSI|")
	for _, r := range results {
		meta, err := store.Save(r.Config, r.Stride, r.Result, r.Err)
		if err != nil {
			return fmt.Errorf("failed to save %s: %w", r.Name, err)
		}
		fmt.Fprintf(w, "%s\t%s\t%g\t%g\t%s\t%.4g\n", r.Name, shortID(meta.ID),
			r.Config.Params.Beta, r.Config.Params.Dt, r.Outcome, r.Stat)
	}
	w.Flush()
	return runErr
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := automation.RunMonteCarlo(ctx, &automation.MonteCarloConfig{
		Base:         cfg.Config,
		Perturbation: jitter,
		NumTrials:    trials,
		Seed:         seed,
		Thresholds:   cfg.Sweep.Thresholds,
	}, func(done, total int) {
		fmt.Fprintf(os.Stderr, "\r%s %d/%d", viz.ProgressBar(float64(done)/float64(total), 30), done, total)
		if done == total {
			fmt.Fprintln(os.Stderr)
		}
	})
	if err != nil && len(results) == 0 {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRIAL\tAMPLITUDE\tOUTCOME\tMEAN|PSI|\tSTEPS")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%.4g\t%s\t%.4g\t%d\n", r.TrialID, r.Amplitude,
			viz.OutcomeStyle(r.Outcome).Render(string(r.Outcome)), r.Stat, r.StepsCompleted)
	}
	w.Flush()

	stable, unstable := automation.MonteCarloStats(results)
	fmt.Printf("bounded %d, %s %d (%.0f%% bounded)\n", stable, analysis.Diverged, unstable,
		100*float64(stable)/float64(len(results)))
	return err
}
