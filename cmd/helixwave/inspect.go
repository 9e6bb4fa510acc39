package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/helixwave/internal/analysis"
	"github.com/san-kum/helixwave/internal/grid"
	"github.com/san-kum/helixwave/internal/sim"
	"github.com/san-kum/helixwave/internal/viz"
)

func listRuns(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	runs, err := store.List()
	if err != nil {
		return err
	}
	sweeps, err := store.ListSweeps()
	if err != nil {
		return err
	}
	if len(runs) == 0 && len(sweeps) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if len(runs) > 0 {
		fmt.Fprintln(w, "RUN\tTIMESTAMP\tGRID\tBETA\tDT\tSTEPS\tSTATUS")
		for _, r := range runs {
			status := "ok"
			switch {
			case r.Diverged:
				status = fmt.Sprintf("diverged@%d", r.DivergedAt)
			case r.Cancelled:
				status = "cancelled"
			}
			p := r.Config.Params
			fmt.Fprintf(w, "%s\t%s\t%dx%d\t%g\t%g\t%d/%d\t%s\n",
				shortID(r.ID), r.Timestamp.Format("2006-01-02 15:04:05"), r.NX, r.NY,
				p.Beta, p.Dt, r.StepsCompleted, p.Steps, status)
		}
	}
	if len(sweeps) > 0 {
		if len(runs) > 0 {
			fmt.Fprintln(w, "\t\t\t\t\t\t")
		}
		fmt.Fprintln(w, "SWEEP\tTIMESTAMP\tAXES\tPOINTS\tSTABLE\tDIVERGED\t")
		for _, s := range sweeps {
			counts := s.Result.Counts()
			fmt.Fprintf(w, "%s\t%s\t%v\t%d/%d\t%d\t%d\t\n",
				shortID(s.ID), s.Timestamp.Format("2006-01-02 15:04:05"), s.Result.Axes,
				len(s.Result.Entries), s.Result.Total, counts[analysis.StablePattern], counts[analysis.Diverged])
		}
	}
	return w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// resolveID expands a unique prefix of a run or sweep ID.
func resolveID(prefix string) (id string, isSweep bool, err error) {
	store, err := openStore()
	if err != nil {
		return "", false, err
	}
	runs, err := store.List()
	if err != nil {
		return "", false, err
	}
	sweeps, err := store.ListSweeps()
	if err != nil {
		return "", false, err
	}
	var matches []string
	for _, r := range runs {
		if len(r.ID) >= len(prefix) && r.ID[:len(prefix)] == prefix {
			matches = append(matches, r.ID)
		}
	}
	nRuns := len(matches)
	for _, s := range sweeps {
		if len(s.ID) >= len(prefix) && s.ID[:len(prefix)] == prefix {
			matches = append(matches, s.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", false, fmt.Errorf("no run or sweep matches %q", prefix)
	case 1:
		return matches[0], nRuns == 0, nil
	}
	return "", false, fmt.Errorf("%q is ambiguous (%d matches)", prefix, len(matches))
}

func showRecord(cmd *cobra.Command, args []string) error {
	id, isSweep, err := resolveID(args[0])
	if err != nil {
		return err
	}
	store, _ := openStore()
	if isSweep {
		rec, err := store.LoadSweep(id)
		if err != nil {
			return err
		}
		fmt.Printf("sweep %s  %s\n", rec.ID, rec.Timestamp.Format("2006-01-02 15:04:05"))
		fmt.Println(viz.SweepTable(rec.Result))
		return nil
	}
	meta, err := store.Load(id)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func plotRun(cmd *cobra.Command, args []string) error {
	id, _, err := resolveID(args[0])
	if err != nil {
		return err
	}
	store, _ := openStore()
	series, _, err := store.LoadAmplitude(id)
	if err != nil {
		return err
	}
	if len(series) == 0 {
		return fmt.Errorf("run %s has no amplitude data", shortID(id))
	}
	fmt.Println(asciigraph.Plot(series, asciigraph.Height(15), asciigraph.Width(80), asciigraph.Caption("mean|psi| per step")))
	return nil
}

// loadSnapshot returns the run's grid and the snapshot at --step, or the last one.
func loadSnapshot(prefix string) (*grid.Grid, sim.Snapshot, error) {
	id, isSweep, err := resolveID(prefix)
	if err != nil {
		return nil, sim.Snapshot{}, err
	}
	if isSweep {
		return nil, sim.Snapshot{}, fmt.Errorf("%s is a sweep; sweeps keep no fields", shortID(id))
	}
	store, _ := openStore()
	meta, err := store.Load(id)
	if err != nil {
		return nil, sim.Snapshot{}, err
	}
	g, err := grid.New(meta.Config.Grid)
	if err != nil {
		return nil, sim.Snapshot{}, err
	}
	tr, err := store.LoadTrajectory(id)
	if err != nil {
		return nil, sim.Snapshot{}, err
	}
	var snap sim.Snapshot
	var ok bool
	if stepSel < 0 {
		snap, ok = tr.Last()
	} else {
		snap, ok = tr.Find(stepSel)
	}
	if !ok {
		return nil, sim.Snapshot{}, fmt.Errorf("step %d not recorded (recorded: %v)", stepSel, tr.Steps())
	}
	return g, snap, nil
}

func showFrame(cmd *cobra.Command, args []string) error {
	_, snap, err := loadSnapshot(args[0])
	if err != nil {
		return err
	}
	peak, _ := snap.Field.MaxAbs()
	fmt.Println(viz.Title.Render(fmt.Sprintf("step %d  t=%.3f  max|psi|=%.4g  mean|psi|=%.4g",
		snap.Step, snap.Time, peak, snap.Field.MeanAbs())))
	switch view {
	case "heatmap":
		fmt.Println(viz.Heatmap(snap.Field, 64, 32, peak))
	case "slice":
		fmt.Println(asciigraph.Plot(viz.Slice(snap.Field), asciigraph.Height(12), asciigraph.Width(80), asciigraph.Caption("psi along the middle row")))
	case "surface":
		c := viz.NewCanvas(64, 24)
		viz.Render3D(c, viz.SurfaceWireframe(snap.Field, max(1, snap.Field.NX/24), 0), viz.NewCamera())
		fmt.Println(c.String())
	default:
		return fmt.Errorf("unknown view %q (heatmap, slice, surface)", view)
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	id, isSweep, err := resolveID(args[0])
	if err != nil {
		return err
	}
	if isSweep {
		return fmt.Errorf("%s is a sweep; analyze takes a run", shortID(id))
	}
	store, _ := openStore()
	meta, err := store.Load(id)
	if err != nil {
		return err
	}
	tr, err := store.LoadTrajectory(id)
	if err != nil {
		return err
	}
	if tr.Len() < 4 {
		return fmt.Errorf("run %s recorded only %d snapshots; rerun with a smaller --stride", shortID(id), tr.Len())
	}
	i, j := probeI, probeJ
	if i < 0 {
		i = meta.NX / 2
	}
	if j < 0 {
		j = meta.NY / 2
	}
	if i >= meta.NX || j >= meta.NY {
		return fmt.Errorf("probe (%d,%d) outside %dx%d grid", i, j, meta.NX, meta.NY)
	}

	series := tr.Probe(i, j)
	steps := tr.Steps()
	sampleDT := float64(steps[1]-steps[0]) * meta.Config.Params.Dt
	freq, mag := analysis.DominantFrequency(series, sampleDT)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "probe\t(%d,%d)\n", i, j)
	fmt.Fprintf(w, "samples\t%d every %.4g\n", len(series), sampleDT)
	fmt.Fprintf(w, "dominant frequency\t%.5g\n", freq)
	fmt.Fprintf(w, "magnitude\t%.5g\n", mag)
	if freq > 0 {
		fmt.Fprintf(w, "period\t%.5g\n", 1/freq)
	}
	w.Flush()

	fmt.Println()
	fmt.Println(asciigraph.Plot(analysis.PowerSpectrum(series), asciigraph.Height(10), asciigraph.Width(70), asciigraph.Caption("|X_k|")))
	return nil
}
