package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/helixwave/internal/export"
	"github.com/san-kum/helixwave/internal/viz"
)

// output returns --out, or stdout when it is unset.
func output() (io.WriteCloser, error) {
	if outFile == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(outFile)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func withOutput(write func(w io.Writer) error) error {
	w, err := output()
	if err != nil {
		return err
	}
	if err := write(w); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	if outFile != "" {
		fmt.Fprintf(os.Stderr, "written to %s\n", outFile)
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	id, _, err := resolveID(args[0])
	if err != nil {
		return err
	}
	store, _ := openStore()
	return withOutput(func(w io.Writer) error { return store.ExportCSV(w, id) })
}

func exportJSON(cmd *cobra.Command, args []string) error {
	id, _, err := resolveID(args[0])
	if err != nil {
		return err
	}
	store, _ := openStore()
	return withOutput(func(w io.Writer) error { return store.ExportJSON(w, id) })
}

func exportSVG(cmd *cobra.Command, args []string) error {
	g, snap, err := loadSnapshot(args[0])
	if err != nil {
		return err
	}
	var svg string
	switch view {
	case "heatmap":
		svg = export.FieldToSVG(snap.Field, 6, 0)
	case "slice":
		xs := make([]float64, g.NX())
		for i := range xs {
			xs[i] = g.X(i)
		}
		svg = export.SeriesToSVG(xs, viz.Slice(snap.Field), 800, 300, "#2266cc")
	case "surface":
		c := viz.NewCanvas(120, 48)
		viz.Render3D(c, viz.SurfaceWireframe(snap.Field, max(1, snap.Field.NX/32), 0), viz.NewCamera())
		svg = export.CanvasToSVG(c, 3)
	default:
		return fmt.Errorf("unknown view %q (heatmap, slice, surface)", view)
	}
	return withOutput(func(w io.Writer) error {
		_, err := io.WriteString(w, svg)
		return err
	})
}

func exportPNG(cmd *cobra.Command, args []string) error {
	id, isSweep, err := resolveID(args[0])
	if err != nil {
		return err
	}
	if outFile == "" {
		outFile = shortID(id) + ".png"
	}
	store, _ := openStore()
	if isSweep {
		rec, err := store.LoadSweep(id)
		if err != nil {
			return err
		}
		axis := plotAxis
		if axis == "" {
			axis = rec.Result.Axes[0]
		}
		return withOutput(func(w io.Writer) error { return export.SweepPNG(w, rec.Result, axis) })
	}
	series, times, err := store.LoadAmplitude(id)
	if err != nil {
		return err
	}
	return withOutput(func(w io.Writer) error {
		return export.AmplitudePNG(w, times, series, "mean|psi| "+shortID(id))
	})
}
