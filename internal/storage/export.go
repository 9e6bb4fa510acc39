package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/san-kum/helixwave/internal/grid"
	"github.com/san-kum/helixwave/internal/sim"
)

type ExportSnapshot struct {
	Step int       `json:"step"`
	Time float64   `json:"time"`
	Psi  []float64 `json:"psi"`
}

// ExportData is the self-contained JSON form of one run.
type ExportData struct {
	Metadata  *RunMetadata     `json:"metadata"`
	Times     []float64        `json:"times"`
	Amplitude []float64        `json:"amplitude"`
	Snapshots []ExportSnapshot `json:"snapshots"`
}

// ExportJSON writes the run's metadata, amplitude series and snapshots.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	tr, err := s.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	amp, times, err := s.LoadAmplitude(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		Metadata:  meta,
		Times:     times,
		Amplitude: amp,
		Snapshots: make([]ExportSnapshot, len(tr.Snapshots)),
	}
	for i, snap := range tr.Snapshots {
		data.Snapshots[i] = ExportSnapshot{Step: snap.Step, Time: snap.Time, Psi: snap.Field.Data}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportCSV writes the trajectory in long form, one row per cell per
// snapshot: step, time, i, j, x, y, psi.
func (s *Store) ExportCSV(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	g, err := grid.New(meta.Config.Grid)
	if err != nil {
		return err
	}
	tr, err := s.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	return WriteLongCSV(w, g, tr)
}

func WriteLongCSV(w io.Writer, g *grid.Grid, tr *sim.Trajectory) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"step", "time", "i", "j", "x", "y", "psi"}); err != nil {
		return err
	}
	for _, snap := range tr.Snapshots {
		step, t := strconv.Itoa(snap.Step), formatFloat(snap.Time)
		for k, v := range snap.Field.Data {
			i, j, x, y := g.Position(k)
			row := []string{step, t, strconv.Itoa(i), strconv.Itoa(j), formatFloat(x), formatFloat(y), formatFloat(v)}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
