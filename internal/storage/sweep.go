package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/helixwave/internal/analysis"
	"github.com/san-kum/helixwave/internal/experiment"
	"github.com/san-kum/helixwave/internal/optim"
)

const (
	sweepJSON = "sweep.json"
	sweepCSV  = "sweep.csv"
)

// SweepRecord is what sweep.json holds.
type SweepRecord struct {
	ID        string                `json:"id"`
	Timestamp time.Time             `json:"timestamp"`
	Base      experiment.Config     `json:"base"`
	Result    *analysis.SweepResult `json:"result"`
}

// SaveSweep writes sweep.json and a flat sweep.csv with one row per entry.
func (s *Store) SaveSweep(base experiment.Config, res *analysis.SweepResult) (string, error) {
	id := uuid.New().String()
	dir := filepath.Join(s.baseDir, sweepsDir, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	rec := SweepRecord{ID: id, Timestamp: time.Now(), Base: base, Result: res}
	if err := writeJSON(filepath.Join(dir, sweepJSON), rec); err != nil {
		os.RemoveAll(dir)
		return "", err
	}
	if err := writeSweepCSV(filepath.Join(dir, sweepCSV), res); err != nil {
		os.RemoveAll(dir)
		return "", err
	}
	return id, nil
}

// LoadSweep reads sweep.json back and restores each entry's Point.
func (s *Store) LoadSweep(id string) (*SweepRecord, error) {
	var rec SweepRecord
	if err := readJSON(filepath.Join(s.baseDir, sweepsDir, id, sweepJSON), &rec); err != nil {
		return nil, err
	}
	if rec.Result == nil {
		rec.Result = &analysis.SweepResult{}
	}
	for i := range rec.Result.Entries {
		e := &rec.Result.Entries[i]
		p := optim.Point{Names: rec.Result.Axes, Values: make([]float64, len(rec.Result.Axes))}
		for k, name := range rec.Result.Axes {
			p.Values[k] = e.Values[name]
		}
		e.Point = p
	}
	return &rec, nil
}

// ListSweeps returns stored sweeps, newest first.
func (s *Store) ListSweeps() ([]SweepRecord, error) {
	entries, err := os.ReadDir(filepath.Join(s.baseDir, sweepsDir))
	if err != nil {
		if os.IsNotExist(err) {
			return []SweepRecord{}, nil
		}
		return nil, err
	}
	out := make([]SweepRecord, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		rec, err := s.LoadSweep(entry.Name())
		if err != nil {
			continue
		}
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func writeSweepCSV(path string, res *analysis.SweepResult) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	header := []string{"index"}
	header = append(header, res.Axes...)
	header = append(header, "n", "outcome", "terminal_mean", "terminal_std", "peak",
		"steps_completed", "diverged_at", "time_to_divergence", "error")
	if err := w.Write(header); err != nil {
		return err
	}
	for _, e := range res.Entries {
		row := []string{strconv.Itoa(e.Index)}
		for _, name := range res.Axes {
			row = append(row, formatFloat(e.Values[name]))
		}
		row = append(row,
			strconv.Itoa(e.N),
			string(e.Outcome),
			formatFloat(e.TerminalMean),
			formatFloat(e.TerminalStd),
			formatFloat(e.Peak),
			strconv.Itoa(e.StepsCompleted),
			strconv.Itoa(e.DivergedAt),
			formatFloat(e.TimeToDivergence),
			e.Err,
		)
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return file.Close()
}
