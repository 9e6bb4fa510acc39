package storage

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/helixwave/internal/dynamo"
	"github.com/san-kum/helixwave/internal/experiment"
	"github.com/san-kum/helixwave/internal/sim"
)

const (
	metadataFile   = "metadata.json"
	trajectoryFile = "trajectory.csv"
	amplitudeFile  = "amplitude.csv"
	sweepsDir      = "sweeps"
)

// Store keeps one directory per run under baseDir and one per sweep under
// baseDir/sweeps.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

// DivergenceInfo is the JSON form of a dynamo.DivergenceError. Value is kept
// as text because it may be NaN or Inf.
type DivergenceInfo struct {
	Step  int     `json:"step"`
	I     int     `json:"i"`
	J     int     `json:"j"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Value string  `json:"value"`
}

type RunMetadata struct {
	ID             string             `json:"id"`
	Timestamp      time.Time          `json:"timestamp"`
	Config         experiment.Config  `json:"config"`
	NX             int                `json:"nx"`
	NY             int                `json:"ny"`
	Stride         int                `json:"stride"`
	Snapshots      int                `json:"snapshots"`
	StepsCompleted int                `json:"steps_completed"`
	Diverged       bool               `json:"diverged"`
	DivergedAt     int                `json:"diverged_at"`
	Divergence     *DivergenceInfo    `json:"divergence,omitempty"`
	Cancelled      bool               `json:"cancelled,omitempty"`
	Peak           float64            `json:"peak"`
	EnergyDrift    float64            `json:"energy_drift"`
	Metrics        map[string]float64 `json:"metrics"`
	ElapsedMS      float64            `json:"elapsed_ms"`
}

// Recorder streams recorded snapshots of one run into trajectory.csv. It
// implements sim.Sink.
type Recorder struct {
	store  *Store
	id     string
	dir    string
	file   *os.File
	w      *csv.Writer
	header bool
	count  int
}

// Begin creates a fresh run directory and opens its trajectory file.
func (s *Store) Begin() (*Recorder, error) {
	id := uuid.New().String()
	dir := filepath.Join(s.baseDir, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	f, err := os.Create(filepath.Join(dir, trajectoryFile))
	if err != nil {
		return nil, err
	}
	return &Recorder{store: s, id: id, dir: dir, file: f, w: csv.NewWriter(f)}, nil
}

func (r *Recorder) ID() string { return r.id }

// Write appends one row: step, time, then ψ in row-major order.
func (r *Recorder) Write(snap sim.Snapshot) error {
	if !r.header {
		header := make([]string, 0, snap.Field.Len()+2)
		header = append(header, "step", "time")
		for k := 0; k < snap.Field.Len(); k++ {
			header = append(header, fmt.Sprintf("p%d", k))
		}
		if err := r.w.Write(header); err != nil {
			return err
		}
		r.header = true
	}
	row := make([]string, 0, snap.Field.Len()+2)
	row = append(row, strconv.Itoa(snap.Step), formatFloat(snap.Time))
	for _, v := range snap.Field.Data {
		row = append(row, formatFloat(v))
	}
	r.count++
	return r.w.Write(row)
}

func (r *Recorder) Flush() error {
	r.w.Flush()
	return r.w.Error()
}

// Finish writes metadata.json and amplitude.csv and closes the trajectory.
// runErr is the error Run returned, if any; divergence and cancellation are
// recorded, not treated as failures.
func (r *Recorder) Finish(cfg experiment.Config, stride int, res *sim.Result, runErr error) (*RunMetadata, error) {
	if err := r.Flush(); err != nil {
		r.file.Close()
		return nil, err
	}
	if err := r.file.Close(); err != nil {
		return nil, err
	}

	meta := &RunMetadata{
		ID:         r.id,
		Timestamp:  time.Now(),
		Config:     cfg,
		NX:         cfg.Grid.NX,
		NY:         cfg.Grid.NY,
		Stride:     stride,
		Snapshots:  r.count,
		DivergedAt: -1,
		Metrics:    map[string]float64{},
		Cancelled:  errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded),
	}
	if res != nil {
		meta.StepsCompleted = res.StepsCompleted
		meta.Diverged = res.Diverged
		meta.DivergedAt = res.DivergedAt
		meta.Peak = res.Peak
		meta.EnergyDrift = finiteOrZero(res.EnergyDrift)
		meta.ElapsedMS = float64(res.Elapsed.Microseconds()) / 1000
		for k, v := range res.Metrics {
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				meta.Metrics[k] = v
			}
		}
		if de := res.Divergence; de != nil {
			meta.Divergence = &DivergenceInfo{
				Step: de.Step, I: de.I, J: de.J, X: de.X, Y: de.Y,
				Value: formatFloat(de.Value),
			}
		}
	}

	if err := writeJSON(filepath.Join(r.dir, metadataFile), meta); err != nil {
		return nil, err
	}
	if res != nil {
		if err := writeAmplitude(filepath.Join(r.dir, amplitudeFile), res); err != nil {
			return nil, err
		}
	}
	return meta, nil
}

// Save stores a finished result whose trajectory was kept in memory.
func (s *Store) Save(cfg experiment.Config, stride int, res *sim.Result, runErr error) (*RunMetadata, error) {
	rec, err := s.Begin()
	if err != nil {
		return nil, err
	}
	for _, snap := range res.Trajectory.Snapshots {
		if err := rec.Write(snap); err != nil {
			rec.file.Close()
			return nil, err
		}
	}
	return rec.Finish(cfg, stride, res, runErr)
}

// List returns stored runs, newest first. Directories without readable
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == sweepsDir {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	var meta RunMetadata
	if err := readJSON(filepath.Join(s.baseDir, runID, metadataFile), &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadTrajectory reads the recorded snapshots of a run back into fields of
// the run's grid shape.
func (s *Store) LoadTrajectory(runID string) (*sim.Trajectory, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(filepath.Join(s.baseDir, runID, trajectoryFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.ReuseRecord = true
	cells := meta.NX * meta.NY

	tr := &sim.Trajectory{}
	line := 0
	for {
		record, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("storage: %s: %w", trajectoryFile, err)
		}
		line++
		if line == 1 {
			continue
		}
		if len(record) != cells+2 {
			return nil, fmt.Errorf("storage: %s line %d: %d columns, want %d", trajectoryFile, line, len(record), cells+2)
		}
		step, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("storage: %s line %d: %w", trajectoryFile, line, err)
		}
		t, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("storage: %s line %d: %w", trajectoryFile, line, err)
		}
		f := dynamo.NewField(meta.NX, meta.NY)
		for k := range f.Data {
			if f.Data[k], err = strconv.ParseFloat(record[k+2], 64); err != nil {
				return nil, fmt.Errorf("storage: %s line %d: %w", trajectoryFile, line, err)
			}
		}
		tr.Append(sim.Snapshot{Step: step, Time: t, Field: f})
	}
	return tr, nil
}

// LoadAmplitude returns the per-step mean|ψ| series and its times.
func (s *Store) LoadAmplitude(runID string) ([]float64, []float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, amplitudeFile))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return []float64{}, []float64{}, nil
	}
	series := make([]float64, 0, len(records)-1)
	times := make([]float64, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) != 3 {
			return nil, nil, fmt.Errorf("storage: %s line %d: %d columns, want 3", amplitudeFile, i+2, len(record))
		}
		t, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, nil, err
		}
		v, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, nil, err
		}
		times = append(times, t)
		series = append(series, v)
	}
	return series, times, nil
}

func writeAmplitude(path string, res *sim.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"step", "time", "mean_abs"}); err != nil {
		return err
	}
	for n, v := range res.Amplitude {
		if err := w.Write([]string{strconv.Itoa(n), formatFloat(float64(n) * res.Params.Dt), formatFloat(v)}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return file.Close()
}

func writeJSON(path string, v any) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return file.Close()
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// formatFloat writes the shortest text that parses back to the same float64.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
