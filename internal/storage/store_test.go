package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/helixwave/internal/analysis"
	"github.com/san-kum/helixwave/internal/experiment"
	"github.com/san-kum/helixwave/internal/optim"
	"github.com/san-kum/helixwave/internal/sim"
)

func smallConfig() experiment.Config {
	cfg := experiment.DefaultConfig()
	cfg.Grid.NX, cfg.Grid.NY = 12, 10
	cfg.Params.Steps = 20
	return cfg
}

func runSmall(t *testing.T, cfg experiment.Config, opts experiment.RunOptions) (*sim.Result, error) {
	t.Helper()
	exp := experiment.New(cfg)
	require.NoError(t, exp.Setup(experiment.NewRegistry()))
	return exp.Run(context.Background(), opts)
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	cfg := smallConfig()
	res, err := runSmall(t, cfg, experiment.RunOptions{Stride: 5})
	require.NoError(t, err)

	meta, err := st.Save(cfg, 5, res, nil)
	require.NoError(t, err)
	require.NotEmpty(t, meta.ID)

	loaded, err := st.Load(meta.ID)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded.Config)
	assert.Equal(t, 12, loaded.NX)
	assert.Equal(t, 10, loaded.NY)
	assert.Equal(t, 20, loaded.StepsCompleted)
	assert.Equal(t, -1, loaded.DivergedAt)
	assert.Equal(t, 5, loaded.Snapshots)
	assert.False(t, loaded.Diverged)
	assert.Nil(t, loaded.Divergence)

	tr, err := st.LoadTrajectory(meta.ID)
	require.NoError(t, err)
	require.Equal(t, res.Trajectory.Steps(), tr.Steps())
	for i, snap := range tr.Snapshots {
		want := res.Trajectory.Snapshots[i]
		assert.Equal(t, want.Time, snap.Time)
		assert.True(t, want.Field.Equal(snap.Field), "snapshot %d does not round-trip exactly", snap.Step)
	}

	series, times, err := st.LoadAmplitude(meta.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Amplitude, series)
	assert.Equal(t, res.Times(), times)
}

func TestRecorderStreamsAsSink(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	cfg := smallConfig()
	want, err := runSmall(t, cfg, experiment.RunOptions{Stride: 4})
	require.NoError(t, err)

	rec, err := st.Begin()
	require.NoError(t, err)
	res, err := runSmall(t, cfg, experiment.RunOptions{Stride: 4, Sink: rec, SkipTrajectory: true})
	require.NoError(t, err)
	assert.Zero(t, res.Trajectory.Len())

	meta, err := rec.Finish(cfg, 4, res, nil)
	require.NoError(t, err)
	assert.Equal(t, rec.ID(), meta.ID)

	tr, err := st.LoadTrajectory(meta.ID)
	require.NoError(t, err)
	require.Equal(t, want.Trajectory.Len(), tr.Len())
	for i := range tr.Snapshots {
		assert.True(t, want.Trajectory.Snapshots[i].Field.Equal(tr.Snapshots[i].Field))
	}
}

func TestStoreDivergedRun(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	cfg := smallConfig()
	cfg.Params.Beta = 5
	cfg.Params.Steps = 200
	res, runErr := runSmall(t, cfg, experiment.RunOptions{Stride: 1})
	require.Error(t, runErr)
	require.True(t, res.Diverged)

	meta, err := st.Save(cfg, 1, res, runErr)
	require.NoError(t, err)

	loaded, err := st.Load(meta.ID)
	require.NoError(t, err)
	assert.True(t, loaded.Diverged)
	assert.False(t, loaded.Cancelled)
	assert.Equal(t, res.DivergedAt, loaded.DivergedAt)
	require.NotNil(t, loaded.Divergence)
	assert.Equal(t, res.DivergedAt, loaded.Divergence.Step)

	tr, err := st.LoadTrajectory(meta.ID)
	require.NoError(t, err)
	last, ok := tr.Last()
	require.True(t, ok)
	assert.Equal(t, res.StepsCompleted, last.Step)
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)

	cfg := smallConfig()
	res, err := runSmall(t, cfg, experiment.RunOptions{Stride: 10})
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err := st.Save(cfg, 10, res, nil)
		require.NoError(t, err)
	}
	require.NoError(t, os.MkdirAll(filepath.Join(st.Dir(), "junk"), 0755))

	runs, err = st.List()
	require.NoError(t, err)
	assert.Len(t, runs, 2)
	assert.False(t, runs[0].Timestamp.Before(runs[1].Timestamp))
}

func TestStoreList_MissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "absent"))
	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestStoreLoad_Missing(t *testing.T) {
	st := New(t.TempDir())
	_, err := st.Load("nope")
	assert.Error(t, err)
	_, err = st.LoadTrajectory("nope")
	assert.Error(t, err)
}

func TestSweepRoundTrip(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	base := smallConfig()
	res, err := analysis.Sweep(context.Background(), analysis.SweepConfig{
		Base: base,
		Axes: []optim.Axis{
			{Name: "beta", Values: []float64{0, 0.03}},
			{Name: "dt", Values: []float64{0.05, 0.1}},
		},
		Workers: 2,
	})
	require.NoError(t, err)

	id, err := st.SaveSweep(base, res)
	require.NoError(t, err)

	rec, err := st.LoadSweep(id)
	require.NoError(t, err)
	assert.Equal(t, base, rec.Base)
	require.Len(t, rec.Result.Entries, 4)
	assert.Equal(t, res.Axes, rec.Result.Axes)
	for i, e := range rec.Result.Entries {
		orig := res.Entries[i]
		assert.Equal(t, orig.Point, e.Point)
		assert.Equal(t, orig.Outcome, e.Outcome)
		assert.Equal(t, orig.TerminalMean, e.TerminalMean)
		assert.Equal(t, orig.DivergedAt, e.DivergedAt)
	}

	_, err = os.Stat(filepath.Join(st.Dir(), sweepsDir, id, sweepCSV))
	require.NoError(t, err)

	sweeps, err := st.ListSweeps()
	require.NoError(t, err)
	require.Len(t, sweeps, 1)
	assert.Equal(t, id, sweeps[0].ID)

	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs, "sweeps directory must not show up as a run")
}

func TestSweepNonFiniteRoundTrip(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	base := smallConfig()
	res, err := analysis.Sweep(context.Background(), analysis.SweepConfig{
		Base:        base,
		Axes:        []optim.Axis{{Name: "dt", Values: []float64{0.1, 5}}},
		SkipInvalid: true,
	})
	require.NoError(t, err)
	require.Equal(t, analysis.Invalid, res.Entries[1].Outcome)

	id, err := st.SaveSweep(base, res)
	require.NoError(t, err)
	rec, err := st.LoadSweep(id)
	require.NoError(t, err)
	require.Len(t, rec.Result.Entries, 2)
	assert.Equal(t, res.Entries[0].TerminalMean, rec.Result.Entries[0].TerminalMean)
	assert.Equal(t, analysis.Invalid, rec.Result.Entries[1].Outcome)
	assert.True(t, math.IsNaN(rec.Result.Entries[1].TerminalMean))
	assert.Equal(t, res.Entries[1].Err, rec.Result.Entries[1].Err)

	// ceiling below the initial ring: diverges at step 0 with no result
	blown := smallConfig()
	blown.Params.Ceiling = 0.5
	res, err = analysis.Sweep(context.Background(), analysis.SweepConfig{
		Base: blown,
		Axes: []optim.Axis{{Name: "beta", Values: []float64{0}}},
	})
	require.NoError(t, err)
	require.Equal(t, analysis.Diverged, res.Entries[0].Outcome)
	require.True(t, math.IsInf(res.Entries[0].TerminalMean, 1))

	id, err = st.SaveSweep(blown, res)
	require.NoError(t, err)
	rec, err = st.LoadSweep(id)
	require.NoError(t, err)
	e := rec.Result.Entries[0]
	assert.Equal(t, analysis.Diverged, e.Outcome)
	assert.True(t, math.IsInf(e.TerminalMean, 1))
	assert.Equal(t, 0, e.DivergedAt)

	sweeps, err := st.ListSweeps()
	require.NoError(t, err)
	assert.Len(t, sweeps, 2)
}

func TestSaveSweepRemovesPartialDir(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	res := &analysis.SweepResult{
		Axes:    []string{"beta"},
		Total:   1,
		Entries: []analysis.Entry{{Values: map[string]float64{"beta": math.NaN()}}},
	}
	_, err := st.SaveSweep(smallConfig(), res)
	require.Error(t, err)

	left, err := os.ReadDir(filepath.Join(st.Dir(), sweepsDir))
	require.NoError(t, err)
	assert.Empty(t, left)
	sweeps, err := st.ListSweeps()
	require.NoError(t, err)
	assert.Empty(t, sweeps)
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	require.NoError(t, st.Init())

	cfg := smallConfig()
	res, err := runSmall(t, cfg, experiment.RunOptions{Stride: 10})
	require.NoError(t, err)
	meta, err := st.Save(cfg, 10, res, nil)
	require.NoError(t, err)

	for _, name := range []string{metadataFile, trajectoryFile, amplitudeFile} {
		_, err := os.Stat(filepath.Join(tmpDir, meta.ID, name))
		assert.NoError(t, err, "%s not created", name)
	}
}

func TestExport(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	cfg := smallConfig()
	res, err := runSmall(t, cfg, experiment.RunOptions{Stride: 10})
	require.NoError(t, err)
	meta, err := st.Save(cfg, 10, res, nil)
	require.NoError(t, err)

	var js bytes.Buffer
	require.NoError(t, st.ExportJSON(&js, meta.ID))
	var data ExportData
	require.NoError(t, json.Unmarshal(js.Bytes(), &data))
	assert.Equal(t, meta.ID, data.Metadata.ID)
	require.Len(t, data.Snapshots, 3)
	assert.Equal(t, res.Trajectory.Snapshots[2].Field.Data, data.Snapshots[2].Psi)
	assert.Equal(t, res.Amplitude, data.Amplitude)

	var csvOut bytes.Buffer
	require.NoError(t, st.ExportCSV(&csvOut, meta.ID))
	lines := strings.Split(strings.TrimSpace(csvOut.String()), "\n")
	assert.Equal(t, "step,time,i,j,x,y,psi", lines[0])
	assert.Len(t, lines, 1+3*12*10)
	assert.True(t, strings.HasPrefix(lines[1], "0,0,0,0,-10,-10,"))
}
