package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/helixwave/internal/config"
	"github.com/san-kum/helixwave/internal/dynamo"
	"github.com/san-kum/helixwave/internal/experiment"
	"github.com/san-kum/helixwave/internal/physics"
)

func parse(t *testing.T, args ...string) (*config.Config, error) {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	cmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultOutputDir, "")
	addConfigFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return buildConfig(cmd)
}

func TestBuildConfigDefaults(t *testing.T) {
	cfg, err := parse(t)
	require.NoError(t, err)
	require.Equal(t, config.DefaultConfig(), cfg)
}

func TestBuildConfigLayering(t *testing.T) {
	cfg, err := parse(t, "--preset", "decay", "--beta", "0.2")
	require.NoError(t, err)
	require.Equal(t, 0.3, cfg.Params.Alpha)
	require.Equal(t, 0.2, cfg.Params.Beta)

	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("params:\n  m: 7\n  dt: 0.05\n"), 0644))

	cfg, err = parse(t, "--preset", "chaos", "--config", path)
	require.NoError(t, err)
	require.Equal(t, 1.0, cfg.Params.Beta)
	require.Equal(t, 7, cfg.Params.M)
	require.Equal(t, 0.05, cfg.Params.Dt)

	cfg, err = parse(t, "--preset", "chaos", "--config", path, "--m", "2")
	require.NoError(t, err)
	require.Equal(t, 2, cfg.Params.M)
}

func TestBuildConfigFlags(t *testing.T) {
	cfg, err := parse(t, "--n", "32", "--boundary", "periodic", "--bootstrap", "taylor",
		"--initial", "gaussian-pulse", "--amplitude", "0.5", "--velocity-scale", "0.1", "--stride", "4")
	require.NoError(t, err)
	require.Equal(t, 32, cfg.Grid.NX)
	require.Equal(t, 32, cfg.Grid.NY)
	require.EqualValues(t, "periodic", cfg.Grid.Boundary)
	require.Equal(t, dynamo.BootstrapTaylor, cfg.Params.Bootstrap)
	require.Equal(t, physics.GaussianPulse, cfg.Initial.Kind)
	require.NotNil(t, cfg.Initial.Gaussian)
	require.Equal(t, 0.5, cfg.Initial.Gaussian.Amplitude)
	require.Equal(t, 0.1, cfg.Initial.VelocityScale)
	require.Equal(t, 4, cfg.Run.Stride)

	cfg, err = parse(t, "--amplitude", "3")
	require.NoError(t, err)
	require.Equal(t, 3.0, cfg.Initial.Ring.Amplitude)
	require.Equal(t, physics.DefaultRing().Radius, cfg.Initial.Ring.Radius)
}

func TestBuildConfigRejects(t *testing.T) {
	for name, args := range map[string][]string{
		"unknown preset":   {"--preset", "nope"},
		"tiny grid":        {"--n", "2"},
		"bad bootstrap":    {"--bootstrap", "euler"},
		"courant":          {"--dt", "2"},
		"negative stride":  {"--stride", "-1"},
		"unknown initial":  {"--initial", "vortex"},
		"missing config":   {"--config", filepath.Join(t.TempDir(), "none.yaml")},
		"gamma without j":  {"--gamma", "0.1", "--j", "0"},
		"unknown boundary": {"--boundary", "absorbing"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := parse(t, args...)
			require.Error(t, err)
		})
	}
}

func TestBuildConfigDataDir(t *testing.T) {
	defer func() { dataDir = config.DefaultOutputDir }()
	dir := t.TempDir()
	cfg, err := parse(t, "--data", dir)
	require.NoError(t, err)
	require.Equal(t, dir, cfg.Run.OutputDir)
}

func TestResolveID(t *testing.T) {
	defer func() { dataDir = config.DefaultOutputDir }()
	dataDir = t.TempDir()
	store, err := openStore()
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	cfg.Grid.NX, cfg.Grid.NY = 8, 8
	cfg.Params.Steps = 3

	_, _, err = resolveID("abc")
	require.Error(t, err)

	exp := experiment.New(cfg.Config)
	require.NoError(t, exp.Setup(experiment.NewRegistry()))
	res, err := exp.Run(context.Background(), experiment.RunOptions{Stride: 1})
	require.NoError(t, err)
	meta, err := store.Save(cfg.Config, 1, res, nil)
	require.NoError(t, err)
	id, isSweep, err := resolveID(meta.ID[:6])
	require.NoError(t, err)
	require.False(t, isSweep)
	require.Equal(t, meta.ID, id)
}
