package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/helixwave/internal/dynamo"
	"github.com/san-kum/helixwave/internal/forces"
	"github.com/san-kum/helixwave/internal/grid"
	"github.com/san-kum/helixwave/internal/physics"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Params.Beta != dynamo.DefaultBeta {
		t.Errorf("expected beta %g, got %g", dynamo.DefaultBeta, cfg.Params.Beta)
	}
	if cfg.Grid.NX != 64 || cfg.Grid.NY != 64 {
		t.Errorf("expected 64x64 grid, got %dx%d", cfg.Grid.NX, cfg.Grid.NY)
	}
	if cfg.Run.Stride != DefaultStride {
		t.Errorf("expected stride %d, got %d", DefaultStride, cfg.Run.Stride)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}
}

func TestParse_OverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
grid:
  nx: 32
  ny: 32
params:
  beta: 0.5
  bootstrap: taylor
source:
  kind: point
  amplitude: 2
run:
  stride: 5
sweep:
  axes:
    - name: beta
      values: [0, 0.1]
  workers: 2
`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Grid.NX != 32 || cfg.Grid.XMin != -10 {
		t.Errorf("grid not layered over defaults: %+v", cfg.Grid)
	}
	if cfg.Params.Beta != 0.5 || cfg.Params.C != dynamo.DefaultC {
		t.Errorf("params not layered over defaults: %+v", cfg.Params)
	}
	if cfg.Params.Bootstrap != dynamo.BootstrapTaylor {
		t.Errorf("bootstrap = %q", cfg.Params.Bootstrap)
	}
	if cfg.Source.Kind != forces.SourcePoint {
		t.Errorf("source kind = %q", cfg.Source.Kind)
	}
	if cfg.Run.Stride != 5 || cfg.Run.OutputDir != DefaultOutputDir {
		t.Errorf("run = %+v", cfg.Run)
	}
	spec := cfg.SweepSpec()
	if len(spec.Axes) != 1 || spec.Axes[0].Name != "beta" || spec.Workers != 2 {
		t.Errorf("sweep spec = %+v", spec)
	}
	if spec.Thresholds.Window != 0.1 {
		t.Errorf("thresholds lost their defaults: %+v", spec.Thresholds)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestParse_InitialReplacesDefault(t *testing.T) {
	cfg, err := Parse([]byte(`
initial:
  gaussian:
    width: 2
    amplitude: 0.5
`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Initial.Ring != nil {
		t.Fatal("default ring block leaked into a gaussian config")
	}
	ic, err := cfg.Initial.Resolve()
	if err != nil {
		t.Fatal(err)
	}
	if ic.Kind != physics.GaussianPulse || ic.Gaussian.Width != 2 {
		t.Errorf("resolved = %+v", ic)
	}
}

func TestParse_TwoVariantsRejected(t *testing.T) {
	cfg, err := Parse([]byte(`
initial:
  ring: {radius: 2}
  noise: {amplitude: 0.1}
`))
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); !errors.Is(err, dynamo.ErrInvalidInitialCondition) {
		t.Errorf("expected ErrInvalidInitialCondition, got %v", err)
	}
}

func TestParse_Malformed(t *testing.T) {
	if _, err := Parse([]byte("grid: [1, 2")); err == nil {
		t.Error("expected a YAML error")
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	cfg := GetPreset("pulsed")
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if back.Source != cfg.Source {
		t.Errorf("source round trip: got %+v, want %+v", back.Source, cfg.Source)
	}
	if back.Params != cfg.Params {
		t.Errorf("params round trip: got %+v, want %+v", back.Params, cfg.Params)
	}
	if back.Grid != cfg.Grid {
		t.Errorf("grid round trip: got %+v, want %+v", back.Grid, cfg.Grid)
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative stride", func(c *Config) { c.Run.Stride = -1 }},
		{"negative workers", func(c *Config) { c.Sweep.Workers = -2 }},
		{"bad thresholds", func(c *Config) { c.Sweep.Thresholds.Window = 0 }},
		{"courant", func(c *Config) { c.Params.Dt = 5 }},
		{"grid", func(c *Config) { c.Grid.NX = 2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("noise")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Grid.Stencil != grid.NinePoint {
		t.Errorf("expected 9-point stencil, got %s", cfg.Grid.Stencil)
	}
	cfg.Params.Beta = 99
	if GetPreset("noise").Params.Beta == 99 {
		t.Error("presets share state between calls")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestPresetsValidate(t *testing.T) {
	names := ListPresets()
	if len(names) != len(Presets) {
		t.Fatalf("ListPresets returned %d names, want %d", len(names), len(Presets))
	}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			if err := GetPreset(name).Validate(); err != nil {
				t.Errorf("preset %s: %v", name, err)
			}
		})
	}
}

func TestLoadOver_RefinesPreset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "over.yaml")
	if err := os.WriteFile(path, []byte("params:\n  steps: 50\n"), 0644); err != nil {
		t.Fatal(err)
	}
	base := GetPreset("pulsed")
	cfg, err := LoadOver(path, base)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Params.Steps != 50 {
		t.Errorf("steps = %d, want 50", cfg.Params.Steps)
	}
	if cfg.Source.Kind != forces.SourcePulsed {
		t.Errorf("preset source lost: %+v", cfg.Source)
	}
	if base.Params.Steps == 50 {
		t.Error("LoadOver modified its base")
	}
}
