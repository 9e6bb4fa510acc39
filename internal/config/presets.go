package config

import (
	"sort"

	"github.com/san-kum/helixwave/internal/forces"
	"github.com/san-kum/helixwave/internal/grid"
	"github.com/san-kum/helixwave/internal/optim"
	"github.com/san-kum/helixwave/internal/physics"
)

// Presets build a fresh Config on every call so callers may mutate the result.
var Presets = map[string]func() *Config{
	"sweet-spot": func() *Config {
		cfg := DefaultConfig()
		cfg.Sweep.Axes = []optim.Axis{{Name: "beta", Values: []float64{0, 0.03, 1.0}}}
		return cfg
	},
	"decay": func() *Config {
		cfg := DefaultConfig()
		cfg.Params.Beta = 0
		cfg.Params.Alpha = 0.3
		cfg.Sweep.Axes = []optim.Axis{{Name: "alpha", Values: []float64{0.1, 0.3, 0.6, 1.0}}}
		return cfg
	},
	"chaos": func() *Config {
		cfg := DefaultConfig()
		cfg.Params.Beta = 1.0
		cfg.Params.M = 5
		cfg.Sweep.Axes = []optim.Axis{
			{Name: "beta", Values: []float64{0.1, 0.3, 1.0}},
			{Name: "dt", Values: []float64{0.05, 0.1}},
		}
		return cfg
	},
	"driven-point": func() *Config {
		cfg := DefaultConfig()
		cfg.Initial = physics.Initial{Kind: physics.GaussianPulse, Gaussian: &physics.Gaussian{Width: 1, Amplitude: 0.1}}
		cfg.Source = forces.SourceSpec{Kind: forces.SourcePoint, Amplitude: 1, Frequency: 0.5, Ramp: 2}
		cfg.Params.Steps = 400
		cfg.Run.Stride = 20
		return cfg
	},
	"pulsed": func() *Config {
		cfg := DefaultConfig()
		cfg.Source = forces.SourceSpec{
			Kind: forces.SourcePulsed, X: 2, Y: 2, Width: 1, Amplitude: 2,
			Start: 1, Duration: 2, Period: 8,
		}
		cfg.Params.Steps = 400
		cfg.Run.Stride = 20
		return cfg
	},
	"noise": func() *Config {
		cfg := DefaultConfig()
		cfg.Initial = physics.Initial{Kind: physics.RandomNoise, Noise: &physics.Noise{Amplitude: 0.1, Seed: 7}}
		cfg.Grid.Stencil = grid.NinePoint
		cfg.Grid.Boundary = grid.Periodic
		cfg.Params.Gamma = 0.05
		return cfg
	},
}

// GetPreset returns nil for an unknown name.
func GetPreset(name string) *Config {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
