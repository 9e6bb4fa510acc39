package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/helixwave/internal/analysis"
	"github.com/san-kum/helixwave/internal/experiment"
	"github.com/san-kum/helixwave/internal/optim"
	"github.com/san-kum/helixwave/internal/physics"
)

const (
	DefaultStride    = 10
	DefaultOutputDir = ".helixwave"
)

// Config is the on-disk shape of a run or sweep. The experiment fields sit at
// the top level next to the run and sweep sections.
type Config struct {
	experiment.Config `yaml:",inline"`

	Run   RunConfig   `yaml:"run"`
	Sweep SweepConfig `yaml:"sweep"`
}

type RunConfig struct {
	Stride    int    `yaml:"stride"`
	OutputDir string `yaml:"output_dir"`
}

type SweepConfig struct {
	Axes        []optim.Axis        `yaml:"axes"`
	Thresholds  analysis.Thresholds `yaml:"thresholds"`
	Workers     int                 `yaml:"workers"`
	SkipInvalid bool                `yaml:"skip_invalid"`
}

func DefaultConfig() *Config {
	return &Config{
		Config: experiment.DefaultConfig(),
		Run: RunConfig{
			Stride:    DefaultStride,
			OutputDir: DefaultOutputDir,
		},
		Sweep: SweepConfig{
			Thresholds: analysis.DefaultThresholds(),
		},
	}
}

func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver decodes the file on top of base, so a config file can refine a
// preset.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseOver(data, base)
}

// Parse decodes YAML over the defaults.
func Parse(data []byte) (*Config, error) {
	return parseOver(data, DefaultConfig())
}

// parseOver decodes into a copy of base. An initial section replaces the
// base initial condition wholesale so variant blocks never mix.
func parseOver(data []byte, base *Config) (*Config, error) {
	cp := *base
	cfg := &cp
	cfg.Initial = cloneInitial(base.Initial)
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	var probe struct {
		Initial *physics.Initial `yaml:"initial"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if probe.Initial != nil {
		cfg.Initial = *probe.Initial
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks everything that can be checked without stepping.
func (c *Config) Validate() error {
	if err := experiment.NewRegistry().Validate(c.Config); err != nil {
		return err
	}
	if c.Run.Stride < 0 {
		return fmt.Errorf("config: run.stride must be non-negative, got %d", c.Run.Stride)
	}
	if c.Sweep.Workers < 0 {
		return fmt.Errorf("config: sweep.workers must be non-negative, got %d", c.Sweep.Workers)
	}
	return c.Sweep.Thresholds.Validate()
}

// SweepSpec turns the sweep section into an analyzer configuration over the
// experiment fields.
func (c *Config) SweepSpec() analysis.SweepConfig {
	return analysis.SweepConfig{
		Base:        c.Config,
		Axes:        c.Sweep.Axes,
		Thresholds:  c.Sweep.Thresholds,
		Workers:     c.Sweep.Workers,
		SkipInvalid: c.Sweep.SkipInvalid,
	}
}

func (c *Config) RunOptions() experiment.RunOptions {
	return experiment.RunOptions{Stride: c.Run.Stride}
}

func cloneInitial(ic physics.Initial) physics.Initial {
	if ic.Gaussian != nil {
		g := *ic.Gaussian
		ic.Gaussian = &g
	}
	if ic.Noise != nil {
		n := *ic.Noise
		ic.Noise = &n
	}
	if ic.Ring != nil {
		r := *ic.Ring
		ic.Ring = &r
	}
	return ic
}
