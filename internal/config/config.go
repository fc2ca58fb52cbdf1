package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultSize          = 64
	DefaultDt            = 0.1
	DefaultDiffusion     = 0.0001
	DefaultViscosity     = 0.0001
	DefaultIterations    = 20
	DefaultSteps         = 200
	DefaultSnapshotEvery = 10
	DefaultJetForce      = 0.2
	DefaultJetMinAmount  = 50.0
	DefaultJetMaxAmount  = 150.0
)

var ErrInvalid = errors.New("config: invalid value")

type Config struct {
	Size          int           `yaml:"size"`
	Dt            float64       `yaml:"dt"`
	Diffusion     float64       `yaml:"diffusion"`
	Viscosity     float64       `yaml:"viscosity"`
	Iterations    int           `yaml:"iterations"`
	Steps         int           `yaml:"steps"`
	Workers       int           `yaml:"workers"`
	ClampDensity  bool          `yaml:"clamp_density"`
	SnapshotEvery int           `yaml:"snapshot_every"`
	Seed          int64         `yaml:"seed"`
	Emitter       string        `yaml:"emitter"`
	EmitterParams EmitterConfig `yaml:"emitter_params"`
}

// EmitterConfig parameterizes the impulse source. Zero coordinates mean
// the grid centre.
type EmitterConfig struct {
	X         int     `yaml:"x"`
	Y         int     `yaml:"y"`
	Amount    float64 `yaml:"amount"`
	MinAmount float64 `yaml:"min_amount"`
	MaxAmount float64 `yaml:"max_amount"`
	VX        float64 `yaml:"vx"`
	VY        float64 `yaml:"vy"`
	Force     float64 `yaml:"force"`
	Radius    int     `yaml:"radius"`
	Every     int     `yaml:"every"`
}

func DefaultConfig() *Config {
	return &Config{
		Size:          DefaultSize,
		Dt:            DefaultDt,
		Diffusion:     DefaultDiffusion,
		Viscosity:     DefaultViscosity,
		Iterations:    DefaultIterations,
		Steps:         DefaultSteps,
		Workers:       1,
		ClampDensity:  true,
		SnapshotEvery: DefaultSnapshotEvery,
		Emitter:       "jet",
		EmitterParams: EmitterConfig{
			Amount:    1.0,
			MinAmount: DefaultJetMinAmount,
			MaxAmount: DefaultJetMaxAmount,
			Force:     DefaultJetForce,
			Radius:    1,
			Every:     1,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
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

// Validate checks the values the solver and driver would reject later, so
// that a bad file fails before any work starts.
func (c *Config) Validate() error {
	switch {
	case c.Size < 3:
		return fmt.Errorf("%w: size %d < 3", ErrInvalid, c.Size)
	case c.Dt <= 0:
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalid, c.Dt)
	case c.Diffusion < 0:
		return fmt.Errorf("%w: diffusion must be non-negative, got %f", ErrInvalid, c.Diffusion)
	case c.Viscosity < 0:
		return fmt.Errorf("%w: viscosity must be non-negative, got %f", ErrInvalid, c.Viscosity)
	case c.Iterations < 1:
		return fmt.Errorf("%w: iterations %d < 1", ErrInvalid, c.Iterations)
	case c.Steps < 1:
		return fmt.Errorf("%w: steps %d < 1", ErrInvalid, c.Steps)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers %d < 1", ErrInvalid, c.Workers)
	case c.SnapshotEvery < 0:
		return fmt.Errorf("%w: snapshot_every %d < 0", ErrInvalid, c.SnapshotEvery)
	case c.EmitterParams.MaxAmount < c.EmitterParams.MinAmount:
		return fmt.Errorf("%w: emitter max_amount below min_amount", ErrInvalid)
	}
	return nil
}

// Center returns the emitter position, defaulting to the middle of the grid.
func (c *Config) Center() (int, int) {
	x, y := c.EmitterParams.X, c.EmitterParams.Y
	if x == 0 && y == 0 {
		return c.Size / 2, c.Size / 2
	}
	return x, y
}
