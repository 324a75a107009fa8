// Package config handles baker configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-prt/pkg/sh"
)

// ErrInvalid is returned by Validate for out-of-range settings.
var ErrInvalid = errors.New("invalid config")

// Config holds all bake settings.
type Config struct {
	SH      SHConfig      `yaml:"sh"`
	Bake    BakeConfig    `yaml:"bake"`
	Cache   CacheConfig   `yaml:"cache"`
	Scene   SceneConfig   `yaml:"scene"`
	Logging LoggingConfig `yaml:"logging"`
}

// SHConfig holds spherical harmonic sampling settings.
type SHConfig struct {
	Bands       int   `yaml:"bands"`
	SqrtSamples int   `yaml:"sqrt_samples"` // samples per axis, total is the square
	Seed        int64 `yaml:"seed"`
}

// BakeConfig holds transport settings.
type BakeConfig struct {
	Bounces         int     `yaml:"bounces"`
	Workers         int     `yaml:"workers"` // 0 uses every logical CPU
	RayBias         float32 `yaml:"ray_bias"`
	TerminationSize int     `yaml:"termination_size"` // max triangles per tree leaf
}

// CacheConfig holds transfer cache settings.
type CacheConfig struct {
	Dir    string `yaml:"dir"` // empty disables caching
	Rebake bool   `yaml:"rebake"`
}

// SceneConfig holds input and output paths.
type SceneConfig struct {
	Path   string `yaml:"path"`
	Lights string `yaml:"lights"` // light coefficient export
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with the reference bake settings.
func Default() *Config {
	return &Config{
		SH: SHConfig{
			Bands:       5,
			SqrtSamples: 50,
			Seed:        1,
		},
		Bake: BakeConfig{
			Bounces:         2,
			Workers:         0,
			RayBias:         0.025,
			TerminationSize: 2,
		},
		Cache: CacheConfig{
			Dir: "cache",
		},
		Scene: SceneConfig{
			Path:   "scene.yaml",
			Lights: "lights.yaml",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports the first out-of-range setting.
func (c *Config) Validate() error {
	switch {
	case c.SH.Bands < 1 || c.SH.Bands > sh.MaxBands:
		return fmt.Errorf("%w: sh.bands %d outside [1, %d]", ErrInvalid, c.SH.Bands, sh.MaxBands)
	case c.SH.SqrtSamples < 1:
		return fmt.Errorf("%w: sh.sqrt_samples must be positive, got %d", ErrInvalid, c.SH.SqrtSamples)
	case c.Bake.Bounces < 0:
		return fmt.Errorf("%w: bake.bounces must not be negative, got %d", ErrInvalid, c.Bake.Bounces)
	case c.Bake.Workers < 0:
		return fmt.Errorf("%w: bake.workers must not be negative, got %d", ErrInvalid, c.Bake.Workers)
	case c.Bake.RayBias <= 0:
		return fmt.Errorf("%w: bake.ray_bias must be positive, got %g", ErrInvalid, c.Bake.RayBias)
	case c.Bake.TerminationSize < 1:
		return fmt.Errorf("%w: bake.termination_size must be positive, got %d", ErrInvalid, c.Bake.TerminationSize)
	case c.Scene.Path == "":
		return fmt.Errorf("%w: scene.path is required", ErrInvalid)
	}
	return nil
}
