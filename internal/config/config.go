// Package config handles terrain service configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	mathx "github.com/Faultbox/midgard-terrain/pkg/math"
)

// Config holds all settings.
type Config struct {
	Terrain TerrainConfig `yaml:"terrain"`
	Jobs    JobsConfig    `yaml:"jobs"`
	Logging LoggingConfig `yaml:"logging"`
}

// TerrainConfig holds the settings that affect query results.
type TerrainConfig struct {
	WorldMin              [3]float32 `yaml:"world_min"`
	WorldMax              [3]float32 `yaml:"world_max"`
	HeightQueryResolution float32    `yaml:"height_query_resolution"` // Grid spacing for CLAMP and BILINEAR
}

// JobsConfig holds async query worker settings.
type JobsConfig struct {
	Workers               int `yaml:"workers"`                  // 0 = one per CPU
	DefaultJobsPerRequest int `yaml:"default_jobs_per_request"` // 0 = as many as workers allow
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Terrain: TerrainConfig{
			WorldMin:              [3]float32{-512, -512, -128},
			WorldMax:              [3]float32{512, 512, 512},
			HeightQueryResolution: 1.0,
		},
		Jobs: JobsConfig{
			Workers:               0,
			DefaultJobsPerRequest: 0,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// WorldBounds returns the configured world box.
func (c *Config) WorldBounds() mathx.Aabb {
	return mathx.NewAabb(mgl32.Vec3(c.Terrain.WorldMin), mgl32.Vec3(c.Terrain.WorldMax))
}

// Validate checks the values that would otherwise only fail at query time.
func (c *Config) Validate() error {
	var errs []error
	if c.Terrain.HeightQueryResolution <= 0 {
		errs = append(errs, fmt.Errorf("terrain.height_query_resolution must be > 0, got %v", c.Terrain.HeightQueryResolution))
	}
	if !c.WorldBounds().IsValid() {
		errs = append(errs, fmt.Errorf("terrain world bounds are invalid: min %v max %v", c.Terrain.WorldMin, c.Terrain.WorldMax))
	}
	if c.Jobs.Workers < 0 {
		errs = append(errs, fmt.Errorf("jobs.workers must be >= 0, got %d", c.Jobs.Workers))
	}
	if c.Jobs.DefaultJobsPerRequest < 0 {
		errs = append(errs, fmt.Errorf("jobs.default_jobs_per_request must be >= 0, got %d", c.Jobs.DefaultJobsPerRequest))
	}
	return errors.Join(errs...)
}
