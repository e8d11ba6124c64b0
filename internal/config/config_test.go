package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Terrain.HeightQueryResolution != 1.0 {
		t.Errorf("expected resolution 1.0, got %v", cfg.Terrain.HeightQueryResolution)
	}
	if cfg.Terrain.WorldMin != [3]float32{-512, -512, -128} {
		t.Errorf("unexpected world min %v", cfg.Terrain.WorldMin)
	}
	if cfg.Jobs.Workers != 0 {
		t.Errorf("expected 0 workers (auto), got %d", cfg.Jobs.Workers)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero resolution", func(c *Config) { c.Terrain.HeightQueryResolution = 0 }, true},
		{"negative resolution", func(c *Config) { c.Terrain.HeightQueryResolution = -1 }, true},
		{"inverted bounds", func(c *Config) { c.Terrain.WorldMin[0] = 1000 }, true},
		{"negative workers", func(c *Config) { c.Jobs.Workers = -2 }, true},
		{"negative jobs per request", func(c *Config) { c.Jobs.DefaultJobsPerRequest = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "terrain.yaml")

	yamlContent := `
terrain:
  world_min: [-64, -64, -10]
  world_max: [64, 64, 100]
  height_query_resolution: 0.25

jobs:
  workers: 6
  default_jobs_per_request: 2

logging:
  level: "debug"
  log_file: "terrain.log"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Terrain.HeightQueryResolution != 0.25 {
		t.Errorf("expected resolution 0.25, got %v", cfg.Terrain.HeightQueryResolution)
	}
	bounds := cfg.WorldBounds()
	if bounds.Min.X() != -64 || bounds.Max.Z() != 100 {
		t.Errorf("unexpected bounds %v", bounds)
	}
	if cfg.Jobs.Workers != 6 || cfg.Jobs.DefaultJobsPerRequest != 2 {
		t.Errorf("unexpected jobs config %+v", cfg.Jobs)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.LogFile != "terrain.log" {
		t.Errorf("unexpected logging config %+v", cfg.Logging)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
terrain:
  height_query_resolution: not a number
  invalid syntax here
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/terrain.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "workers flag",
			setup: func() { *flagWorkers = 3 },
			verify: func(cfg *Config) {
				if cfg.Jobs.Workers != 3 {
					t.Errorf("expected 3 workers, got %d", cfg.Jobs.Workers)
				}
			},
			teardown: func() { *flagWorkers = 0 },
		},
		{
			name:  "resolution flag",
			setup: func() { *flagResolution = 0.5 },
			verify: func(cfg *Config) {
				if cfg.Terrain.HeightQueryResolution != 0.5 {
					t.Errorf("expected resolution 0.5, got %v", cfg.Terrain.HeightQueryResolution)
				}
			},
			teardown: func() { *flagResolution = 0 },
		},
		{
			name:  "log flag",
			setup: func() { *flagLogFile = "out.log" },
			verify: func(cfg *Config) {
				if cfg.Logging.LogFile != "out.log" {
					t.Errorf("expected log file out.log, got %s", cfg.Logging.LogFile)
				}
			},
			teardown: func() { *flagLogFile = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "terrain.yaml")

	yamlContent := `
terrain:
  height_query_resolution: 2
jobs:
  workers: 4
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagWorkers = 8
	defer func() {
		*flagConfig = ""
		*flagWorkers = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Workers from flag, resolution from file
	if cfg.Jobs.Workers != 8 {
		t.Errorf("expected 8 workers from flag, got %d", cfg.Jobs.Workers)
	}
	if cfg.Terrain.HeightQueryResolution != 2 {
		t.Errorf("expected resolution 2 from file, got %v", cfg.Terrain.HeightQueryResolution)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "terrain.yaml")

	if err := os.WriteFile(configPath, []byte("terrain:\n  height_query_resolution: -1\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	defer func() { *flagConfig = "" }()

	if _, err := Load(); err == nil {
		t.Error("expected validation error, got nil")
	}
}

func TestSave(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("config dir follows XDG_CONFIG_HOME only on linux")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := Default()
	cfg.Terrain.HeightQueryResolution = 0.125
	path, err := cfg.Save()
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if path != UserConfigPath() {
		t.Errorf("expected %s, got %s", UserConfigPath(), path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("saved config missing: %v", err)
	}

	// Load picks the saved file up when no ./terrain.yaml or -config is given.
	if findConfigFile() == path {
		loaded, err := Load()
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if loaded.Terrain.HeightQueryResolution != 0.125 {
			t.Errorf("expected resolution 0.125, got %v", loaded.Terrain.HeightQueryResolution)
		}
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "terrain.yaml")

	cfg := Default()
	cfg.Jobs.Workers = 5
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to reload: %v", err)
	}
	if loaded.Jobs.Workers != 5 {
		t.Errorf("expected 5 workers after reload, got %d", loaded.Jobs.Workers)
	}
}
