package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Size != DefaultSize {
		t.Errorf("expected size %d, got %d", DefaultSize, cfg.Size)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Emitter != "jet" {
		t.Errorf("expected jet emitter, got %s", cfg.Emitter)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("sketch")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Diffusion != 0.2 || cfg.Viscosity != 1.0 || cfg.Dt != 0.0000001 {
		t.Errorf("unexpected sketch parameters: %+v", cfg)
	}
	if x, y := cfg.Center(); x != 2 || y != 2 {
		t.Errorf("expected emitter at (2, 2), got (%d, %d)", x, y)
	}

	cfg.Steps = 999
	if Presets["sketch"].Steps == 999 {
		t.Error("GetPreset returned a shared pointer")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets()
	if len(presets) != len(Presets) {
		t.Fatalf("expected %d presets, got %d", len(Presets), len(presets))
	}
	for i := 1; i < len(presets); i++ {
		if presets[i-1] > presets[i] {
			t.Errorf("presets not sorted: %v", presets)
		}
	}
}

func TestPresetsValidate(t *testing.T) {
	for name := range Presets {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"tiny grid", func(c *Config) { c.Size = 2 }},
		{"zero dt", func(c *Config) { c.Dt = 0 }},
		{"negative diffusion", func(c *Config) { c.Diffusion = -1 }},
		{"negative viscosity", func(c *Config) { c.Viscosity = -1 }},
		{"zero iterations", func(c *Config) { c.Iterations = 0 }},
		{"zero steps", func(c *Config) { c.Steps = 0 }},
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"negative snapshot interval", func(c *Config) { c.SnapshotEvery = -1 }},
		{"inverted amount range", func(c *Config) { c.EmitterParams.MaxAmount = 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestCenterDefault(t *testing.T) {
	cfg := DefaultConfig()
	if x, y := cfg.Center(); x != 32 || y != 32 {
		t.Errorf("expected (32, 32), got (%d, %d)", x, y)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fluid.yaml")
	cfg := DefaultConfig()
	cfg.Size = 40
	cfg.Emitter = "point"
	cfg.EmitterParams.Amount = 12.5

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Size != 40 || loaded.Emitter != "point" || loaded.EmitterParams.Amount != 12.5 {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("size: 32\nemitter: none\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Size != 32 || cfg.Emitter != "none" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Dt != DefaultDt || cfg.Iterations != DefaultIterations {
		t.Errorf("defaults lost: dt=%f iterations=%d", cfg.Dt, cfg.Iterations)
	}
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("size: [1, 2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}
