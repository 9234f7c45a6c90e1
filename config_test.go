package tickbook

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.WindowDays != 365 || cfg.ChunkDays != 30 {
		t.Errorf("defaults: WindowDays=%d ChunkDays=%d", cfg.WindowDays, cfg.ChunkDays)
	}
	if cfg.Budget.Std() != 90*time.Second {
		t.Errorf("default budget = %s, want 90s", cfg.Budget.Std())
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DefaultProxy != "VTI" {
		t.Errorf("DefaultProxy = %s, want VTI", cfg.DefaultProxy)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickbook.yaml")
	content := `
window_days: 30
chunk_days: 7
budget: 2m
oracle:
  exchange: XETRA
  rate_per_sec: 2
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("EODHD_API_KEY", "from-env")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.WindowDays != 30 || cfg.ChunkDays != 7 {
		t.Errorf("WindowDays=%d ChunkDays=%d, want 30/7", cfg.WindowDays, cfg.ChunkDays)
	}
	if cfg.Budget.Std() != 2*time.Minute {
		t.Errorf("budget = %s, want 2m", cfg.Budget.Std())
	}
	if cfg.Oracle.Exchange != "XETRA" {
		t.Errorf("exchange = %s, want XETRA", cfg.Oracle.Exchange)
	}
	if cfg.Oracle.APIKey != "from-env" {
		t.Errorf("api key = %s, want the environment override", cfg.Oracle.APIKey)
	}
	// Untouched keys keep their defaults.
	if cfg.MomentumDays != 180 {
		t.Errorf("MomentumDays = %d, want the default 180", cfg.MomentumDays)
	}
}

func TestLoadConfigInvalidDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickbook.yaml")
	if err := os.WriteFile(path, []byte("budget: ninety\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected an error for an invalid duration")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"zero window", func(c *Config) { c.WindowDays = 0 }, false},
		{"negative chunk", func(c *Config) { c.ChunkDays = -1 }, false},
		{"one correlation pair", func(c *Config) { c.MinCorrelationPairs = 1 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}
