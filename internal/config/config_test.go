package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shoji-wm/shoji/internal/config"
	"github.com/shoji-wm/shoji/internal/tree"
)

// TestDefaultConfig verifies the built-in configuration is valid and
// carries the documented defaults.
func TestDefaultConfig(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if len(cfg.Desktops) != 3 {
		t.Errorf("expected 3 default desktops, got %d", len(cfg.Desktops))
	}
	if cfg.Split.Ratio != 0.5 || cfg.Split.Direction != "auto" || cfg.Split.Slot != "second" {
		t.Errorf("unexpected split defaults: %+v", cfg.Split)
	}
	if cfg.Gap != 0 {
		t.Errorf("expected zero default gap, got %d", cfg.Gap)
	}
}

// TestValidate verifies rejection of each bad field.
func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"ratio too low", func(c *config.Config) { c.Split.Ratio = 0 }},
		{"ratio too high", func(c *config.Config) { c.Split.Ratio = 1 }},
		{"bad direction", func(c *config.Config) { c.Split.Direction = "diagonal" }},
		{"bad slot", func(c *config.Config) { c.Split.Slot = "third" }},
		{"no desktops", func(c *config.Config) { c.Desktops = nil }},
		{"negative gap", func(c *config.Config) { c.Gap = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation failure")
			}
		})
	}
}

// TestInsertDefaults verifies the mapping from file values to engine
// insertion parameters.
func TestInsertDefaults(t *testing.T) {
	cfg := config.Default()

	ins, auto := cfg.InsertDefaults()
	if !auto {
		t.Error("direction auto should signal auto resolution")
	}
	if ins.Ratio != 0.5 || ins.Slot != tree.SlotSecond {
		t.Errorf("unexpected defaults: %+v", ins)
	}

	cfg.Split.Direction = "horizontal"
	cfg.Split.Slot = "first"
	ins, auto = cfg.InsertDefaults()
	if auto {
		t.Error("explicit direction should not signal auto")
	}
	if ins.Dir != tree.Horizontal || ins.Slot != tree.SlotFirst {
		t.Errorf("unexpected mapping: %+v", ins)
	}
}

// TestLoadFromWritesDefaults verifies first-run behavior: a missing file
// is created with the defaults.
func TestLoadFromWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shoji.toml")

	cfg, err := config.LoadFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Split.Ratio != 0.5 {
		t.Errorf("expected defaults, got %+v", cfg.Split)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("file should have been written: %v", err)
	}
}

// TestLoadFromRoundTrip verifies persisted values survive a write/load
// cycle.
func TestLoadFromRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shoji.toml")

	want := config.Default()
	want.Gap = 8
	want.Desktops = []string{"web", "code"}
	want.Split.Direction = "vertical"
	if err := config.Write(path, want); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := config.LoadFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Gap != 8 || len(got.Desktops) != 2 || got.Desktops[1] != "code" {
		t.Errorf("values lost in round trip: %+v", got)
	}
	if got.Split.Direction != "vertical" {
		t.Errorf("split direction lost: %q", got.Split.Direction)
	}
}

// TestLoadFromRejectsBadFile verifies parse and validation failures
// surface as errors.
func TestLoadFromRejectsBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shoji.toml")

	if err := os.WriteFile(path, []byte("not = [valid"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := config.LoadFrom(path); err == nil {
		t.Error("expected a parse error")
	}

	if err := os.WriteFile(path, []byte("[split]\nratio = 7.0\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := config.LoadFrom(path); err == nil {
		t.Error("expected a validation error")
	}
}

// TestDefaultSocketPath verifies the path is absolute and names the
// daemon.
func TestDefaultSocketPath(t *testing.T) {
	path := config.DefaultSocketPath()
	if !filepath.IsAbs(path) {
		t.Errorf("socket path should be absolute: %q", path)
	}
	if !strings.Contains(filepath.Base(path), "shoji") {
		t.Errorf("socket path should name the daemon: %q", path)
	}
}
