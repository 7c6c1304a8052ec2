// Package config handles the shoji configuration file: TOML on disk at the
// XDG config path, loaded at startup and hot-reloaded while the daemon
// runs.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"

	"github.com/shoji-wm/shoji/internal/tree"
)

// Padding insets the usable screen area on each side, in pixels.
type Padding struct {
	Top    int `toml:"top"`
	Bottom int `toml:"bottom"`
	Left   int `toml:"left"`
	Right  int `toml:"right"`
}

// Border describes window border publishing: width plus normal/focused
// colors as hex strings. The core only carries these through to the
// publisher; drawing them is the window system's business.
type Border struct {
	Width   int    `toml:"width"`
	Normal  string `toml:"normal"`
	Focused string `toml:"focused"`
}

// Split is the default insertion policy applied when no preselection is
// armed. Direction "auto" picks by the target leaf's aspect.
type Split struct {
	Direction string  `toml:"direction"`
	Ratio     float64 `toml:"ratio"`
	Slot      string  `toml:"slot"`
}

// Config is the full configuration file.
type Config struct {
	SocketPath string   `toml:"socket_path"`
	Desktops   []string `toml:"desktops"`
	Gap        int      `toml:"gap"`
	Padding    Padding  `toml:"padding"`
	Border     Border   `toml:"border"`
	Split      Split    `toml:"split"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		SocketPath: DefaultSocketPath(),
		Desktops:   []string{"I", "II", "III"},
		Gap:        0,
		Padding:    Padding{},
		Border: Border{
			Width:   1,
			Normal:  "000000ff",
			Focused: "ffffffff",
		},
		Split: Split{
			Direction: "auto",
			Ratio:     0.5,
			Slot:      "second",
		},
	}
}

// Validate checks the fields that feed the tree engine.
func (c *Config) Validate() error {
	if c.Split.Ratio <= 0 || c.Split.Ratio >= 1 {
		return fmt.Errorf("split.ratio %v outside (0,1)", c.Split.Ratio)
	}
	switch c.Split.Direction {
	case "auto", "horizontal", "vertical":
	default:
		return fmt.Errorf("split.direction %q not one of auto|horizontal|vertical", c.Split.Direction)
	}
	switch c.Split.Slot {
	case "first", "second":
	default:
		return fmt.Errorf("split.slot %q not one of first|second", c.Split.Slot)
	}
	if len(c.Desktops) == 0 {
		return fmt.Errorf("at least one desktop is required")
	}
	if c.Gap < 0 {
		return fmt.Errorf("gap must not be negative")
	}
	return nil
}

// InsertDefaults maps the configured split policy onto engine insertion
// parameters. Direction "auto" is resolved by the caller against the
// target leaf's rectangle, signalled here by auto=true.
func (c *Config) InsertDefaults() (ins tree.Insert, auto bool) {
	ins = tree.Insert{Ratio: c.Split.Ratio}
	if c.Split.Slot == "first" {
		ins.Slot = tree.SlotFirst
	} else {
		ins.Slot = tree.SlotSecond
	}
	switch c.Split.Direction {
	case "horizontal":
		ins.Dir = tree.Horizontal
	case "vertical":
		ins.Dir = tree.Vertical
	default:
		return ins, true
	}
	return ins, false
}

// Path returns the config file location, creating parent directories as
// needed.
func Path() (string, error) {
	return xdg.ConfigFile("shoji/shoji.toml")
}

// DefaultSocketPath returns the control socket location: the XDG runtime
// directory when available, the temp directory otherwise.
func DefaultSocketPath() string {
	if xdg.RuntimeDir != "" {
		return filepath.Join(xdg.RuntimeDir, "shoji.sock")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("shoji-%d.sock", os.Getuid()))
}

// Load reads the config file, writing the defaults first if it does not
// exist yet. A file that fails to parse or validate is an error; the
// caller decides whether to fall back to Default.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	return LoadFrom(path)
}

// LoadFrom reads a config file at an explicit path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := Default()
		if werr := Write(path, cfg); werr != nil {
			return nil, fmt.Errorf("write default config: %w", werr)
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Write marshals the config to path.
func Write(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
