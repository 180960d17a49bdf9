// Package config loads the tooldb configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the on-disk configuration.
type Config struct {
	// Database is the SQLite file holding offsets and tool metadata.
	Database string `toml:"database"`
	// ToolTable is the controller's tool table file. Empty runs standalone
	// with an in-memory table seeded from the database.
	ToolTable string `toml:"tool_table"`
	LogFile   string `toml:"log_file"`
	LogLevel  string `toml:"log_level"`
	// Axes lists the offset columns shown, e.g. "XYZ".
	Axes string `toml:"axes"`
	// Metric seeds the display units of a new database. Later toggles are
	// kept in the database.
	Metric      bool `toml:"metric"`
	HeartbeatMS int  `toml:"heartbeat_ms"`
}

// DefaultDir returns ~/.config/tooldb.
func DefaultDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "tooldb")
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.toml")
}

// Default returns the configuration used when no file exists.
func Default() Config {
	dir := DefaultDir()
	return Config{
		Database:    filepath.Join(dir, "tool_database.db"),
		LogFile:     filepath.Join(dir, "tooldb.log"),
		LogLevel:    "info",
		Axes:        "XYZ",
		Metric:      true,
		HeartbeatMS: 100,
	}
}

// Load reads the config at path. A missing file yields Default with no
// error. Unset keys keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	_, err := toml.DecodeFile(path, &cfg)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating parent directories.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return f.Close()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Database == "" {
		return errors.New("database path is empty")
	}
	if c.HeartbeatMS <= 0 {
		return fmt.Errorf("heartbeat_ms must be positive, got %d", c.HeartbeatMS)
	}
	for _, r := range strings.ToUpper(c.Axes) {
		if !strings.ContainsRune("XYZABCUVW", r) {
			return fmt.Errorf("unknown axis %q", r)
		}
	}
	return nil
}

// Heartbeat returns the heartbeat period.
func (c Config) Heartbeat() time.Duration {
	return time.Duration(c.HeartbeatMS) * time.Millisecond
}

// AxisList returns the configured axes as upper-case letters.
func (c Config) AxisList() []string {
	var axes []string
	for _, r := range strings.ToUpper(c.Axes) {
		axes = append(axes, string(r))
	}
	return axes
}
