// Package config loads the engine's TOML configuration file, falling back
// to defaults for anything left unset.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// DefaultPath is where the CLI looks when no --config flag is given.
const DefaultPath = "permagit.toml"

// Redis configures the optional event stream sink.
type Redis struct {
	Addr   string `toml:"addr"`
	Stream string `toml:"stream"`
}

// Quota configures the storage accounting defaults.
type Quota struct {
	InitialBytes uint64 `toml:"initial_bytes"`
	UnitBytes    uint64 `toml:"unit_bytes"`
	UnitPrice    uint64 `toml:"unit_price"`
}

// Config is the full engine configuration.
type Config struct {
	StateDir      string `toml:"state_dir"`
	DefaultBranch string `toml:"default_branch"`
	Identity      string `toml:"identity"`
	SigningKey    string `toml:"signing_key"`
	LogLevel      string `toml:"log_level"`
	Redis         Redis  `toml:"redis"`
	Quota         Quota  `toml:"quota"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		StateDir:      ".permagit",
		DefaultBranch: "main",
		LogLevel:      "info",
		Redis:         Redis{Stream: "permagit:events"},
		Quota: Quota{
			InitialBytes: 100 << 20,
			UnitBytes:    1 << 20,
			UnitPrice:    100,
		},
	}
}

// Load reads the TOML file at path. A missing file is not an error: the
// defaults are returned. Unset fields fall back to their defaults too.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if cfg.StateDir == "" {
		cfg.StateDir = Default().StateDir
	}
	if cfg.DefaultBranch == "" {
		cfg.DefaultBranch = Default().DefaultBranch
	}
	return cfg, nil
}

// StatePath returns the path of the bolt state file under the state dir.
func (c Config) StatePath() string {
	return filepath.Join(c.StateDir, "state.db")
}
