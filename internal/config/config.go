// Package config locates the pkgmux directories and parses the main
// configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// BackendConfig overrides one backend's settings.
type BackendConfig struct {
	Enabled *bool  `toml:"enabled"`
	Bin     string `toml:"bin"`
}

// Config is the main configuration file (config.toml in the config dir).
type Config struct {
	// DefaultScope selects the ledger scope when --system is not given.
	DefaultScope string `toml:"default_scope"`

	// BackendTimeoutSeconds bounds backend subprocesses. Zero keeps the
	// built-in default.
	BackendTimeoutSeconds int `toml:"backend_timeout_seconds"`

	// ActionTimeoutSeconds bounds extension action subprocesses.
	ActionTimeoutSeconds int `toml:"action_timeout_seconds"`

	Backends map[string]BackendConfig `toml:"backends"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		DefaultScope: "user",
		Backends:     make(map[string]BackendConfig),
	}
}

// Load reads config.toml from the given directory. A missing file is not
// an error; defaults apply.
func Load(dir string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filepath.Join(dir, "config.toml"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Backends == nil {
		cfg.Backends = make(map[string]BackendConfig)
	}
	if cfg.DefaultScope != "user" && cfg.DefaultScope != "system" {
		return nil, fmt.Errorf("invalid default_scope %q: want user or system", cfg.DefaultScope)
	}
	return cfg, nil
}
