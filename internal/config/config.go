// Package config holds the bridge configuration file and path helpers.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the global ~/.jamibridge/config.toml.
type Config struct {
	// DataDir is the daemon storage root passed to Initialize.
	DataDir string `toml:"data_dir"`
	// LogPath overrides the default log file location.
	LogPath string `toml:"log_path"`
	// CallTimeoutMS bounds every synchronous daemon call. The daemon's own
	// timeout policy usually fires first; this is the outer bound.
	CallTimeoutMS int `toml:"call_timeout_ms"`
	// SignalBuffer is the daemon signal queue depth.
	SignalBuffer int `toml:"signal_buffer"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DataDir:       DataDir(),
		LogPath:       LogPath(),
		CallTimeoutMS: 30_000,
		SignalBuffer:  256,
	}
}

// CallTimeout returns the synchronous call bound as a duration.
func (c *Config) CallTimeout() time.Duration {
	if c.CallTimeoutMS <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.CallTimeoutMS) * time.Millisecond
}

// Load reads config from the given path, filling unset fields with
// defaults. A missing file returns the defaults without error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if cfg.DataDir == "" {
		cfg.DataDir = DataDir()
	}
	if cfg.LogPath == "" {
		cfg.LogPath = LogPath()
	}
	if cfg.SignalBuffer <= 0 {
		cfg.SignalBuffer = 256
	}
	return cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
