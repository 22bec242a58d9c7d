package config

import (
	"os"
	"path/filepath"
)

// BaseDir returns ~/.jamibridge.
func BaseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".jamibridge")
}

// DataDir returns the default daemon storage root.
func DataDir() string {
	return filepath.Join(BaseDir(), "data")
}

// LogDir returns the log directory.
func LogDir() string {
	return filepath.Join(BaseDir(), "logs")
}

// LogPath returns the default bridge log file path.
func LogPath() string {
	return filepath.Join(LogDir(), "jamibridged.log")
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// EnsureDirs creates the directory tree with owner-only permissions.
func EnsureDirs(dataDir string) error {
	dirs := []string{
		BaseDir(),
		LogDir(),
		dataDir,
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
