package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	cfg := Default()
	cfg.DataDir = "/custom/data"
	cfg.CallTimeoutMS = 5000
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.DataDir != "/custom/data" {
		t.Errorf("DataDir = %q, want /custom/data", loaded.DataDir)
	}
	if loaded.CallTimeoutMS != 5000 {
		t.Errorf("CallTimeoutMS = %d, want 5000", loaded.CallTimeoutMS)
	}
}

// TestLoadMissingReturnsDefaults verifies a missing config file is not an
// error; the bridge runs on defaults.
func TestLoadMissingReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DataDir == "" || cfg.LogPath == "" {
		t.Error("defaults not filled in")
	}
	if cfg.SignalBuffer != 256 {
		t.Errorf("SignalBuffer = %d, want 256", cfg.SignalBuffer)
	}
}

func TestLoadBackfillsEmptyFields(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")
	if err := os.WriteFile(path, []byte("call_timeout_ms = 1000\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DataDir == "" || cfg.LogPath == "" {
		t.Error("empty paths not backfilled with defaults")
	}
	if cfg.CallTimeoutMS != 1000 {
		t.Errorf("CallTimeoutMS = %d, want 1000", cfg.CallTimeoutMS)
	}
}

func TestCallTimeout(t *testing.T) {
	cfg := &Config{CallTimeoutMS: 1500}
	if got := cfg.CallTimeout(); got != 1500*time.Millisecond {
		t.Errorf("CallTimeout() = %v, want 1.5s", got)
	}
	// Zero and negative fall back to the default bound.
	for _, ms := range []int{0, -5} {
		cfg := &Config{CallTimeoutMS: ms}
		if got := cfg.CallTimeout(); got != 30*time.Second {
			t.Errorf("CallTimeout() with %d = %v, want 30s", ms, got)
		}
	}
}

func TestSavePermissions(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	if err := Save(path, Default()); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permission = %o, want 0600", perm)
	}
}
