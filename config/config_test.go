package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.ISA.Preset != "full-im" {
		t.Errorf("Expected ISA.Preset=full-im, got %s", cfg.ISA.Preset)
	}
	if cfg.Execution.MaxCycles != 10_000_000 {
		t.Errorf("Expected MaxCycles=10000000, got %d", cfg.Execution.MaxCycles)
	}
	if cfg.Execution.EntryPoint != "0x01000000" {
		t.Errorf("Expected EntryPoint=0x01000000, got %s", cfg.Execution.EntryPoint)
	}
	if cfg.Display.NumberFormat != "hex" {
		t.Errorf("Expected NumberFormat=hex, got %s", cfg.Display.NumberFormat)
	}
	if cfg.Trace.MaxEntries != 1_000_000 {
		t.Errorf("Expected MaxEntries=1000000, got %d", cfg.Trace.MaxEntries)
	}
	if cfg.API.Port != 9790 {
		t.Errorf("Expected Port=9790, got %d", cfg.API.Port)
	}
}

func TestGetConfigPath(t *testing.T) {
	path := GetConfigPath()

	if path == "" {
		t.Error("GetConfigPath returned empty string")
	}
	if filepath.Base(path) != "config.toml" {
		t.Errorf("Expected path to end with config.toml, got %s", path)
	}

	switch runtime.GOOS {
	case "windows":
		if !filepath.IsAbs(path) && path != "config.toml" {
			t.Errorf("Expected absolute path on Windows, got %s", path)
		}
	case "darwin", "linux":
		dir := filepath.Dir(path)
		if filepath.Base(dir) != "rv32sim" && path != "config.toml" {
			t.Errorf("Expected path in rv32sim directory or fallback, got %s", path)
		}
	}
}

func TestGetLogPath(t *testing.T) {
	path := GetLogPath()

	if path == "" {
		t.Error("GetLogPath returned empty string")
	}

	switch runtime.GOOS {
	case "windows":
		if !filepath.IsAbs(path) && path != "logs" {
			t.Errorf("Expected absolute path on Windows, got %s", path)
		}
	case "darwin", "linux":
		if filepath.Base(path) != "logs" {
			t.Errorf("Expected path to end with logs, got %s", path)
		}
	}
}

func TestSaveAndLoad(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "test_config.toml")

	cfg := DefaultConfig()
	cfg.Execution.MaxCycles = 5_000_000
	cfg.Trace.Enabled = true
	cfg.Oracle.MockReadsBeforeWrites = true
	cfg.Display.ColorOutput = false
	cfg.ISA.Preset = "proving-subset"

	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("Config file was not created")
	}

	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loaded.Execution.MaxCycles != 5_000_000 {
		t.Errorf("Expected MaxCycles=5000000, got %d", loaded.Execution.MaxCycles)
	}
	if !loaded.Trace.Enabled {
		t.Error("Expected Trace.Enabled=true")
	}
	if !loaded.Oracle.MockReadsBeforeWrites {
		t.Error("Expected Oracle.MockReadsBeforeWrites=true")
	}
	if loaded.Display.ColorOutput {
		t.Error("Expected ColorOutput=false")
	}
	if loaded.ISA.Preset != "proving-subset" {
		t.Errorf("Expected ISA.Preset=proving-subset, got %s", loaded.ISA.Preset)
	}
}

func TestLoadNonExistent(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "nonexistent.toml")

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom should not error on non-existent file: %v", err)
	}

	if cfg.Execution.MaxCycles != 10_000_000 {
		t.Error("Expected default config when file doesn't exist")
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "invalid.toml")

	invalidTOML := `
[execution]
max_cycles = "not a number"
`
	if err := os.WriteFile(configPath, []byte(invalidTOML), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if _, err := LoadFrom(configPath); err == nil {
		t.Error("Expected error when loading invalid TOML")
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "subdir1", "subdir2", "config.toml")

	cfg := DefaultConfig()
	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("Config file was not created")
	}

	dir := filepath.Dir(configPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Error("Parent directories were not created")
	}
}

func TestParseEntryPoint(t *testing.T) {
	cfg := DefaultConfig()
	v, err := cfg.ParseEntryPoint()
	if err != nil {
		t.Fatalf("ParseEntryPoint failed: %v", err)
	}
	if v != 0x01000000 {
		t.Errorf("Expected 0x01000000, got %#x", v)
	}
}
