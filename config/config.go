// Package config loads and saves the simulator's TOML configuration
// file. Direct adaptation of the teacher's config package: same
// DefaultConfig/Load/LoadFrom/Save/SaveTo/GetConfigPath/GetLogPath
// shape and the same github.com/BurntSushi/toml dependency, with the
// section set re-targeted from ARM debugger/display/statistics
// settings to the RV32 simulator's ISA/execution/trace/oracle/api/
// display settings (spec.md §3 "Configuration").
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config is the simulator's full configuration surface.
type Config struct {
	// ISA selects the feature-set preset and whether Sv32 translation
	// is active (spec.md §3 "Configuration", §4.1).
	ISA struct {
		Preset string `toml:"preset"` // "full-im" or "proving-subset"
		Sv32   bool   `toml:"sv32"`
	} `toml:"isa"`

	// Execution bounds how long the driver runs and where it starts.
	Execution struct {
		MaxCycles   uint64 `toml:"max_cycles"`
		EntryPoint  string `toml:"entry_point"` // hex, e.g. "0x01000000"
		TimerMatch  uint64 `toml:"timer_match"` // not applied to the machine; its reset value never fires
		MemoryWords uint32 `toml:"memory_words"` // backing store size, in 32-bit words
	} `toml:"execution"`

	// Trace controls the recording tracer (component C5).
	Trace struct {
		Enabled    bool   `toml:"enabled"`
		OutputFile string `toml:"output_file"`
		MaxEntries int    `toml:"max_entries"`
	} `toml:"trace"`

	// Oracle controls the non-determinism port's two configuration
	// bits (spec.md §4.5).
	Oracle struct {
		MockReadsBeforeWrites  bool `toml:"mock_reads_before_writes"`
		IgnoreWritesAfterReads bool `toml:"ignore_writes_after_reads"`
	} `toml:"oracle"`

	// API controls the optional HTTP/WebSocket trace-streaming server.
	API struct {
		Enabled bool `toml:"enabled"`
		Port    int  `toml:"port"`
	} `toml:"api"`

	// Display holds TUI/GUI display preferences; the current front ends
	// do not read them.
	Display struct {
		ColorOutput   bool   `toml:"color_output"`
		NumberFormat  string `toml:"number_format"` // hex, dec, both
		DisasmContext int    `toml:"disasm_context"`
	} `toml:"display"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.ISA.Preset = "full-im"
	cfg.ISA.Sv32 = false

	cfg.Execution.MaxCycles = 10_000_000
	cfg.Execution.EntryPoint = "0x01000000"
	cfg.Execution.TimerMatch = 0
	cfg.Execution.MemoryWords = 1 << 24 // matches vm.DefaultMemoryWords: 64 MiB of guest RAM

	cfg.Trace.Enabled = false
	cfg.Trace.OutputFile = "trace.ndjson"
	cfg.Trace.MaxEntries = 1_000_000

	cfg.Oracle.MockReadsBeforeWrites = false
	cfg.Oracle.IgnoreWritesAfterReads = false

	cfg.API.Enabled = false
	cfg.API.Port = 9790

	cfg.Display.ColorOutput = true
	cfg.Display.NumberFormat = "hex"
	cfg.Display.DisasmContext = 5

	return cfg
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "rv32sim")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "rv32sim")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// GetLogPath returns the platform-specific log directory path.
func GetLogPath() string {
	var logDir string

	switch runtime.GOOS {
	case "windows":
		logDir = os.Getenv("APPDATA")
		if logDir == "" {
			logDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		logDir = filepath.Join(logDir, "rv32sim", "logs")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "logs"
		}
		logDir = filepath.Join(homeDir, ".local", "share", "rv32sim", "logs")

	default:
		return "logs"
	}

	if err := os.MkdirAll(logDir, 0750); err != nil {
		return "logs"
	}

	return logDir
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file. A missing file
// is not an error; the defaults are returned instead.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to the specified file.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// ParseEntryPoint parses Execution.EntryPoint ("0x..."-prefixed hex or
// plain decimal) into a uint32.
func (c *Config) ParseEntryPoint() (uint32, error) {
	var value uint32
	if _, err := fmt.Sscanf(c.Execution.EntryPoint, "0x%x", &value); err == nil {
		return value, nil
	}
	if _, err := fmt.Sscanf(c.Execution.EntryPoint, "%d", &value); err != nil {
		return 0, fmt.Errorf("invalid entry_point %q: %w", c.Execution.EntryPoint, err)
	}
	return value, nil
}

// MemoryWordCount returns the configured backing-store size, defaulting
// to 1<<24 words (matching vm.DefaultMemoryWords) when unset or zero --
// a config file predating this setting, or one that explicitly zeroes
// it out, still gets a usable machine instead of one with no memory.
func (c *Config) MemoryWordCount() uint32 {
	if c.Execution.MemoryWords == 0 {
		return 1 << 24
	}
	return c.Execution.MemoryWords
}

// FeaturesPresetName returns the configured ISA preset name, defaulting
// to "full-im" when unset.
func (c *Config) FeaturesPresetName() string {
	if c.ISA.Preset == "" {
		return "full-im"
	}
	return c.ISA.Preset
}
