// Package config holds the runner configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"go.yaml.in/yaml/v3"

	"github.com/sarchlab/armv7/loader"
)

// Memory backends.
const (
	BackendSparse = "sparse"
	BackendMmap   = "mmap"
)

// DecodeCache configures the per-thread instruction fetch cache.
type DecodeCache struct {
	Enabled   bool `yaml:"enabled" json:"enabled"`
	Sets      int  `yaml:"sets" json:"sets"`
	Ways      int  `yaml:"ways" json:"ways"`
	BlockSize int  `yaml:"block_size" json:"block_size"`
}

// Config holds the settings of one run.
type Config struct {
	// MaxInstructions bounds the instructions each thread may retire. Zero
	// means no limit.
	MaxInstructions uint64 `yaml:"max_instructions" json:"max_instructions"`

	// MainStackSize is the stack size of the main thread in bytes.
	MainStackSize uint32 `yaml:"main_stack_size" json:"main_stack_size"`

	// MainPriority is the priority reported for the main thread.
	MainPriority int32 `yaml:"main_priority" json:"main_priority"`

	// TLSSlots is the capacity of the TLS slot table.
	TLSSlots int `yaml:"tls_slots" json:"tls_slots"`

	DecodeCache DecodeCache `yaml:"decode_cache" json:"decode_cache"`

	// BreakReservationOnStore makes ordinary stores clear exclusive
	// reservations of other threads on the same location.
	BreakReservationOnStore bool `yaml:"break_reservation_on_store" json:"break_reservation_on_store"`

	// MemoryBackend is "sparse" or "mmap".
	MemoryBackend string `yaml:"memory_backend" json:"memory_backend"`

	// FileRoot is the host directory guest paths resolve in. Empty refuses
	// every guest open; the standard streams still work.
	FileRoot string `yaml:"file_root" json:"file_root"`

	// LogLevel is a logrus level name.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Imports lists the stubs to patch with native calls.
	Imports []loader.Import `yaml:"imports" json:"imports"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		MainStackSize: 0x40000,
		MainPriority:  160,
		TLSSlots:      32,
		DecodeCache: DecodeCache{
			Enabled:   true,
			Sets:      128,
			Ways:      4,
			BlockSize: 64,
		},
		MemoryBackend: BackendSparse,
		LogLevel:      "info",
	}
}

// Load reads a configuration file. ".yaml" and ".yml" files are YAML, all
// others JSON. Fields missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	c := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return c, nil
}

// Save writes the configuration in the format its extension selects.
func (c *Config) Save(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks that the settings are usable.
func (c *Config) Validate() error {
	if c.MainStackSize < 0x1000 {
		return fmt.Errorf("main_stack_size must be >= 0x1000, got 0x%x", c.MainStackSize)
	}
	if c.TLSSlots <= 0 {
		return fmt.Errorf("tls_slots must be > 0")
	}
	if c.MemoryBackend != BackendSparse && c.MemoryBackend != BackendMmap {
		return fmt.Errorf("memory_backend must be %q or %q, got %q", BackendSparse, BackendMmap, c.MemoryBackend)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.FileRoot != "" {
		info, err := os.Stat(c.FileRoot)
		if err != nil {
			return fmt.Errorf("file_root: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("file_root %s is not a directory", c.FileRoot)
		}
	}

	if dc := c.DecodeCache; dc.Enabled {
		if dc.Sets <= 0 || dc.Ways <= 0 {
			return fmt.Errorf("decode_cache sets and ways must be > 0")
		}
		if dc.BlockSize < 4 || dc.BlockSize&(dc.BlockSize-1) != 0 {
			return fmt.Errorf("decode_cache block_size must be a power of two >= 4, got %d", dc.BlockSize)
		}
		if dc.Sets&(dc.Sets-1) != 0 {
			return fmt.Errorf("decode_cache sets must be a power of two, got %d", dc.Sets)
		}
	}

	for i, imp := range c.Imports {
		if imp.Module == "" || imp.Symbol == "" {
			return fmt.Errorf("imports[%d]: module and symbol are required", i)
		}
	}
	return nil
}

// Level returns the parsed log level.
func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
