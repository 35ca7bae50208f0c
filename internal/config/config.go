// Package config handles configuration file loading and parsing.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Default configuration values.
const (
	DefaultVolume          = 100
	DefaultMinBreakSeconds = 0
	DefaultMaxBreakSeconds = 0
	DefaultConfigName      = "config.yaml"
	DefaultMediaDirName    = "media"
)

// Configuration errors. LoadConfig still returns a usable config alongside them.
var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigEmpty    = errors.New("config file is empty or invalid")
)

// Config represents the ambient player configuration.
type Config struct {
	TimeCategories  []TimeCategory `yaml:"time_categories" toml:"time_categories"`
	MinBreakSeconds int            `yaml:"min_break_seconds" toml:"min_break_seconds"`
	MaxBreakSeconds int            `yaml:"max_break_seconds" toml:"max_break_seconds"`
	MediaDir        string         `yaml:"media_dir,omitempty" toml:"media_dir,omitempty"` // Default: <config dir>/media
	Audio           AudioConfig    `yaml:"audio" toml:"audio"`

	// Keys that were absent from the file and left at their defaults.
	defaulted []string
}

// TimeCategory is one named window as written in the config file.
type TimeCategory struct {
	Name      string `yaml:"name" toml:"name"`
	StartTime string `yaml:"start_time" toml:"start_time"` // "HH:MM"
	EndTime   string `yaml:"end_time" toml:"end_time"`     // "HH:MM"
}

// AudioConfig contains audio output settings.
type AudioConfig struct {
	Volume       int  `yaml:"volume" toml:"volume"`               // 0-100
	CacheDecoded bool `yaml:"cache_decoded" toml:"cache_decoded"` // Keep decoded clips in memory between plays
}

// fileConfig mirrors Config with pointers so absent break bounds can be told
// apart from explicit zeros.
type fileConfig struct {
	TimeCategories  []TimeCategory `yaml:"time_categories" toml:"time_categories"`
	MinBreakSeconds *int           `yaml:"min_break_seconds" toml:"min_break_seconds"`
	MaxBreakSeconds *int           `yaml:"max_break_seconds" toml:"max_break_seconds"`
	MediaDir        string         `yaml:"media_dir" toml:"media_dir"`
	Audio           AudioConfig    `yaml:"audio" toml:"audio"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		MinBreakSeconds: DefaultMinBreakSeconds,
		MaxBreakSeconds: DefaultMaxBreakSeconds,
		Audio: AudioConfig{
			Volume:       DefaultVolume,
			CacheDecoded: true,
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "ambient", DefaultConfigName)
}

// DefaultMediaDir returns the media directory that sits next to the config file.
func DefaultMediaDir(configPath string) string {
	if configPath == "" {
		configPath = ConfigPath()
	}
	return filepath.Join(filepath.Dir(configPath), DefaultMediaDirName)
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
//
// A usable config is always returned. The error, when set, describes why
// the file contents were not (fully) applied: ErrConfigNotFound,
// ErrConfigEmpty, a decode error or a validation error.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()
	cfg.MediaDir = DefaultMediaDir(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, fmt.Errorf("%w: %s", ErrConfigEmpty, path)
	}

	// Pre-fill nested defaults so a partial [audio] section keeps the rest.
	raw := fileConfig{Audio: cfg.Audio}
	if err := decode(path, data, &raw); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.apply(&raw, path)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// decode picks the format from the file extension. YAML is the default.
func decode(path string, data []byte, raw *fileConfig) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Unmarshal(data, raw)
	default:
		return yaml.Unmarshal(data, raw)
	}
}

// apply overlays decoded file values on top of the defaults.
func (c *Config) apply(raw *fileConfig, path string) {
	c.TimeCategories = raw.TimeCategories

	if raw.MinBreakSeconds != nil {
		c.MinBreakSeconds = *raw.MinBreakSeconds
	} else {
		c.defaulted = append(c.defaulted, "min_break_seconds")
	}
	if raw.MaxBreakSeconds != nil {
		c.MaxBreakSeconds = *raw.MaxBreakSeconds
	} else {
		c.defaulted = append(c.defaulted, "max_break_seconds")
	}

	if raw.MediaDir != "" {
		c.MediaDir = resolvePath(raw.MediaDir, filepath.Dir(path))
	}
	c.Audio = raw.Audio
}

// Defaulted returns the keys that were missing from the file and use defaults.
func (c *Config) Defaulted() []string {
	return c.defaulted
}

// Validate checks if the configuration is valid.
// A reversed break range is not an error here; the scheduler reorders it.
func (c *Config) Validate() error {
	if c.MinBreakSeconds < 0 {
		return fmt.Errorf("min_break_seconds must not be negative, got %d", c.MinBreakSeconds)
	}
	if c.MaxBreakSeconds < 0 {
		return fmt.Errorf("max_break_seconds must not be negative, got %d", c.MaxBreakSeconds)
	}
	if c.Audio.Volume < 0 || c.Audio.Volume > 100 {
		return fmt.Errorf("volume must be between 0 and 100, got %d", c.Audio.Volume)
	}
	return nil
}

// resolvePath expands ~ and makes relative paths relative to base.
func resolvePath(path, base string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	if !filepath.IsAbs(path) {
		return filepath.Join(base, path)
	}
	return path
}
