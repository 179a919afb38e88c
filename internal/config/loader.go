// Package config loads thqm settings from the config directory and
// resolves the directories thqm reads from.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/thqm-go/thqm/internal/logging"
)

// AppName names the per-user config and data directories.
const AppName = "thqm"

// File names inside the config directory.
const (
	ConfigFileName = "config.yaml"
	EnvFileName    = "thqm.env"
)

// Default values for Config.
const (
	DefaultPort      = 8000
	DefaultSeparator = "\n"
	DefaultTitle     = "thqm"
	DefaultStyle     = "default"
	DefaultLogLevel  = "warn"
)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Port:      DefaultPort,
		Separator: DefaultSeparator,
		Title:     DefaultTitle,
		Style:     DefaultStyle,
		LogLevel:  DefaultLogLevel,
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// ConfigDir returns the per-user thqm config directory.
func ConfigDir() (string, error) {
	if xdg.ConfigHome == "" {
		return "", errors.New("failed to get default config directory")
	}
	return filepath.Join(xdg.ConfigHome, AppName), nil
}

// DataDir returns the per-user thqm data directory, where installed styles
// live.
func DataDir() (string, error) {
	if xdg.DataHome == "" {
		return "", errors.New("failed to get default data directory")
	}
	return filepath.Join(xdg.DataHome, AppName), nil
}

// LoadConfig reads and parses config.yaml from configDir.
// If the file doesn't exist, returns default config.
// Applies defaults for any missing fields. Values are validated by
// ValidateConfig once env and flags have been applied.
func LoadConfig(configDir string) (*Config, error) {
	configPath := filepath.Join(configDir, ConfigFileName)

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	logging.Debug("loaded config file", "path", configPath)

	return &cfg, nil
}

// ValidateConfig checks that all config values are valid.
func ValidateConfig(cfg *Config) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return ValidationError{Field: "port", Message: "must be between 1 and 65535"}
	}
	if cfg.Separator == "" {
		return ValidationError{Field: "separator", Message: "must not be empty"}
	}
	if cfg.Style == "" {
		return ValidationError{Field: "style", Message: "must not be empty"}
	}
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		return ValidationError{Field: "log_level", Message: err.Error()}
	}
	return nil
}

// LoadEnvFile parses thqm.env in configDir into a map of key-value pairs.
// A missing file yields an empty map.
func LoadEnvFile(configDir string) (map[string]string, error) {
	envPath := filepath.Join(configDir, EnvFileName)

	env, err := godotenv.Read(envPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("failed to read env file: %w", err)
	}
	return env, nil
}

// ApplyEnv overrides cfg with THQM_* values. Values from the process
// environment take precedence over the env file. Only malformed values are
// rejected here; ranges are checked by ValidateConfig on the merged config.
func ApplyEnv(cfg *Config, env map[string]string) error {
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := env[key]
		return v, ok
	}

	if v, ok := lookup(EnvUsername); ok {
		cfg.Username = v
	}
	if v, ok := lookup(EnvPassword); ok {
		cfg.Password = v
	}
	if v, ok := lookup(EnvStyle); ok && v != "" {
		cfg.Style = v
	}
	if v, ok := lookup(EnvPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return ValidationError{Field: EnvPort, Message: "must be an integer"}
		}
		cfg.Port = port
	}

	return nil
}

// ParseEntries splits the raw input into entries on separator, dropping
// empty entries. A trailing "\r" is trimmed when splitting on newlines.
func ParseEntries(input, separator string) []string {
	if separator == "" {
		separator = DefaultSeparator
	}

	var entries []string
	for _, entry := range strings.Split(input, separator) {
		if separator == "\n" {
			entry = strings.TrimSuffix(entry, "\r")
		}
		if entry == "" {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}
