// Package config provides configuration management for the tunnel manager.
// It handles loading, saving, and managing application settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/yllada/wg-tunnels/common"
)

// Config represents the application configuration.
// All settings are persisted to a YAML file in the user's config directory.
type Config struct {
	// StoreBackend selects tunnel persistence: "yaml" or "sqlite".
	StoreBackend string `yaml:"store_backend"`
	// DataDir overrides where tunnels and secrets are kept.
	// Empty means the configuration directory.
	DataDir string `yaml:"data_dir,omitempty"`
	// ShowNotifications enables desktop notifications for tunnel events.
	ShowNotifications bool `yaml:"show_notifications"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// LogToFile enables the rotated log file.
	LogToFile bool `yaml:"log_to_file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		StoreBackend:      common.StoreBackendYAML,
		ShowNotifications: true,
		LogLevel:          common.LogLevelInfo,
		LogToFile:         false,
	}
}

// Load loads the configuration from the default config file.
// If the file doesn't exist, it creates one with default values.
func Load() (*Config, error) {
	configPath, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from configPath, writing defaults there
// if the file doesn't exist.
func LoadFrom(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := cfg.SaveTo(configPath); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrConfigLoad, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true) // Strict validation: reject unknown fields

	config := DefaultConfig()
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("%w: error parsing %s: %v", common.ErrConfigLoad, configPath, err)
	}

	config.validate()
	return config, nil
}

// validate replaces invalid values with defaults.
func (c *Config) validate() {
	if !common.StringInSlice(c.StoreBackend, []string{common.StoreBackendYAML, common.StoreBackendSQLite}) {
		common.LogWarn("Unknown store backend %q, using %s", c.StoreBackend, common.StoreBackendYAML)
		c.StoreBackend = common.StoreBackendYAML
	}
	validLevels := []string{common.LogLevelDebug, common.LogLevelInfo, common.LogLevelWarn, common.LogLevelError}
	if !common.StringInSlice(c.LogLevel, validLevels) {
		c.LogLevel = common.LogLevelInfo
	}
}

// Save saves the configuration to the default file.
func (c *Config) Save() error {
	configPath, err := DefaultPath()
	if err != nil {
		return err
	}
	return c.SaveTo(configPath)
}

// SaveTo saves the configuration to configPath.
func (c *Config) SaveTo(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return fmt.Errorf("%w: error creating config directory: %v", common.ErrConfigSave, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrConfigSave, err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("%w: %v", common.ErrConfigSave, err)
	}

	return nil
}

// ResolveDataDir returns DataDir, or the directory holding configPath.
func (c *Config) ResolveDataDir(configPath string) string {
	if c.DataDir != "" {
		return c.DataDir
	}
	return filepath.Dir(configPath)
}

// DefaultPath returns ~/.config/wg-tunnels/config.yaml.
func DefaultPath() (string, error) {
	dir, err := common.GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, common.ConfigFileName), nil
}
