// Package config provides file-based configuration for the import
// service. A default file is written on first run so a fresh deployment
// starts with something editable.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// AppConfig is the root configuration structure.
type AppConfig struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Locations LocationsConfig `yaml:"locations"`
	Import    ImportConfig    `yaml:"import"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port                 int    `yaml:"port"`
	BindAddress          string `yaml:"bind_address"`
	EnableCORS           bool   `yaml:"enable_cors"`
	AllowOrigins         string `yaml:"allow_origins"`
	ReadTimeout          int    `yaml:"read_timeout_seconds"`
	WriteTimeout         int    `yaml:"write_timeout_seconds"`
	IdleTimeout          int    `yaml:"idle_timeout_seconds"`
	BodyLimit            string `yaml:"body_limit"`
	EnableRequestLogging bool   `yaml:"enable_request_logging"`
}

// StorageConfig contains the local store and scratch directories.
type StorageConfig struct {
	DataDirectory    string `yaml:"data_directory"`
	ScratchDirectory string `yaml:"scratch_directory"`
}

// LocationsConfig names the three logical folders of the import flow.
type LocationsConfig struct {
	Raw     string `yaml:"raw"`
	Archive string `yaml:"archive"`
	Extract string `yaml:"extract"`
}

// ImportConfig contains run-history housekeeping settings.
type ImportConfig struct {
	RunMaxAgeMinutes       int `yaml:"run_max_age_minutes"`
	CleanupIntervalMinutes int `yaml:"cleanup_interval_minutes"`
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:                 8090,
			BindAddress:          "0.0.0.0",
			EnableCORS:           true,
			AllowOrigins:         "*",
			ReadTimeout:          30,
			WriteTimeout:         30,
			IdleTimeout:          120,
			BodyLimit:            "512M",
			EnableRequestLogging: true,
		},
		Storage: StorageConfig{
			DataDirectory:    "./data",
			ScratchDirectory: "./data/scratch",
		},
		Locations: LocationsConfig{
			Raw:     "raw",
			Archive: "archive",
			Extract: "extract",
		},
		Import: ImportConfig{
			RunMaxAgeMinutes:       1440,
			CleanupIntervalMinutes: 30,
		},
	}
}

// LoadConfig loads configuration from a YAML file, creating it with
// defaults when absent.
func LoadConfig(configPath string) (*AppConfig, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := cfg.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()
	cfg.resolvePaths(filepath.Dir(configPath))

	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *AppConfig) Save(configPath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# drive-merger configuration\n# This file is auto-generated on first run.\n\n")
	if err := os.WriteFile(configPath, append(header, data...), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// applyEnvironmentOverrides lets the environment override select values.
func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Storage.DataDirectory = dataDir
	}
	if scratch := os.Getenv("SCRATCH_DIR"); scratch != "" {
		c.Storage.ScratchDirectory = scratch
	}
}

// resolvePaths converts relative paths to absolute based on the config
// file location.
func (c *AppConfig) resolvePaths(configDir string) {
	if !filepath.IsAbs(c.Storage.DataDirectory) {
		c.Storage.DataDirectory = filepath.Join(configDir, c.Storage.DataDirectory)
	}
	if !filepath.IsAbs(c.Storage.ScratchDirectory) {
		c.Storage.ScratchDirectory = filepath.Join(configDir, c.Storage.ScratchDirectory)
	}
}

// GetServerAddr returns the server bind address.
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// EnsureDirectories creates all configured directories.
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.ScratchDirectory,
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
