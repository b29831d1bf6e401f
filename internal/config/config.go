// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for polychat.
//
// Configuration is TOML with sensible defaults and environment variable
// overrides. File location: ~/.polychat/config.toml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"polychat/internal/model"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete polychat configuration.
type Config struct {
	// DefaultModel is the model selected when the app starts.
	DefaultModel string `toml:"default_model"`

	// Cloud is the completion API configuration.
	Cloud CloudConfig `toml:"cloud"`

	// Storage selects and locates the history backend.
	Storage StorageConfig `toml:"storage"`

	// UI configuration.
	UI UIConfig `toml:"ui"`

	// Models overrides the built-in model list when non-empty.
	Models []model.Info `toml:"models"`
}

// CloudConfig contains completion API configuration.
type CloudConfig struct {
	// APIKey is the bearer key for the completion API.
	APIKey string `toml:"api_key"`
	// BaseURL overrides the default API base URL.
	BaseURL string `toml:"base_url"`
}

// StorageConfig contains history persistence configuration.
type StorageConfig struct {
	// Backend is "file" or "sqlite".
	Backend string `toml:"backend"`
	// Path overrides the backend location. For "file" this is a directory,
	// for "sqlite" a database file. Empty means the default under ~/.polychat.
	Path string `toml:"path"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is "dark" or "light".
	Theme string `toml:"theme"`
	// HistoryOpen shows the past-chats panel on startup.
	HistoryOpen bool `toml:"history_open"`
}

// =============================================================================
// DEFAULTS AND PATHS
// =============================================================================

// Default returns the built-in default configuration.
func Default() *Config {
	return &Config{
		DefaultModel: model.DefaultRegistry().Default().ID,
		Cloud: CloudConfig{
			BaseURL: "https://openrouter.ai/api/v1",
		},
		Storage: StorageConfig{
			Backend: "file",
		},
		UI: UIConfig{
			Theme:       "dark",
			HistoryOpen: false,
		},
	}
}

// Dir returns the polychat configuration directory (~/.polychat).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".polychat"), nil
}

// Path returns the configuration file path (~/.polychat/config.toml).
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureDir creates the configuration directory if needed.
func EnsureDir() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the configuration from the default path, falling back to
// defaults when the file is missing. Environment overrides apply last.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		return cfg, nil
	}
	return LoadFromPath(path)
}

// LoadFromPath reads the configuration from an explicit path. A missing
// file is not an error; a malformed one is.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if _, statErr := os.Stat(path); statErr == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
	}

	cfg.fillDefaults()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults backfills zero values a partial file left unset.
func (c *Config) fillDefaults() {
	def := Default()
	if c.DefaultModel == "" {
		c.DefaultModel = def.DefaultModel
	}
	if c.Cloud.BaseURL == "" {
		c.Cloud.BaseURL = def.Cloud.BaseURL
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = def.Storage.Backend
	}
	if c.UI.Theme == "" {
		c.UI.Theme = def.UI.Theme
	}
}

// ApplyEnvOverrides applies environment variables over file values.
//
// POLYCHAT_API_KEY, POLYCHAT_MODEL, and POLYCHAT_BASE_URL are recognized,
// plus OPENROUTER_API_KEY as a conventional fallback for the key.
func (c *Config) ApplyEnvOverrides() {
	if key := os.Getenv("POLYCHAT_API_KEY"); key != "" {
		c.Cloud.APIKey = key
	} else if key := os.Getenv("OPENROUTER_API_KEY"); key != "" && c.Cloud.APIKey == "" {
		c.Cloud.APIKey = key
	}
	if m := os.Getenv("POLYCHAT_MODEL"); m != "" {
		c.DefaultModel = m
	}
	if u := os.Getenv("POLYCHAT_BASE_URL"); u != "" {
		c.Cloud.BaseURL = u
	}
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "file", "sqlite":
	default:
		return fmt.Errorf("storage.backend must be \"file\" or \"sqlite\", got %q", c.Storage.Backend)
	}

	switch c.UI.Theme {
	case "dark", "light":
	default:
		return fmt.Errorf("ui.theme must be \"dark\" or \"light\", got %q", c.UI.Theme)
	}

	if !strings.HasPrefix(c.Cloud.BaseURL, "http://") && !strings.HasPrefix(c.Cloud.BaseURL, "https://") {
		return fmt.Errorf("cloud.base_url must be an http(s) URL, got %q", c.Cloud.BaseURL)
	}

	for i, m := range c.Models {
		if m.ID == "" {
			return fmt.Errorf("models[%d]: id is required", i)
		}
	}
	return nil
}

// Registry builds the model registry from the configuration: the [[models]]
// list when present, otherwise the built-in models.
func (c *Config) Registry() *model.Registry {
	return model.NewRegistry(c.Models)
}

// StoragePath returns the effective storage location for the configured
// backend, creating no directories.
func (c *Config) StoragePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	if c.Storage.Backend == "sqlite" {
		return filepath.Join(dir, "history.db"), nil
	}
	return filepath.Join(dir, "history"), nil
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the configuration to the default path.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration as TOML.
// SECURITY: 0600 because the file may hold the API key.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("# polychat configuration\n\n")
	if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
