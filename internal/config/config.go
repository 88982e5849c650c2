// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for exachat.
//
// Configuration sources (in order of precedence):
//   - Environment variables
//   - ~/.exachat/config.toml
//   - Built-in defaults
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete exachat configuration.
type Config struct {
	// Server configuration for the relay process.
	Server ServerConfig `toml:"server"`

	// Upstream configuration for the completion provider.
	Upstream UpstreamConfig `toml:"upstream"`

	// Client configuration for the chat REPL.
	Client ClientConfig `toml:"client"`
}

// ServerConfig contains relay server settings.
type ServerConfig struct {
	// Port is the TCP port the relay listens on.
	Port int `toml:"port"`
}

// UpstreamConfig contains completion provider settings.
type UpstreamConfig struct {
	// BaseURL is the provider's API root.
	BaseURL string `toml:"base_url"`
	// Token is the provider API token. Usually supplied via FRIENDLI_TOKEN
	// rather than the config file.
	Token string `toml:"token"`
	// Model is the completion model identifier.
	Model string `toml:"model"`
}

// ClientConfig contains chat client settings.
type ClientConfig struct {
	// RelayURL is the base URL of the relay the client talks to.
	RelayURL string `toml:"relay_url"`
	// DataDir overrides the directory conversation state is stored in.
	DataDir string `toml:"data_dir"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
		},
		Upstream: UpstreamConfig{
			BaseURL: "https://api.friendli.ai/serverless/v1",
			Model:   "LGAI-EXAONE/K-EXAONE-236B-A23B",
		},
		Client: ClientConfig{
			RelayURL: "http://localhost:8080",
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the exachat configuration directory (~/.exachat).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".exachat"), nil
}

// ConfigPath returns the path to the TOML configuration file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the configuration from the default path, applies environment
// overrides, and validates the result. A missing config file is not an
// error; defaults are used.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads the configuration from an explicit path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides config fields from environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("EXACHAT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("EXACHAT_UPSTREAM_URL"); v != "" {
		cfg.Upstream.BaseURL = v
	}
	if v := os.Getenv("FRIENDLI_TOKEN"); v != "" {
		cfg.Upstream.Token = v
	}
	if v := os.Getenv("EXACHAT_MODEL"); v != "" {
		cfg.Upstream.Model = v
	}
	if v := os.Getenv("EXACHAT_RELAY_URL"); v != "" {
		cfg.Client.RelayURL = v
	}
	if v := os.Getenv("EXACHAT_DATA_DIR"); v != "" {
		cfg.Client.DataDir = v
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes a single invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return "invalid configuration: " + strings.Join(msgs, "; ")
}

// Validate checks the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("must be 1-65535, got %d", c.Server.Port),
		})
	}

	if err := validURL(c.Upstream.BaseURL); err != nil {
		errs = append(errs, ValidationError{
			Field:   "upstream.base_url",
			Message: err.Error(),
		})
	}

	if err := validURL(c.Client.RelayURL); err != nil {
		errs = append(errs, ValidationError{
			Field:   "client.relay_url",
			Message: err.Error(),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// validURL checks that s parses as an absolute http(s) URL.
func validURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL has no host: %q", s)
	}
	return nil
}
