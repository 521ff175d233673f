// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Defaults applied by MergeWithDefaults when neither the file nor the flags set a value
const (
	DefaultLimit          = 10
	DefaultWorkers        = 4
	DefaultPort           = 8080
	DefaultEmbeddingModel = "text-embedding-004"
	DefaultLogMode        = "development"
)

// Config represents the configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults, environment variables, or CLI flags.
type Config struct {
	// Connections
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL
	APIKey      string `json:"api_key,omitempty"`      // Gemini API key

	// Matching
	Limit   int `json:"limit,omitempty"`   // Maximum matches returned
	Workers int `json:"workers,omitempty"` // Scoring goroutines for large pools

	// Models
	EmbeddingModel string `json:"embedding_model,omitempty"` // Gemini embedding model name

	// Behavior
	LogMode string `json:"log_mode,omitempty"` // "production" or "development"
	Port    int    `json:"port,omitempty"`     // HTTP port for serve
	Verbose bool   `json:"verbose,omitempty"`  // Print detailed debug information
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Required connection settings are checked by the commands that need them.
func (c *Config) Validate() error {
	if c.Limit < 0 {
		return fmt.Errorf("config error: 'limit' must be non-negative")
	}
	if c.Workers < 0 {
		return fmt.Errorf("config error: 'workers' must be non-negative")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}

	switch strings.ToLower(c.LogMode) {
	case "", "dev", "development", "prod", "production":
	default:
		return fmt.Errorf("config error: unknown 'log_mode' %q", c.LogMode)
	}

	return nil
}

// ApplyEnv fills empty connection fields from DATABASE_URL and GEMINI_API_KEY.
func (c *Config) ApplyEnv() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.APIKey == "" {
		c.APIKey = os.Getenv("GEMINI_API_KEY")
	}
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults,
// then from the package defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.EmbeddingModel == "" {
		result.EmbeddingModel = defaults.EmbeddingModel
	}
	if result.EmbeddingModel == "" {
		result.EmbeddingModel = DefaultEmbeddingModel
	}
	if result.LogMode == "" {
		result.LogMode = defaults.LogMode
	}
	if result.LogMode == "" {
		result.LogMode = DefaultLogMode
	}

	// Int fields: use default if zero
	if result.Limit == 0 {
		result.Limit = defaults.Limit
	}
	if result.Limit == 0 {
		result.Limit = DefaultLimit
	}
	if result.Workers == 0 {
		result.Workers = defaults.Workers
	}
	if result.Workers == 0 {
		result.Workers = DefaultWorkers
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.Port == 0 {
		result.Port = DefaultPort
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
