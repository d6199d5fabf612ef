// Package config provides configuration loading and validation for the
// server and CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds everything the service needs. Values come from a JSON file,
// environment variables, or CLI flags; FromEnv and MergeWithDefaults layer
// them in that order of increasing precedence.
type Config struct {
	// Server
	Addr string `json:"addr,omitempty"` // Listen address, e.g. ":8000"

	// Credentials
	GeminiAPIKey  string `json:"gemini_api_key,omitempty"`
	YouTubeAPIKey string `json:"youtube_api_key,omitempty"`
	DatabaseURL   string `json:"database_url,omitempty"` // PostgreSQL connection URL

	// Indexing
	ChunkSize    int    `json:"chunk_size,omitempty"`
	ChunkOverlap int    `json:"chunk_overlap,omitempty"`
	EmbedModel   string `json:"embed_model,omitempty"`
	EmbedDim     int    `json:"embed_dim,omitempty"`

	// Mail delivery (optional; empty host disables it)
	SMTPHost     string `json:"smtp_host,omitempty"`
	SMTPPort     int    `json:"smtp_port,omitempty"`
	SMTPUsername string `json:"smtp_username,omitempty"`
	SMTPPassword string `json:"smtp_password,omitempty"`
	SMTPFrom     string `json:"smtp_from,omitempty"`

	// Behavior
	UseBrowser bool `json:"use_browser,omitempty"` // Headless-browser fallback for transcript pages
	Verbose    bool `json:"verbose,omitempty"`     // Print detailed debug information
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Addr:         ":8000",
		ChunkSize:    1000,
		ChunkOverlap: 200,
		EmbedModel:   "text-embedding-004",
		EmbedDim:     768,
		SMTPPort:     587,
	}
}

// FromEnv builds a config from environment variables. Unset variables leave
// the zero value so file or default values can fill them in.
func FromEnv() Config {
	return Config{
		Addr:          os.Getenv("ADDR"),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		YouTubeAPIKey: os.Getenv("YOUTUBE_API_KEY"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		ChunkSize:     envInt("CHUNK_SIZE"),
		ChunkOverlap:  envInt("CHUNK_OVERLAP"),
		EmbedModel:    os.Getenv("EMBED_MODEL"),
		EmbedDim:      envInt("EMBED_DIM"),
		SMTPHost:      os.Getenv("SMTP_HOST"),
		SMTPPort:      envInt("SMTP_PORT"),
		SMTPUsername:  os.Getenv("SMTP_USERNAME"),
		SMTPPassword:  os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:      os.Getenv("SMTP_FROM"),
		UseBrowser:    os.Getenv("USE_BROWSER") == "true",
		Verbose:       os.Getenv("VERBOSE") == "true",
	}
}

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

// LoadConfig loads configuration from a JSON file.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

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

// Validate checks value ranges. Required credentials are checked where they
// are used, so flag and file merging stays order-independent.
func (c *Config) Validate() error {
	if c.ChunkSize < 0 {
		return fmt.Errorf("config error: 'chunk_size' must be non-negative")
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("config error: 'chunk_overlap' must be non-negative")
	}
	if c.ChunkSize > 0 && c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("config error: 'chunk_overlap' must be smaller than 'chunk_size'")
	}
	if c.EmbedDim < 0 {
		return fmt.Errorf("config error: 'embed_dim' must be non-negative")
	}
	if c.SMTPPort < 0 || c.SMTPPort > 65535 {
		return fmt.Errorf("config error: 'smtp_port' out of range: %d", c.SMTPPort)
	}
	return nil
}

// MergeWithDefaults returns a new Config with zero-valued fields filled
// from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Addr == "" {
		result.Addr = defaults.Addr
	}
	if result.GeminiAPIKey == "" {
		result.GeminiAPIKey = defaults.GeminiAPIKey
	}
	if result.YouTubeAPIKey == "" {
		result.YouTubeAPIKey = defaults.YouTubeAPIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.ChunkSize == 0 {
		result.ChunkSize = defaults.ChunkSize
	}
	if result.ChunkOverlap == 0 {
		result.ChunkOverlap = defaults.ChunkOverlap
	}
	if result.EmbedModel == "" {
		result.EmbedModel = defaults.EmbedModel
	}
	if result.EmbedDim == 0 {
		result.EmbedDim = defaults.EmbedDim
	}
	if result.SMTPHost == "" {
		result.SMTPHost = defaults.SMTPHost
	}
	if result.SMTPPort == 0 {
		result.SMTPPort = defaults.SMTPPort
	}
	if result.SMTPUsername == "" {
		result.SMTPUsername = defaults.SMTPUsername
	}
	if result.SMTPPassword == "" {
		result.SMTPPassword = defaults.SMTPPassword
	}
	if result.SMTPFrom == "" {
		result.SMTPFrom = defaults.SMTPFrom
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
