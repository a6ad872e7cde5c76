// Package config loads process-wide configuration: an optional YAML
// file overlaid by environment variables. Credential material is read
// once at startup and treated as read-only for the life of the process.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/lessonforge/lessonforge/internal/llm"
)

// envMapping routes the well-known environment variables onto config
// keys. Only these variables are consulted; everything else in the
// environment is ignored.
var envMapping = map[string]string{
	"ANTHROPIC_API_KEY":  "llm.api_key",
	"ANTHROPIC_BASE_URL": "llm.base_url",
	"ANTHROPIC_MODEL":    "llm.model",
	"TAVILY_API_KEY":     "search.api_key",
	"GITHUB_TOKEN":       "tracker.token",
}

// LLM configures the completion service.
type LLM struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`
	Model   string `koanf:"model"`
}

// Search configures the grounding search service.
type Search struct {
	APIKey string `koanf:"api_key"`
}

// Tracker configures the issue tracker credential.
type Tracker struct {
	Token string `koanf:"token"`
}

// Retry configures the transient-failure retry policy for completion
// calls. Zero values fall back to the defaults.
type Retry struct {
	MaxRetries        int     `koanf:"max_retries"`
	InitialBackoffMS  int     `koanf:"initial_backoff_ms"`
	MaxBackoffMS      int     `koanf:"max_backoff_ms"`
	BackoffMultiplier float64 `koanf:"backoff_multiplier"`
	TimeoutSeconds    int     `koanf:"timeout_seconds"`
}

// Config is the full process configuration.
type Config struct {
	LLM          LLM     `koanf:"llm"`
	Search       Search  `koanf:"search"`
	Tracker      Tracker `koanf:"tracker"`
	Retry        Retry   `koanf:"retry"`
	MaxSubtopics int     `koanf:"max_subtopics"`
}

// Load reads configuration from the YAML file at path (skipped when
// the file does not exist; empty path means the default location),
// then overlays environment variables.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			path = home + "/.config/lessonforge/config.yaml"
		}
	}
	if path != "" {
		content, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		return envMapping[s]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment config: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// RequireLLM fails when the completion-service credential is missing.
// Checked before a run starts so the failure is never mid-pipeline.
func (c *Config) RequireLLM() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is not set (or llm.api_key in the config file)")
	}
	return nil
}

// HasSearch reports whether grounding search is configured. Search is
// optional; a missing key just disables grounding.
func (c *Config) HasSearch() bool {
	return c.Search.APIKey != ""
}

// RequireTracker fails when the tracker credential is missing. Only
// live (non-dry-run) publishing requires it.
func (c *Config) RequireTracker() error {
	if c.Tracker.Token == "" {
		return fmt.Errorf("GITHUB_TOKEN is not set (or tracker.token in the config file)")
	}
	return nil
}

// RetryConfig converts the configured retry policy, filling defaults
// for unset fields.
func (c *Config) RetryConfig() llm.RetryConfig {
	out := llm.DefaultRetryConfig()
	if c.Retry.MaxRetries > 0 {
		out.MaxRetries = c.Retry.MaxRetries
	}
	if c.Retry.InitialBackoffMS > 0 {
		out.InitialBackoff = time.Duration(c.Retry.InitialBackoffMS) * time.Millisecond
	}
	if c.Retry.MaxBackoffMS > 0 {
		out.MaxBackoff = time.Duration(c.Retry.MaxBackoffMS) * time.Millisecond
	}
	if c.Retry.BackoffMultiplier > 0 {
		out.BackoffMultiplier = c.Retry.BackoffMultiplier
	}
	if c.Retry.TimeoutSeconds > 0 {
		out.Timeout = time.Duration(c.Retry.TimeoutSeconds) * time.Second
	}
	return out
}
