// Package config loads engine configuration from YAML with built-in
// development and production profiles.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from strings like "2s" or
// "1m30s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std converts to a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// OracleConfig selects and tunes the decision model.
type OracleConfig struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url,omitempty"`
	Temperature float64 `yaml:"temperature"`
}

// RetryConfig is the per-step retry policy.
type RetryConfig struct {
	MaxAttempts  int      `yaml:"max_attempts"`
	FailureDelay Duration `yaml:"failure_delay"`
	ErrorDelay   Duration `yaml:"error_delay"`
}

// EngineConfig tunes workflow execution.
type EngineConfig struct {
	MaxIterations int      `yaml:"max_iterations"`
	StepTimeout   Duration `yaml:"step_timeout"`
	// ContinueOnNonCritical keeps the workflow going past non-critical steps
	// that exhausted their retries. Off by default: any exhausted step aborts.
	ContinueOnNonCritical bool `yaml:"continue_on_non_critical"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	// Backend is one of "memory", "sqlite" or "redis".
	Backend string `yaml:"backend"`
	// DSN is the sqlite file path or redis address, depending on Backend.
	DSN string `yaml:"dsn,omitempty"`
	// KeyPrefix namespaces redis keys.
	KeyPrefix string `yaml:"key_prefix,omitempty"`
}

// Config is the full engine configuration.
type Config struct {
	Profile string       `yaml:"profile"`
	Oracle  OracleConfig `yaml:"oracle"`
	Retry   RetryConfig  `yaml:"retry"`
	Engine  EngineConfig `yaml:"engine"`
	Store   StoreConfig  `yaml:"store"`
}

// Development returns a permissive profile suited to local iteration, with a
// generous retry budget. Like production it aborts on any exhausted step.
func Development() *Config {
	return &Config{
		Profile: "development",
		Oracle: OracleConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Temperature: 0.2,
		},
		Retry: RetryConfig{
			MaxAttempts:  5,
			FailureDelay: Duration(2 * time.Second),
			ErrorDelay:   Duration(5 * time.Second),
		},
		Engine: EngineConfig{
			MaxIterations: 20,
			StepTimeout:   Duration(2 * time.Minute),
		},
		Store: StoreConfig{Backend: "memory"},
	}
}

// Production returns a strict profile with a tight retry budget.
func Production() *Config {
	return &Config{
		Profile: "production",
		Oracle: OracleConfig{
			Provider:    "openai",
			Model:       "gpt-4o",
			Temperature: 0,
		},
		Retry: RetryConfig{
			MaxAttempts:  2,
			FailureDelay: Duration(2 * time.Second),
			ErrorDelay:   Duration(5 * time.Second),
		},
		Engine: EngineConfig{
			MaxIterations: 15,
			StepTimeout:   Duration(time.Minute),
		},
		Store: StoreConfig{Backend: "sqlite", DSN: "deskflow.db"},
	}
}

// ForProfile returns the named built-in profile, defaulting to development.
func ForProfile(name string) *Config {
	if name == "production" {
		return Production()
	}
	return Development()
}

// Load reads a YAML config file. Values not present in the file keep the
// defaults of the file's declared profile.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Peek at the profile so the remaining fields default sensibly.
	var header struct {
		Profile string `yaml:"profile"`
	}
	if err := yaml.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	cfg := ForProfile(header.Profile)
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	return cfg, nil
}
