package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deskflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadOverridesProfileDefaults(t *testing.T) {
	path := writeConfig(t, `
profile: production
oracle:
  model: gpt-4-turbo
retry:
  max_attempts: 4
  failure_delay: 500ms
  error_delay: 10s
engine:
  continue_on_non_critical: true
store:
  backend: redis
  dsn: localhost:6379
  key_prefix: "deskflow:"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "production", cfg.Profile)
	require.Equal(t, "gpt-4-turbo", cfg.Oracle.Model)
	// Untouched production defaults survive.
	require.Equal(t, "openai", cfg.Oracle.Provider)
	require.Equal(t, 15, cfg.Engine.MaxIterations)
	require.True(t, cfg.Engine.ContinueOnNonCritical)

	require.Equal(t, 4, cfg.Retry.MaxAttempts)
	require.Equal(t, 500*time.Millisecond, cfg.Retry.FailureDelay.Std())
	require.Equal(t, 10*time.Second, cfg.Retry.ErrorDelay.Std())

	require.Equal(t, "redis", cfg.Store.Backend)
	require.Equal(t, "localhost:6379", cfg.Store.DSN)
}

func TestLoadDefaultsToDevelopment(t *testing.T) {
	path := writeConfig(t, "oracle:\n  model: llama3\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "development", cfg.Profile)
	require.Equal(t, "llama3", cfg.Oracle.Model)
	require.Equal(t, 5, cfg.Retry.MaxAttempts)
	require.False(t, cfg.Engine.ContinueOnNonCritical)
	require.Equal(t, "memory", cfg.Store.Backend)
}

func TestLoadInvalidDuration(t *testing.T) {
	path := writeConfig(t, "retry:\n  failure_delay: soon\n")

	_, err := Load(path)
	require.ErrorContains(t, err, "invalid duration")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.ErrorContains(t, err, "failed to read config file")
}

func TestProfiles(t *testing.T) {
	dev := Development()
	prod := Production()

	require.Less(t, prod.Retry.MaxAttempts, dev.Retry.MaxAttempts)
	// Both profiles abort on exhausted steps; continuation is opt-in.
	require.False(t, prod.Engine.ContinueOnNonCritical)
	require.False(t, dev.Engine.ContinueOnNonCritical)
	require.Equal(t, dev.Profile, ForProfile("anything-else").Profile)
	require.Equal(t, "production", ForProfile("production").Profile)
}
