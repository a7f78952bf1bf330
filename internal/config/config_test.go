package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 5, cfg.MaxFiles)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.RetryDelay)
	assert.Equal(t, 60*time.Second, cfg.PollInterval)
	assert.Equal(t, 8192, cfg.MaxTokens)
	assert.Equal(t, 120*time.Second, cfg.TestTimeout)
	assert.False(t, cfg.BlockOnProviderFailure)
	assert.Equal(t, []string{"api", "core", "docs", "ui"}, cfg.WorkerNames())
	require.NoError(t, cfg.Validate())
}

func TestLoadFile_MergesWorkers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ianae.yaml")
	content := `
max_files: 3
retry_delay: 45s
block_on_provider_failure: true
providers:
  - type: openai
    name: groq
    base_url: https://api.groq.com/openai/v1
    model: llama-3.3-70b
    api_key: env:GROQ_API_KEY
workers:
  core:
    scope: [src/core/]
    test_command: go test ./...
  infra:
    scope: [deploy/]
    test_command: make lint
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg := Default()
	require.NoError(t, cfg.LoadFile(path))

	assert.Equal(t, 3, cfg.MaxFiles)
	assert.Equal(t, 45*time.Second, cfg.RetryDelay)
	assert.True(t, cfg.BlockOnProviderFailure)
	require.Len(t, cfg.Providers, 1)
	assert.Equal(t, "groq", cfg.Providers[0].Name)

	core, err := cfg.Worker("core")
	require.NoError(t, err)
	assert.Equal(t, []string{"src/core/"}, core.Scope)
	assert.Equal(t, "go test ./...", core.TestCommand)

	_, err = cfg.Worker("api")
	assert.NoError(t, err, "default workers are kept")
	_, err = cfg.Worker("infra")
	assert.NoError(t, err, "new workers are added")
}

func TestLoadFile_UnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_filez: 3\n"), 0o644))

	err := Default().LoadFile(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadFile_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	cfg := Default()
	require.NoError(t, cfg.LoadFile(path))
	assert.Equal(t, DefaultMaxFiles, cfg.MaxFiles)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"IANAE_SOURCE_URL":    "http://source:9000",
		"IANAE_MAX_RETRIES":   "4",
		"IANAE_POLL_INTERVAL": "15",
		"IANAE_RETRY_DELAY":   "1m30s",
		"WORKER_PORT":         "9100",
		"IANAE_MAX_FILES":     "",
	}))
	require.NoError(t, err)

	assert.Equal(t, "http://source:9000", cfg.SourceURL)
	assert.Equal(t, 4, cfg.MaxRetries)
	assert.Equal(t, 15*time.Second, cfg.PollInterval)
	assert.Equal(t, 90*time.Second, cfg.RetryDelay)
	assert.Equal(t, ":9100", cfg.HTTPAddr)
	assert.Equal(t, DefaultMaxFiles, cfg.MaxFiles, "empty values are ignored")
}

func TestApplyEnv_Invalid(t *testing.T) {
	err := Default().ApplyEnv(envMap(map[string]string{"IANAE_MAX_TOKENS": "lots"}))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	err = Default().ApplyEnv(envMap(map[string]string{"IANAE_TEST_TIMEOUT": "soon"}))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Workers["core"] = WorkerConfig{TestCommand: "pytest"}
	cfg.Workers["api"] = WorkerConfig{Scope: []string{"src/api/"}}
	cfg.MaxFiles = 0

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "worker core: scope is empty")
	assert.Contains(t, err.Error(), "worker api: test_command is empty")
	assert.Contains(t, err.Error(), "max_files")
}

func TestWorker_Unknown(t *testing.T) {
	_, err := Default().Worker("qa")
	assert.ErrorIs(t, err, ErrUnknownWorker)
	assert.Contains(t, err.Error(), "api, core, docs, ui")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ianae.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_tokens: 1000\n"), 0o644))
	t.Setenv("IANAE_MAX_TOKENS", "2000")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2000, cfg.MaxTokens)
}

func TestParseDuration(t *testing.T) {
	d, err := ParseDuration("120")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, d)

	d, err = ParseDuration("250ms")
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, d)
}
