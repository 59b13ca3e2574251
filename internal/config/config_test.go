package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, StyleChat, cfg.Models[DefaultModel].Type)
	assert.Equal(t, "azure", cfg.Models[DefaultModel].Endpoint)
	assert.Equal(t, DefaultFilteredMessage, cfg.FilteredMessage)
	assert.Equal(t, 200*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 100, cfg.MaxTrial)
	assert.Len(t, cfg.BusyMessages, len(DefaultBusyMessages))
}

func TestResolve(t *testing.T) {
	cfg := &Config{
		Models: map[string]ModelConfig{
			"chat-model":   {Endpoint: "ep", Type: StyleChat},
			"orphan-model": {Endpoint: "missing", Type: StyleChat},
			"no-url-model": {Endpoint: "empty", Type: StyleChat},
		},
		Endpoints: map[string]EndpointConfig{
			"ep":    {URL: "http://example.test/v1/chat"},
			"empty": {},
		},
	}

	m, ep, err := cfg.Resolve("chat-model")
	require.NoError(t, err)
	assert.Equal(t, StyleChat, m.Type)
	assert.Equal(t, "http://example.test/v1/chat", ep.URL)

	_, _, err = cfg.Resolve("nope")
	var unknownModel *UnknownModelError
	require.True(t, errors.As(err, &unknownModel))
	assert.Equal(t, "nope", unknownModel.Model)

	_, _, err = cfg.Resolve("orphan-model")
	var unknownEndpoint *UnknownEndpointError
	require.True(t, errors.As(err, &unknownEndpoint))
	assert.Equal(t, "missing", unknownEndpoint.Endpoint)

	_, _, err = cfg.Resolve("no-url-model")
	assert.ErrorContains(t, err, "no url configured")
}

func TestValidateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{
			name: "unknown endpoint",
			cfg: &Config{
				Models: map[string]ModelConfig{"m": {Endpoint: "x", Type: StyleChat}},
			},
		},
		{
			name: "unsupported type",
			cfg: &Config{
				Models:    map[string]ModelConfig{"m": {Endpoint: "x", Type: "vision"}},
				Endpoints: map[string]EndpointConfig{"x": {URL: "http://x"}},
			},
		},
		{
			name: "negative timeout",
			cfg:  &Config{RequestTimeout: -time.Second},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.cfg.Validate())
		})
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("LLM_BENCH_TEST_VAR", "value")

	assert.Equal(t, "value", ExpandEnv("${LLM_BENCH_TEST_VAR}"))
	assert.Equal(t, "Bearer value", ExpandEnv("Bearer ${LLM_BENCH_TEST_VAR}"))
	assert.Equal(t, "fallback", ExpandEnv("${LLM_BENCH_UNSET_VAR:fallback}"))
	assert.Equal(t, "", ExpandEnv("${LLM_BENCH_UNSET_VAR}"))
	assert.Equal(t, "plain", ExpandEnv("plain"))
}

func TestLoadOverlaysDefaults(t *testing.T) {
	t.Setenv("LLM_BENCH_TEST_URL", "http://localhost:9999/v1/completions")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
models:
  local-davinci:
    endpoint: local
    type: completion
endpoints:
  local:
    url: ${LLM_BENCH_TEST_URL}
    headers:
      Authorization: Bearer ${LLM_BENCH_TEST_KEY:static-key}
max_trial: 5
request_timeout: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.MaxTrial)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)

	// Built-in models are still present.
	assert.Contains(t, cfg.Models, DefaultModel)

	m, ep, err := cfg.Resolve("local-davinci")
	require.NoError(t, err)
	assert.Equal(t, StyleCompletion, m.Type)
	assert.Equal(t, "http://localhost:9999/v1/completions", ep.URL)
	assert.Equal(t, "Bearer static-key", ep.Headers["Authorization"])
}

func TestLoadEmptyPathReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().MaxTrial, cfg.MaxTrial)
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("models:\n  m:\n    endpoint: nowhere\n    type: chat\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
