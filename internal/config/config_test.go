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

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "llama-4-scout", cfg.Models.Default)
	require.Len(t, cfg.Models.Available, 2)
	assert.Equal(t, "CEREBRAS_API_KEY", cfg.Models.Available[0].APIKeyEnv)
	assert.Equal(t, "uithub", cfg.Fetch.Source)
	assert.Equal(t, 15*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Analysis.PerspectiveTimeout)
	assert.Equal(t, 10, cfg.Chat.HistoryLimit)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromTOML(t *testing.T) {
	tomlContent := `
[models]
default = "local"

[[models.available]]
id = "local"
name = "qwen2.5-coder"
base_url = "http://localhost:11434/v1"
api_key_env = "LOCAL_API_KEY"
[models.available.params]
temperature = 0.2
max_tokens = 2048

[fetch]
timeout = "5s"

[analysis]
language = "en"
perspective_timeout = "12s"
`
	tmpFile := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(tomlContent), 0644))

	cfg, err := Load(tmpFile)
	require.NoError(t, err)
	assert.Equal(t, "local", cfg.Models.Default)
	require.Len(t, cfg.Models.Available, 1)
	m := cfg.Models.Available[0]
	assert.Equal(t, "openai", m.Provider)
	assert.Equal(t, "qwen2.5-coder", m.Name)
	require.NotNil(t, m.Params.Temperature)
	assert.Equal(t, 0.2, *m.Params.Temperature)
	assert.Equal(t, 2048, m.Params.MaxTokens)
	assert.Equal(t, 5*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, "en", cfg.Analysis.Language)
	assert.Equal(t, 12*time.Second, cfg.Analysis.PerspectiveTimeout)

	// Fields not in the file keep their defaults.
	assert.Equal(t, "https://uithub.com", cfg.Fetch.BaseURL)
	assert.Equal(t, 10, cfg.Chat.HistoryLimit)
	assert.NoError(t, cfg.Validate())
}

func TestLoadZeroTemperature(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(tmpFile, []byte("[chat]\ntemperature = 0.0\n"), 0644))

	cfg, err := Load(tmpFile)
	require.NoError(t, err)
	require.NotNil(t, cfg.Chat.Temperature)
	assert.Equal(t, 0.0, *cfg.Chat.Temperature)
	require.NotNil(t, cfg.Models.Available[0].Params.Temperature)
	assert.Equal(t, 0.7, *cfg.Models.Available[0].Params.Temperature)
}

func TestCloneCopiesTemperature(t *testing.T) {
	orig := ModelConfig{ID: "a", Params: Params{Temperature: Float(0.3)}}
	c := orig.Clone()
	*c.Params.Temperature = 1
	assert.Equal(t, 0.3, *orig.Params.Temperature)
}

func TestLoadFromYAML(t *testing.T) {
	yamlContent := `
models:
  default: scout
  available:
    - id: scout
      name: llama-4-scout-17b-16e-instruct
      base_url: https://api.cerebras.ai/v1
      api_key_env: CEREBRAS_API_KEY
      params:
        temperature: 0.5
        max_tokens: 1024
        extra:
          top_p: 0.9
chat:
  idle_timeout: 10s
`
	tmpFile := filepath.Join(t.TempDir(), "models.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(yamlContent), 0644))

	cfg, err := Load(tmpFile)
	require.NoError(t, err)
	require.Len(t, cfg.Models.Available, 1)
	assert.Equal(t, "scout", cfg.Models.Default)
	assert.Equal(t, 0.9, cfg.Models.Available[0].Params.Extra["top_p"])
	assert.Equal(t, 10*time.Second, cfg.Chat.IdleTimeout)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.toml")
	require.NoError(t, err)
	assert.Equal(t, "llama-4-scout", cfg.Models.Default)
}

func TestLoadInvalidTOML(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(tmpFile, []byte("[invalid toml..."), 0644))

	_, err := Load(tmpFile)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestValidateRejectsUnknownDefault(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Models.Default = "missing"

	err := cfg.Validate()
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "missing", cfgErr.ModelID)
}

func TestValidateRejectsIncompleteEntry(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Models.Available[1].BaseURL = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base_url")
}

func TestValidateRejectsDuplicateIDs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Models.Available[1].ID = cfg.Models.Available[0].ID

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestValidateCustomModeSkipsDefaultCheck(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Models.Default = "missing"
	cfg.Custom = CustomConfig{Enabled: true, Name: "my-model", BaseURL: "http://localhost:8000/v1"}
	assert.NoError(t, cfg.Validate())

	cfg.Custom.BaseURL = ""
	assert.Error(t, cfg.Validate())
}

func TestModelConfigCloneIsIndependent(t *testing.T) {
	orig := ModelConfig{ID: "a", Params: Params{Extra: map[string]any{"top_p": 0.9}}}
	cp := orig.Clone()
	cp.Params.Extra["top_p"] = 0.1
	assert.Equal(t, 0.9, orig.Params.Extra["top_p"])
}
