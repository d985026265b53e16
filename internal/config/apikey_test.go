package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapSecretsLookup(t *testing.T) {
	s := MapSecrets{"CEREBRAS_API_KEY": "sk-test-12345", "BLANK": "  "}

	key, ok := s.Lookup("CEREBRAS_API_KEY")
	assert.True(t, ok)
	assert.Equal(t, "sk-test-12345", key)

	_, ok = s.Lookup("NONEXISTENT_KEY_VAR")
	assert.False(t, ok)

	_, ok = s.Lookup("BLANK")
	assert.False(t, ok, "blank values are absent")

	_, ok = s.Lookup("")
	assert.False(t, ok)
}

func TestEnvironMap(t *testing.T) {
	m := EnvironMap([]string{"A=1", "B=x=y", "broken"})
	assert.Equal(t, map[string]string{"A": "1", "B": "x=y"}, m)
}

func TestApplyEnvCustomMode(t *testing.T) {
	cfg := DefaultConfig()
	err := ApplyEnv(cfg, map[string]string{
		"GITNOTE_CUSTOM_MODE":       "true",
		"GITNOTE_CUSTOM_MODEL_NAME": "my-model",
		"GITNOTE_CUSTOM_BASE_URL":   "http://localhost:8000/v1",
	})
	require.NoError(t, err)
	assert.True(t, cfg.Custom.Enabled)
	assert.Equal(t, "my-model", cfg.Custom.Name)
	assert.Equal(t, "http://localhost:8000/v1", cfg.Custom.BaseURL)
}

func TestApplyEnvDefaultsOff(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, ApplyEnv(cfg, map[string]string{}))
	assert.False(t, cfg.Custom.Enabled)
}

func TestApplyEnvInvalidBool(t *testing.T) {
	cfg := DefaultConfig()
	err := ApplyEnv(cfg, map[string]string{"GITNOTE_CUSTOM_MODE": "maybe"})
	assert.Error(t, err)
}
