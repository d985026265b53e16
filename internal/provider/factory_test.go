package provider_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianshen/gitnote/internal/config"
	"github.com/julianshen/gitnote/internal/models"
	"github.com/julianshen/gitnote/internal/provider"

	// Import sub-packages to trigger init() registration
	_ "github.com/julianshen/gitnote/internal/provider/openai"
)

func endpoint(kind string) models.Endpoint {
	return models.Endpoint{
		ID: "scout",
		Config: config.ModelConfig{
			ID:        "scout",
			Provider:  kind,
			Name:      "llama-4-scout-17b-16e-instruct",
			BaseURL:   "https://api.cerebras.ai/v1",
			APIKeyEnv: "CEREBRAS_API_KEY",
			Params: config.Params{
				Temperature: config.Float(0.7),
				MaxTokens:   4096,
				Extra:       map[string]any{"top_p": 0.9},
			},
		},
		APIKey: "sk-test",
	}
}

func TestNewProviderOpenAI(t *testing.T) {
	p, err := provider.NewProvider(endpoint("openai"), provider.Options{})
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestNewProviderDefaultsToOpenAI(t *testing.T) {
	p, err := provider.NewFactory(provider.Options{})(endpoint(""))
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestNewProviderUnknownKind(t *testing.T) {
	_, err := provider.NewProvider(endpoint("carrier-pigeon"), provider.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "carrier-pigeon")
}

func TestNewRequestCarriesDefaults(t *testing.T) {
	ep := endpoint("openai")
	req := provider.NewRequest(ep, "sys", []provider.Message{provider.NewUserMessage("hi")})

	assert.Equal(t, "llama-4-scout-17b-16e-instruct", req.Model)
	assert.Equal(t, "sys", req.System)
	assert.Equal(t, 4096, req.MaxTokens)
	require.NotNil(t, req.Temperature)
	assert.Equal(t, 0.7, *req.Temperature)
	assert.Equal(t, 0.9, req.Extra["top_p"])

	req.Extra["top_p"] = 0.1
	assert.Equal(t, 0.9, ep.Config.Params.Extra["top_p"], "request extras are copied")
}

func TestNewRequestTemperature(t *testing.T) {
	ep := endpoint("openai")
	ep.Config.Params.Temperature = config.Float(0)
	req := provider.NewRequest(ep, "", nil)
	require.NotNil(t, req.Temperature, "zero is an explicit choice")
	assert.Equal(t, 0.0, *req.Temperature)

	ep.Config.Params.Temperature = nil
	req = provider.NewRequest(ep, "", nil)
	assert.Nil(t, req.Temperature)
}
