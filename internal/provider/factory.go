package provider

import (
	"fmt"
	"net/http"
	"time"

	"github.com/julianshen/gitnote/internal/models"
)

// Options carries transport settings shared by every provider constructor.
type Options struct {
	ExtraHeaders map[string]string
	IdleTimeout  time.Duration
	HTTPClient   *http.Client
}

// ProviderConstructor is a function that creates a new LLMProvider.
type ProviderConstructor func(baseURL, apiKey string, opts Options) LLMProvider

// Factory builds a provider for a resolved endpoint. Orchestration code takes
// a Factory so tests can inject fakes.
type Factory func(ep models.Endpoint) (LLMProvider, error)

// registry holds registered provider constructors.
var registry = map[string]ProviderConstructor{}

// RegisterProvider registers a provider constructor by name.
func RegisterProvider(name string, constructor ProviderConstructor) {
	registry[name] = constructor
}

// NewFactory returns a Factory that looks up the endpoint's provider kind in
// the registry and applies opts to every constructed provider.
func NewFactory(opts Options) Factory {
	return func(ep models.Endpoint) (LLMProvider, error) {
		return NewProvider(ep, opts)
	}
}

// NewProvider creates an LLMProvider for the given endpoint. An empty provider
// kind selects "openai".
func NewProvider(ep models.Endpoint, opts Options) (LLMProvider, error) {
	kind := ep.Config.Provider
	if kind == "" {
		kind = "openai"
	}

	constructor, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("%s provider not registered", kind)
	}

	return constructor(ep.Config.BaseURL, ep.APIKey, opts), nil
}

// NewRequest builds a CompletionRequest for ep, filling model name and the
// endpoint's default generation parameters.
func NewRequest(ep models.Endpoint, system string, msgs []Message) CompletionRequest {
	req := CompletionRequest{
		Model:     ep.Config.Name,
		System:    system,
		Messages:  msgs,
		MaxTokens: ep.Config.Params.MaxTokens,
	}
	if t := ep.Config.Params.Temperature; t != nil {
		temp := *t
		req.Temperature = &temp
	}
	if len(ep.Config.Params.Extra) > 0 {
		req.Extra = make(map[string]any, len(ep.Config.Params.Extra))
		for k, v := range ep.Config.Params.Extra {
			req.Extra[k] = v
		}
	}
	return req
}
