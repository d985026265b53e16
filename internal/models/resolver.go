// Package models resolves model identifiers against the configured catalog.
package models

import (
	"sort"
	"strings"

	"github.com/julianshen/gitnote/internal/config"
)

// Endpoint is a resolved model config together with its API key, ready to be
// handed to a provider constructor.
type Endpoint struct {
	ID     string
	Config config.ModelConfig
	APIKey string
}

// Resolver looks up model configs by identifier. It holds no mutable state;
// every call resolves against the config it was constructed with.
type Resolver struct {
	cfg     *config.Config
	secrets config.Secrets
	index   map[string]int
}

// NewResolver creates a Resolver over the given config and key slots.
func NewResolver(cfg *config.Config, secrets config.Secrets) *Resolver {
	index := make(map[string]int, len(cfg.Models.Available))
	for i, m := range cfg.Models.Available {
		index[m.ID] = i
	}
	return &Resolver{cfg: cfg, secrets: secrets, index: index}
}

// CustomModeEnabled reports whether every lookup is redirected to the custom
// override endpoint.
func (r *Resolver) CustomModeEnabled() bool {
	return r.cfg.Custom.Enabled
}

// DefaultModelID returns the designated default identifier.
func (r *Resolver) DefaultModelID() string {
	return r.cfg.Models.Default
}

// AllModelIDs returns the catalog ids in declaration order, followed by the
// custom id when custom mode is enabled.
func (r *Resolver) AllModelIDs() []string {
	ids := make([]string, 0, len(r.cfg.Models.Available)+1)
	for _, m := range r.cfg.Models.Available {
		ids = append(ids, m.ID)
	}
	if r.CustomModeEnabled() {
		ids = append(ids, config.CustomModelID)
	}
	return ids
}

// Resolve returns the config for id, or for the default id when id is empty.
// Unknown ids are a *config.ConfigurationError; no other model is substituted.
func (r *Resolver) Resolve(id string) (config.ModelConfig, error) {
	if r.CustomModeEnabled() {
		return r.customConfig(), nil
	}

	if id == "" {
		id = r.DefaultModelID()
	}
	i, ok := r.index[id]
	if !ok {
		return config.ModelConfig{}, &config.ConfigurationError{
			ModelID: id,
			Reason:  "unknown model (known: " + strings.Join(r.sortedIDs(), ", ") + ")",
		}
	}
	return r.cfg.Models.Available[i].Clone(), nil
}

// APIKey returns the key held in the slot named by the model's config.
// An unknown id or an empty slot reports false.
func (r *Resolver) APIKey(id string) (string, bool) {
	if r.CustomModeEnabled() {
		return r.secrets.Lookup(config.CustomAPIKeyEnv)
	}
	mc, err := r.Resolve(id)
	if err != nil {
		return "", false
	}
	return r.secrets.Lookup(mc.APIKeyEnv)
}

// Endpoint resolves id and its API key. A missing key is reported as a
// *config.ConfigurationError so callers can abort before any network call.
func (r *Resolver) Endpoint(id string) (Endpoint, error) {
	mc, err := r.Resolve(id)
	if err != nil {
		return Endpoint{}, err
	}

	resolvedID := id
	switch {
	case r.CustomModeEnabled():
		resolvedID = config.CustomModelID
	case resolvedID == "":
		resolvedID = r.DefaultModelID()
	}

	key, ok := r.secrets.Lookup(mc.APIKeyEnv)
	if !ok {
		return Endpoint{}, &config.ConfigurationError{
			ModelID: resolvedID,
			Reason:  "API key not set (expected in " + mc.APIKeyEnv + ")",
		}
	}

	return Endpoint{ID: resolvedID, Config: mc, APIKey: key}, nil
}

func (r *Resolver) customConfig() config.ModelConfig {
	return config.ModelConfig{
		ID:        config.CustomModelID,
		Provider:  "openai",
		Name:      r.cfg.Custom.Name,
		BaseURL:   r.cfg.Custom.BaseURL,
		APIKeyEnv: config.CustomAPIKeyEnv,
		Params: config.Params{
			Temperature: config.Float(0.7),
			MaxTokens:   4096,
		},
	}
}

func (r *Resolver) sortedIDs() []string {
	ids := make([]string, 0, len(r.index))
	for id := range r.index {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
