package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// CustomModelID is the identifier reported for the custom override endpoint.
const CustomModelID = "custom"

// CustomAPIKeyEnv names the key slot read when custom mode is enabled.
const CustomAPIKeyEnv = "GITNOTE_CUSTOM_API_KEY"

// Config represents the top-level application configuration.
type Config struct {
	Models   ModelsConfig   `toml:"models" yaml:"models"`
	Custom   CustomConfig   `toml:"-" yaml:"-"`
	Fetch    FetchConfig    `toml:"fetch" yaml:"fetch"`
	Analysis AnalysisConfig `toml:"analysis" yaml:"analysis"`
	Chat     ChatConfig     `toml:"chat" yaml:"chat"`
	Server   ServerConfig   `toml:"server" yaml:"server"`
	Log      LogConfig      `toml:"log" yaml:"log"`
}

// ModelsConfig is the static model catalog plus the designated default.
type ModelsConfig struct {
	Default   string        `toml:"default" yaml:"default"`
	Available []ModelConfig `toml:"available" yaml:"available"`
}

// ModelConfig describes a single generation endpoint. APIKeyEnv names the
// secret slot holding the key, never the key itself.
type ModelConfig struct {
	ID        string `toml:"id" yaml:"id" json:"id"`
	Provider  string `toml:"provider" yaml:"provider" json:"provider"`
	Name      string `toml:"name" yaml:"name" json:"name"`
	BaseURL   string `toml:"base_url" yaml:"base_url" json:"base_url"`
	APIKeyEnv string `toml:"api_key_env" yaml:"api_key_env" json:"api_key_env"`
	Params    Params `toml:"params" yaml:"params" json:"params"`
}

// Params holds default generation parameters. A nil Temperature leaves the
// choice to the server; Extra is passed through to the request body untouched.
type Params struct {
	Temperature *float64       `toml:"temperature" yaml:"temperature" json:"temperature,omitempty"`
	MaxTokens   int            `toml:"max_tokens" yaml:"max_tokens" json:"max_tokens"`
	Extra       map[string]any `toml:"extra" yaml:"extra" json:"extra,omitempty"`
}

// Clone returns a deep copy of the model config.
func (m ModelConfig) Clone() ModelConfig {
	if m.Params.Temperature != nil {
		m.Params.Temperature = Float(*m.Params.Temperature)
	}
	if m.Params.Extra != nil {
		extra := make(map[string]any, len(m.Params.Extra))
		for k, v := range m.Params.Extra {
			extra[k] = v
		}
		m.Params.Extra = extra
	}
	return m
}

// CustomConfig redirects every model lookup to one externally supplied
// endpoint. It is populated from the environment by ApplyEnv.
type CustomConfig struct {
	Enabled bool   `env:"GITNOTE_CUSTOM_MODE"`
	Name    string `env:"GITNOTE_CUSTOM_MODEL_NAME"`
	BaseURL string `env:"GITNOTE_CUSTOM_BASE_URL"`
}

// FetchConfig controls how repository snapshots are obtained.
type FetchConfig struct {
	Source         string        `toml:"source" yaml:"source"`
	BaseURL        string        `toml:"base_url" yaml:"base_url"`
	Timeout        time.Duration `toml:"timeout" yaml:"timeout"`
	MaxBytes       int64         `toml:"max_bytes" yaml:"max_bytes"`
	GitHubTokenEnv string        `toml:"github_token_env" yaml:"github_token_env"`
	GitHubAPIURL   string        `toml:"github_api_url" yaml:"github_api_url"`
	MaxTreeEntries int           `toml:"max_tree_entries" yaml:"max_tree_entries"`
}

// AnalysisConfig controls the perspective fan-out and unification.
type AnalysisConfig struct {
	Language           string        `toml:"language" yaml:"language"`
	PerspectiveTimeout time.Duration `toml:"perspective_timeout" yaml:"perspective_timeout"`
	UnifyTimeout       time.Duration `toml:"unify_timeout" yaml:"unify_timeout"`
}

// ChatConfig controls the chat session engine.
type ChatConfig struct {
	HistoryLimit int           `toml:"history_limit" yaml:"history_limit"`
	MaxTokens    int           `toml:"max_tokens" yaml:"max_tokens"`
	Temperature  *float64      `toml:"temperature" yaml:"temperature"`
	IdleTimeout  time.Duration `toml:"idle_timeout" yaml:"idle_timeout"`
}

// ServerConfig holds the HTTP API listener settings.
type ServerConfig struct {
	Addr string `toml:"addr" yaml:"addr"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// DefaultConfig returns a Config populated with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Models: ModelsConfig{
			Default: "llama-4-scout",
			Available: []ModelConfig{
				{
					ID:        "llama-4-scout",
					Provider:  "openai",
					Name:      "llama-4-scout-17b-16e-instruct",
					BaseURL:   "https://api.cerebras.ai/v1",
					APIKeyEnv: "CEREBRAS_API_KEY",
					Params:    Params{Temperature: Float(0.7), MaxTokens: 4096},
				},
				{
					ID:        "gpt-4o-mini",
					Provider:  "openai",
					Name:      "gpt-4o-mini",
					BaseURL:   "https://api.openai.com/v1",
					APIKeyEnv: "OPENAI_API_KEY",
					Params:    Params{Temperature: Float(0.7), MaxTokens: 4096},
				},
			},
		},
		Fetch: FetchConfig{
			Source:         "uithub",
			BaseURL:        "https://uithub.com",
			Timeout:        15 * time.Second,
			MaxBytes:       8 << 20,
			GitHubTokenEnv: "GITHUB_TOKEN",
			MaxTreeEntries: 500,
		},
		Analysis: AnalysisConfig{
			Language:           "ja",
			PerspectiveTimeout: 30 * time.Second,
			UnifyTimeout:       60 * time.Second,
		},
		Chat: ChatConfig{
			HistoryLimit: 10,
			MaxTokens:    1000,
			Temperature:  Float(0.7),
			IdleTimeout:  45 * time.Second,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8742",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads the config file at path on top of DefaultConfig. A missing file
// yields the defaults. Files ending in .yaml or .yml are decoded as YAML,
// everything else as TOML.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// A catalog in the file replaces the built-in one instead of merging
	// into it entry by entry.
	builtin := cfg.Models.Available
	cfg.Models.Available = nil

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	default:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if cfg.Models.Available == nil {
		cfg.Models.Available = builtin
	}
	for i := range cfg.Models.Available {
		if cfg.Models.Available[i].Provider == "" {
			cfg.Models.Available[i].Provider = "openai"
		}
	}

	return cfg, nil
}

// Validate checks the catalog invariants: every entry is complete, ids are
// unique, and the default id names a catalog entry unless custom mode is on.
func (c *Config) Validate() error {
	if c.Custom.Enabled {
		if c.Custom.Name == "" || c.Custom.BaseURL == "" {
			return &ConfigurationError{
				ModelID: CustomModelID,
				Reason:  "custom mode requires GITNOTE_CUSTOM_MODEL_NAME and GITNOTE_CUSTOM_BASE_URL",
			}
		}
	}

	seen := make(map[string]bool, len(c.Models.Available))
	for i, m := range c.Models.Available {
		if m.ID == "" {
			return &ConfigurationError{Reason: fmt.Sprintf("model entry %d has no id", i)}
		}
		if seen[m.ID] {
			return &ConfigurationError{ModelID: m.ID, Reason: "duplicate model id"}
		}
		seen[m.ID] = true

		var missing []string
		if m.Name == "" {
			missing = append(missing, "name")
		}
		if m.BaseURL == "" {
			missing = append(missing, "base_url")
		}
		if m.APIKeyEnv == "" {
			missing = append(missing, "api_key_env")
		}
		if len(missing) > 0 {
			return &ConfigurationError{
				ModelID: m.ID,
				Reason:  "incomplete model entry, missing " + strings.Join(missing, ", "),
			}
		}
	}

	if !c.Custom.Enabled && !seen[c.Models.Default] {
		return &ConfigurationError{
			ModelID: c.Models.Default,
			Reason:  "default model is not in the catalog",
		}
	}

	return nil
}
