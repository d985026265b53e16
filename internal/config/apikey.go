package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v10"
)

// Secrets is the set of named process-wide slots holding API keys.
type Secrets interface {
	Lookup(name string) (string, bool)
}

// MapSecrets is a Secrets backed by a plain map. Empty values count as absent.
type MapSecrets map[string]string

// Lookup returns the value stored under name.
func (m MapSecrets) Lookup(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	v, ok := m[name]
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// EnvSecrets reads key slots from the process environment.
type EnvSecrets struct{}

// Lookup returns the environment variable name, treating blank values as unset.
func (EnvSecrets) Lookup(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	v, ok := os.LookupEnv(name)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// EnvironMap converts os.Environ-style KEY=VALUE pairs into a map.
func EnvironMap(environ []string) map[string]string {
	m := make(map[string]string, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		m[k] = v
	}
	return m
}

// ApplyEnv populates the custom override section from the given environment.
func ApplyEnv(cfg *Config, environ map[string]string) error {
	if err := env.ParseWithOptions(&cfg.Custom, env.Options{Environment: environ}); err != nil {
		return fmt.Errorf("parsing custom model environment: %w", err)
	}
	return nil
}
