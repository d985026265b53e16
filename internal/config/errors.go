package config

import "fmt"

// ConfigurationError reports an unusable model configuration: an unknown
// model id, a missing API key, or an invalid catalog. It is fatal to the
// operation that hit it and never retried.
type ConfigurationError struct {
	ModelID string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if e.ModelID == "" {
		return fmt.Sprintf("configuration error: %s", e.Reason)
	}
	return fmt.Sprintf("configuration error: model %q: %s", e.ModelID, e.Reason)
}
