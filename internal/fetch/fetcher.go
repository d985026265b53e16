// Package fetch obtains a flattened Markdown snapshot of a GitHub repository.
package fetch

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/julianshen/gitnote/internal/config"
)

// Snapshot is the Markdown rendition of a repository handed to the analysis
// prompts. Placeholder is set when the source returned nothing and Markdown
// holds a warning line instead.
type Snapshot struct {
	Repo        Repo
	URL         string
	Markdown    string
	Placeholder bool
}

// Fetcher retrieves repository snapshots. Implementations return a
// *ContentFetchError when no snapshot can be produced.
type Fetcher interface {
	Fetch(ctx context.Context, repo Repo) (*Snapshot, error)
}

// New returns the fetcher selected by cfg.Source.
func New(cfg config.FetchConfig, secrets config.Secrets, logger zerolog.Logger) (Fetcher, error) {
	switch cfg.Source {
	case "", "uithub":
		return NewUithubFetcher(cfg.BaseURL, cfg.Timeout, cfg.MaxBytes, logger), nil
	case "github":
		token, _ := secrets.Lookup(cfg.GitHubTokenEnv)
		return NewGitHubFetcher(GitHubOptions{
			Token:      token,
			APIURL:     cfg.GitHubAPIURL,
			Timeout:    cfg.Timeout,
			MaxEntries: cfg.MaxTreeEntries,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown fetch source %q", cfg.Source)
	}
}
