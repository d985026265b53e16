package fetch

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultMaxBytes = 8 << 20

// UithubFetcher retrieves the flattened Markdown view served by uithub-style
// services at <base>/<owner>/<repo>?ext=md.
type UithubFetcher struct {
	baseURL  string
	maxBytes int64
	client   *http.Client
	logger   zerolog.Logger
}

// NewUithubFetcher creates a fetcher with the given client timeout and
// response size limit.
func NewUithubFetcher(baseURL string, timeout time.Duration, maxBytes int64, logger zerolog.Logger) *UithubFetcher {
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	return &UithubFetcher{
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxBytes: maxBytes,
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "fetch").Logger(),
	}
}

// URL returns the snapshot address for repo.
func (f *UithubFetcher) URL(repo Repo) string {
	return fmt.Sprintf("%s/%s/%s?ext=md", f.baseURL, repo.Owner, repo.Name)
}

// Fetch downloads the snapshot. Empty bodies yield a placeholder snapshot;
// HTML bodies and bodies over the size limit are rejected.
func (f *UithubFetcher) Fetch(ctx context.Context, repo Repo) (*Snapshot, error) {
	url := f.URL(repo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &ContentFetchError{URL: url, Err: err}
	}
	req.Header.Set("Accept", "text/markdown, text/plain;q=0.9, */*;q=0.1")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &ContentFetchError{URL: url, Timeout: isTimeout(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ContentFetchError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, &ContentFetchError{URL: url, Timeout: isTimeout(err), Err: fmt.Errorf("read response: %w", err)}
	}
	if int64(len(body)) > f.maxBytes {
		f.logger.Warn().Str("url", url).Int64("limit", f.maxBytes).Msg("snapshot too large")
		return nil, &ContentFetchError{URL: url, Err: fmt.Errorf("%w (%d bytes)", ErrTooLarge, f.maxBytes)}
	}

	text := string(body)
	if looksLikeHTML(resp.Header.Get("Content-Type"), text) {
		f.logger.Warn().Str("url", url).Msg("snapshot looks like HTML")
		return nil, &ContentFetchError{URL: url, Err: ErrHTMLContent}
	}

	snap := &Snapshot{Repo: repo, URL: url, Markdown: text}
	if strings.TrimSpace(text) == "" {
		f.logger.Warn().Str("url", url).Msg("empty snapshot")
		snap.Markdown = "[warning] empty content returned from " + url
		snap.Placeholder = true
	}
	f.logger.Debug().Str("url", url).Int("bytes", len(body)).Msg("snapshot fetched")
	return snap, nil
}

func looksLikeHTML(contentType, body string) bool {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil && mt == "text/html" {
		return true
	}
	head := strings.ToLower(strings.TrimSpace(body))
	return strings.HasPrefix(head, "<html") || strings.HasPrefix(head, "<!doctype")
}
