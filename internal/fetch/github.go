package fetch

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/v68/github"
	"github.com/nao1215/markdown"
	"github.com/rs/zerolog"
)

const defaultMaxTreeEntries = 500

// GitHubOptions configures a GitHubFetcher.
type GitHubOptions struct {
	Token      string
	APIURL     string // defaults to https://api.github.com/
	Timeout    time.Duration
	MaxEntries int
}

// GitHubFetcher builds a snapshot from the GitHub REST API: repository
// metadata, the file tree and the README.
type GitHubFetcher struct {
	client     *github.Client
	maxEntries int
	logger     zerolog.Logger
}

// NewGitHubFetcher creates a fetcher talking to the GitHub API.
func NewGitHubFetcher(opts GitHubOptions, logger zerolog.Logger) (*GitHubFetcher, error) {
	client := github.NewClient(&http.Client{Timeout: opts.Timeout})
	if opts.Token != "" {
		client = client.WithAuthToken(opts.Token)
	}
	if opts.APIURL != "" {
		base, err := url.Parse(strings.TrimRight(opts.APIURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parsing GitHub API URL: %w", err)
		}
		client.BaseURL = base
	}

	maxEntries := opts.MaxEntries
	if maxEntries <= 0 {
		maxEntries = defaultMaxTreeEntries
	}
	return &GitHubFetcher{
		client:     client,
		maxEntries: maxEntries,
		logger:     logger.With().Str("component", "fetch").Logger(),
	}, nil
}

// URL returns the API address of the repository resource.
func (f *GitHubFetcher) URL(repo Repo) string {
	return fmt.Sprintf("%srepos/%s/%s", f.client.BaseURL, repo.Owner, repo.Name)
}

// Fetch assembles the snapshot. Only the repository lookup is fatal; a
// missing README or tree leaves its section out.
func (f *GitHubFetcher) Fetch(ctx context.Context, repo Repo) (*Snapshot, error) {
	apiURL := f.URL(repo)

	meta, resp, err := f.client.Repositories.Get(ctx, repo.Owner, repo.Name)
	if err != nil {
		return nil, apiError(apiURL, resp, err)
	}

	readme, err := f.readme(ctx, repo)
	if err != nil {
		f.logger.Warn().Err(err).Str("repo", repo.String()).Msg("README unavailable")
	}

	paths, truncated, err := f.tree(ctx, repo, meta.GetDefaultBranch())
	if err != nil {
		f.logger.Warn().Err(err).Str("repo", repo.String()).Msg("file tree unavailable")
	}

	var buf bytes.Buffer
	md := markdown.NewMarkdown(&buf)
	md.H1(meta.GetFullName())
	if desc := meta.GetDescription(); desc != "" {
		md.PlainText(desc)
		md.PlainText("")
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"URL", meta.GetHTMLURL()},
			{"Default branch", meta.GetDefaultBranch()},
			{"Language", meta.GetLanguage()},
			{"Stars", strconv.Itoa(meta.GetStargazersCount())},
			{"License", meta.GetLicense().GetName()},
			{"Topics", strings.Join(meta.Topics, ", ")},
		},
	})
	md.PlainText("")

	if len(paths) > 0 {
		md.H2("Files")
		md.CodeBlocks(markdown.SyntaxHighlight("text"), strings.Join(paths, "\n"))
		if truncated {
			md.PlainTextf("_Showing the first %d entries._", len(paths))
		}
		md.PlainText("")
	}

	if readme != "" {
		md.H2("README")
		md.PlainText(readme)
	}

	return &Snapshot{Repo: repo, URL: apiURL, Markdown: md.String()}, nil
}

func (f *GitHubFetcher) readme(ctx context.Context, repo Repo) (string, error) {
	content, resp, err := f.client.Repositories.GetReadme(ctx, repo.Owner, repo.Name, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return "", nil
		}
		return "", err
	}
	return content.GetContent()
}

func (f *GitHubFetcher) tree(ctx context.Context, repo Repo, ref string) ([]string, bool, error) {
	if ref == "" {
		ref = "HEAD"
	}
	tree, _, err := f.client.Git.GetTree(ctx, repo.Owner, repo.Name, ref, true)
	if err != nil {
		return nil, false, err
	}

	truncated := tree.GetTruncated()
	paths := make([]string, 0, min(len(tree.Entries), f.maxEntries))
	for _, e := range tree.Entries {
		if len(paths) == f.maxEntries {
			truncated = true
			break
		}
		p := e.GetPath()
		if e.GetType() == "tree" {
			p += "/"
		}
		paths = append(paths, p)
	}
	return paths, truncated, nil
}

func apiError(apiURL string, resp *github.Response, err error) *ContentFetchError {
	fe := &ContentFetchError{URL: apiURL, Timeout: isTimeout(err), Err: err}
	if resp != nil && !fe.Timeout {
		fe.StatusCode = resp.StatusCode
	}
	return fe
}
