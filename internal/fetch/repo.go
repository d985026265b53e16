package fetch

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var repoPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+/[A-Za-z0-9_.-]+$`)

// Repo identifies a GitHub repository.
type Repo struct {
	Owner string
	Name  string
}

// String returns the "owner/repo" form.
func (r Repo) String() string {
	return r.Owner + "/" + r.Name
}

// ParseRepo accepts "owner/repo" or a github.com URL such as
// https://github.com/owner/repo.git or https://github.com/owner/repo/tree/main.
func ParseRepo(input string) (Repo, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return Repo{}, fmt.Errorf("repository name is empty")
	}

	if isRepoURL(s) {
		if !strings.Contains(s, "://") {
			s = "https://" + s
		}
		u, err := url.Parse(s)
		if err != nil {
			return Repo{}, fmt.Errorf("invalid repository URL %q: %w", input, err)
		}
		if !strings.EqualFold(strings.TrimPrefix(u.Host, "www."), "github.com") {
			return Repo{}, fmt.Errorf("invalid repository URL %q: not a github.com URL", input)
		}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) < 2 {
			return Repo{}, fmt.Errorf("invalid repository URL %q: missing owner or name", input)
		}
		s = parts[0] + "/" + strings.TrimSuffix(parts[1], ".git")
	}

	if !repoPattern.MatchString(s) {
		return Repo{}, fmt.Errorf("invalid repository name %q: expected owner/repo", input)
	}
	owner, name, _ := strings.Cut(s, "/")
	if name == "." || name == ".." {
		return Repo{}, fmt.Errorf("invalid repository name %q", input)
	}
	return Repo{Owner: owner, Name: name}, nil
}

// isRepoURL reports whether s should be parsed as a URL. Names such as
// "octocat/octocat.github.com" are plain owner/repo input.
func isRepoURL(s string) bool {
	if repoPattern.MatchString(s) {
		return false
	}
	lower := strings.ToLower(s)
	return strings.Contains(lower, "://") ||
		strings.HasPrefix(lower, "github.com/") ||
		strings.HasPrefix(lower, "www.github.com/")
}
