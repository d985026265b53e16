package analysis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/julianshen/gitnote/internal/config"
	"github.com/julianshen/gitnote/internal/fetch"
	"github.com/julianshen/gitnote/internal/models"
	"github.com/julianshen/gitnote/internal/provider"
)

const snapshotMarker = "SNAPSHOT-MARKER"

// fakeLLM answers Complete calls through a callback keyed on the prompt.
type fakeLLM struct {
	calls   atomic.Int32
	respond func(ctx context.Context, prompt string) (string, error)

	mu      sync.Mutex
	prompts []string
}

func (f *fakeLLM) Complete(ctx context.Context, req provider.CompletionRequest) (string, error) {
	f.calls.Add(1)
	prompt := req.Messages[len(req.Messages)-1].Content
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	return f.respond(ctx, prompt)
}

func (f *fakeLLM) Stream(context.Context, provider.CompletionRequest) (<-chan provider.StreamEvent, error) {
	return nil, errors.New("streaming not supported by fake")
}

func (f *fakeLLM) factory(calls *atomic.Int32) provider.Factory {
	return func(models.Endpoint) (provider.LLMProvider, error) {
		if calls != nil {
			calls.Add(1)
		}
		return f, nil
	}
}

// isPerspectivePrompt distinguishes perspective prompts, which embed the
// snapshot, from the unify prompt, which does not.
func isPerspectivePrompt(prompt string) bool {
	return strings.Contains(prompt, snapshotMarker)
}

func perspectiveOf(prompt string) Key {
	for _, p := range perspectives {
		if strings.Contains(prompt, `"`+p.EN+`"`) || strings.Contains(prompt, "「"+p.JA+"」") {
			return p.Key
		}
	}
	return ""
}

type fakeFetcher struct {
	calls atomic.Int32
	snap  *fetch.Snapshot
	err   error
	block chan struct{}
}

func (f *fakeFetcher) Fetch(ctx context.Context, repo fetch.Repo) (*fetch.Snapshot, error) {
	f.calls.Add(1)
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.snap != nil {
		return f.snap, nil
	}
	return &fetch.Snapshot{
		Repo:     repo,
		URL:      "https://uithub.test/" + repo.String() + "?ext=md",
		Markdown: "# " + repo.String() + "\n" + snapshotMarker,
	}, nil
}

func testResolver(secrets config.MapSecrets) *models.Resolver {
	return models.NewResolver(config.DefaultConfig(), secrets)
}

func keyedSecrets() config.MapSecrets {
	return config.MapSecrets{"CEREBRAS_API_KEY": "csk-test"}
}

func fullResult() Result {
	return Result{
		Usage:        {Text: "usage text"},
		Installation: {Text: "installation text"},
		Structure:    {Text: "structure text"},
		Logic:        {Text: "logic text"},
	}
}
