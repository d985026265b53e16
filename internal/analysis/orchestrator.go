package analysis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"github.com/julianshen/gitnote/internal/config"
	"github.com/julianshen/gitnote/internal/fetch"
	"github.com/julianshen/gitnote/internal/models"
	"github.com/julianshen/gitnote/internal/provider"
)

const defaultPerspectiveTimeout = 30 * time.Second

// Orchestrator runs one analysis: resolve the model, fetch the snapshot,
// fan out one generation call per perspective, join all of them, unify.
type Orchestrator struct {
	resolver           *models.Resolver
	fetcher            fetch.Fetcher
	newProvider        provider.Factory
	modelID            string
	language           string
	perspectiveTimeout time.Duration
	unifyTimeout       time.Duration
	logger             zerolog.Logger
	now                func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithModel selects the model id; empty means the configured default.
func WithModel(id string) Option {
	return func(o *Orchestrator) { o.modelID = id }
}

// WithLanguage sets the language used when Run is given none.
func WithLanguage(lang string) Option {
	return func(o *Orchestrator) {
		if lang != "" {
			o.language = lang
		}
	}
}

// WithTimeouts sets the per-perspective and unification timeouts.
func WithTimeouts(perspective, unify time.Duration) Option {
	return func(o *Orchestrator) {
		if perspective > 0 {
			o.perspectiveTimeout = perspective
		}
		if unify > 0 {
			o.unifyTimeout = unify
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(res *models.Resolver, f fetch.Fetcher, newProvider provider.Factory, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		resolver:           res,
		fetcher:            f,
		newProvider:        newProvider,
		language:           "ja",
		perspectiveTimeout: defaultPerspectiveTimeout,
		unifyTimeout:       defaultUnifyTimeout,
		logger:             zerolog.Nop(),
		now:                time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With().Str("component", "analysis").Logger()
	return o
}

// Run analyzes repo and writes the article in lang. It fails only with a
// *config.ConfigurationError, a *fetch.ContentFetchError, or an invalid
// repository name; perspective failures are recorded in the report.
func (o *Orchestrator) Run(ctx context.Context, repo, lang string) (*Report, error) {
	start := o.now()
	if strings.TrimSpace(lang) == "" {
		lang = o.language
	}

	ep, err := o.resolver.Endpoint(o.modelID)
	if err != nil {
		return nil, err
	}

	r, err := fetch.ParseRepo(repo)
	if err != nil {
		return nil, err
	}

	llm, err := o.newProvider(ep)
	if err != nil {
		return nil, &config.ConfigurationError{ModelID: ep.ID, Reason: err.Error()}
	}

	snap, err := o.fetcher.Fetch(ctx, r)
	if err != nil {
		var fe *fetch.ContentFetchError
		if !errors.As(err, &fe) {
			err = &fetch.ContentFetchError{Err: err}
		}
		o.logger.Error().Err(err).Str("repo", r.String()).Msg("fetch failed")
		return nil, err
	}

	o.logger.Info().Str("repo", r.String()).Str("model", ep.ID).Str("lang", lang).Msg("analyzing")
	result := o.analyze(ctx, llm, ep, snap.Markdown, lang)

	unifier := NewUnifier(o.resolver, o.newProvider, o.modelID, o.unifyTimeout, o.logger)
	article, unified := unifier.unify(ctx, r.String(), result, lang)

	return &Report{
		Repo:         r.String(),
		Language:     lang,
		Model:        ep.ID,
		SnapshotURL:  snap.URL,
		Perspectives: result,
		Article:      article,
		Unified:      unified,
		Duration:     o.now().Sub(start),
	}, nil
}

// analyze issues the perspective calls concurrently. Each call has its own
// timeout and records its own outcome; none cancels another.
func (o *Orchestrator) analyze(ctx context.Context, llm provider.LLMProvider, ep models.Endpoint, markdown, lang string) Result {
	result := make(Result, len(perspectives))
	var mu sync.Mutex

	p := pool.New().WithMaxGoroutines(len(perspectives))
	for _, persp := range perspectives {
		p.Go(func() {
			out := o.analyzePerspective(ctx, llm, ep, persp.Key, markdown, lang)
			mu.Lock()
			result[persp.Key] = out
			mu.Unlock()
		})
	}
	p.Wait()

	return result
}

func (o *Orchestrator) analyzePerspective(ctx context.Context, llm provider.LLMProvider, ep models.Endpoint, k Key, markdown, lang string) Outcome {
	ctx, cancel := context.WithTimeout(ctx, o.perspectiveTimeout)
	defer cancel()

	prompt := BuildPrompt(k, markdown, lang)
	req := provider.NewRequest(ep, "", []provider.Message{provider.NewUserMessage(prompt)})
	text, err := llm.Complete(ctx, req)
	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrEmptyResponse
	}
	if err != nil {
		pe := &PerspectiveError{Perspective: k, Err: err}
		var apiErr *provider.APIError
		if errors.As(err, &apiErr) {
			pe.StatusCode = apiErr.StatusCode
		}
		pe.Timeout = errors.Is(err, context.DeadlineExceeded)
		o.logger.Warn().Err(pe).Str("perspective", string(k)).Msg("perspective failed")
		return Outcome{Text: pe.Inline(lang), Err: pe}
	}
	return Outcome{Text: text}
}
