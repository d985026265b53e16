package analysis

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/julianshen/gitnote/internal/models"
	"github.com/julianshen/gitnote/internal/provider"
)

const defaultUnifyTimeout = 60 * time.Second

// Unifier merges perspective results into one article with a single
// generation call, falling back to FallbackArticle on any failure.
type Unifier struct {
	resolver    *models.Resolver
	newProvider provider.Factory
	modelID     string
	timeout     time.Duration
	logger      zerolog.Logger
}

// NewUnifier creates a Unifier. An empty modelID selects the default model.
func NewUnifier(res *models.Resolver, newProvider provider.Factory, modelID string, timeout time.Duration, logger zerolog.Logger) *Unifier {
	if timeout <= 0 {
		timeout = defaultUnifyTimeout
	}
	return &Unifier{
		resolver:    res,
		newProvider: newProvider,
		modelID:     modelID,
		timeout:     timeout,
		logger:      logger,
	}
}

// Unify returns the merged article. It never fails.
func (u *Unifier) Unify(ctx context.Context, repo string, result Result, lang string) string {
	article, _ := u.unify(ctx, repo, result, lang)
	return article
}

// unify also reports whether the article came from the model.
func (u *Unifier) unify(ctx context.Context, repo string, result Result, lang string) (string, bool) {
	text, err := u.merge(ctx, repo, result, lang)
	if err != nil {
		u.logger.Warn().Err(&UnificationError{Err: err}).Str("repo", repo).Msg("using template article")
		return FallbackArticle(repo, result, lang), false
	}
	return text, true
}

func (u *Unifier) merge(ctx context.Context, repo string, result Result, lang string) (string, error) {
	ep, err := u.resolver.Endpoint(u.modelID)
	if err != nil {
		return "", err
	}
	llm, err := u.newProvider(ep)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	prompt := BuildUnifyPrompt(repo, result, lang)
	req := provider.NewRequest(ep, "", []provider.Message{provider.NewUserMessage(prompt)})
	text, err := llm.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(text), nil
}
