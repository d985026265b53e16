package analysis

import (
	"context"
	"sync"
)

// Analyzer is the caller-facing state around an Orchestrator: whether a run
// is in flight, the last error, and the last article. A new run clears the
// previous error and article.
type Analyzer struct {
	orch *Orchestrator

	mu      sync.Mutex
	loading bool
	err     error
	report  *Report
}

// NewAnalyzer wraps o.
func NewAnalyzer(o *Orchestrator) *Analyzer {
	return &Analyzer{orch: o}
}

// Run performs one analysis. It returns ErrBusy without touching state when
// a run is already in flight.
func (a *Analyzer) Run(ctx context.Context, repo, lang string) error {
	a.mu.Lock()
	if a.loading {
		a.mu.Unlock()
		return ErrBusy
	}
	a.loading = true
	a.err = nil
	a.report = nil
	a.mu.Unlock()

	report, err := a.orch.Run(ctx, repo, lang)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.loading = false
	a.err = err
	a.report = report
	return err
}

// IsLoading reports whether a run is in flight.
func (a *Analyzer) IsLoading() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loading
}

// Err returns the last run's error.
func (a *Analyzer) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

// Article returns the last run's article, or "" if none.
func (a *Analyzer) Article() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.report == nil {
		return ""
	}
	return a.report.Article
}

// Report returns the last run's full report, or nil.
func (a *Analyzer) Report() *Report {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.report
}
