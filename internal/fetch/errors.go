package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrHTMLContent marks a response that carried an HTML page where Markdown
// was expected.
var ErrHTMLContent = errors.New("content looks like HTML, not Markdown")

// ErrTooLarge marks a snapshot bigger than the configured size limit.
// Snapshots are embedded whole or not at all.
var ErrTooLarge = errors.New("snapshot exceeds size limit")

// ContentFetchError reports that a repository snapshot could not be obtained.
type ContentFetchError struct {
	URL        string
	StatusCode int
	Timeout    bool
	Err        error
}

func (e *ContentFetchError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("fetching %s: timed out", e.URL)
	case e.StatusCode != 0:
		return fmt.Sprintf("fetching %s: HTTP %d", e.URL, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("fetching %s: failed", e.URL)
	}
}

func (e *ContentFetchError) Unwrap() error {
	return e.Err
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
