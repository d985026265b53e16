package openai

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/julianshen/gitnote/internal/provider"
)

// maxLineSize bounds a single stream line; completion chunks are small but
// some gateways pack large deltas.
const maxLineSize = 1 << 20

// chunkScanner yields the data payload of each event in a chat completions
// stream. Event names, ids and comments carry nothing for this API and are
// skipped; multi-line data is joined with newlines.
type chunkScanner struct {
	lines *bufio.Scanner
	data  string
	err   error
}

func newChunkScanner(r io.Reader) *chunkScanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &chunkScanner{lines: sc}
}

// Scan advances to the next payload. A final event without a trailing blank
// line is still delivered.
func (s *chunkScanner) Scan() bool {
	var parts []string
	for s.lines.Scan() {
		line := strings.TrimSuffix(s.lines.Text(), "\r")
		if line == "" {
			if len(parts) > 0 {
				s.data = strings.Join(parts, "\n")
				return true
			}
			continue
		}
		if rest, ok := strings.CutPrefix(line, "data:"); ok {
			parts = append(parts, strings.TrimSpace(rest))
		}
	}
	s.err = s.lines.Err()
	if len(parts) > 0 {
		s.data = strings.Join(parts, "\n")
		return true
	}
	return false
}

// Data returns the payload read by the last successful Scan.
func (s *chunkScanner) Data() string {
	return s.data
}

// Err returns the first read error, if any.
func (s *chunkScanner) Err() error {
	return s.err
}

// watchdog cancels a stream when no progress is reported within d. A nil
// watchdog (no idle timeout configured) is inert.
type watchdog struct {
	d     time.Duration
	timer *time.Timer
	fired atomic.Bool
}

func newWatchdog(d time.Duration, cancel context.CancelFunc) *watchdog {
	if d <= 0 {
		return nil
	}
	w := &watchdog{d: d}
	w.timer = time.AfterFunc(d, func() {
		w.fired.Store(true)
		cancel()
	})
	return w
}

func (w *watchdog) reset() {
	if w != nil {
		w.timer.Reset(w.d)
	}
}

func (w *watchdog) stop() {
	if w != nil {
		w.timer.Stop()
	}
}

func (w *watchdog) expired() bool {
	return w != nil && w.fired.Load()
}

// processStream reads chunks from the response body and sends StreamEvents.
// Sends are bound to the caller's ctx; the HTTP body is bound to the stream
// context cancelled by the watchdog.
func (p *Provider) processStream(ctx context.Context, cancel context.CancelFunc, wd *watchdog, body io.ReadCloser, ch chan<- provider.StreamEvent) {
	defer close(ch)
	defer body.Close()
	defer cancel()
	defer wd.stop()

	send := func(evt provider.StreamEvent) bool {
		select {
		case ch <- evt:
			return true
		case <-ctx.Done():
			return false
		}
	}
	fail := func(err error) {
		send(provider.StreamEvent{Type: provider.EventError, Error: err})
	}

	finished := false
	s := newChunkScanner(body)
	for s.Scan() {
		wd.reset()

		data := s.Data()
		if data == "" {
			continue
		}
		if data == doneMarker {
			send(provider.StreamEvent{Type: provider.EventStop})
			return
		}

		var chunk chatChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			fail(fmt.Errorf("parsing chunk: %w", err))
			return
		}
		if chunk.Error != nil {
			fail(fmt.Errorf("stream error: %s", chunk.Error.Message))
			return
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		choice := chunk.Choices[0]
		if choice.Delta.Content != nil && *choice.Delta.Content != "" {
			if !send(provider.StreamEvent{Type: provider.EventTextDelta, Text: *choice.Delta.Content}) {
				return
			}
		}
		if choice.FinishReason != nil && *choice.FinishReason != "" {
			finished = true
		}
	}

	switch {
	case wd.expired():
		fail(fmt.Errorf("no data for %s: %w", p.idleTimeout, ErrIdleTimeout))
	case s.Err() != nil:
		fail(fmt.Errorf("reading stream: %w", s.Err()))
	case ctx.Err() != nil:
		fail(ctx.Err())
	case finished:
		send(provider.StreamEvent{Type: provider.EventStop})
	default:
		fail(ErrStreamTruncated)
	}
}
