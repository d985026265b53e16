package chat

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/julianshen/gitnote/internal/models"
	"github.com/julianshen/gitnote/internal/provider"
)

// DefaultHistoryLimit is the number of messages a session keeps.
const DefaultHistoryLimit = 10

// Session is one conversation about a fixed article. Only one turn may be in
// flight at a time.
type Session struct {
	article     string
	lang        string
	modelID     string
	limit       int
	maxTokens   int
	temperature *float64
	resolver    *models.Resolver
	newProvider provider.Factory
	logger      zerolog.Logger

	mu        sync.Mutex
	messages  []Message
	loading   bool
	err       error
	listeners map[int]func(Snapshot)
	nextID    int
}

// Option configures a Session.
type Option func(*Session)

// WithLanguage sets the session language (default "ja").
func WithLanguage(lang string) Option {
	return func(s *Session) {
		if lang != "" {
			s.lang = lang
		}
	}
}

// WithModel selects the model id; empty means the configured default.
func WithModel(id string) Option {
	return func(s *Session) { s.modelID = id }
}

// WithHistoryLimit caps the number of retained messages.
func WithHistoryLimit(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithGeneration overrides the endpoint's max_tokens and temperature for
// chat turns. A zero maxTokens or nil temperature keeps the endpoint default.
func WithGeneration(maxTokens int, temperature *float64) Option {
	return func(s *Session) {
		s.maxTokens = maxTokens
		s.temperature = temperature
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// NewSession creates a session scoped to article.
func NewSession(article string, res *models.Resolver, newProvider provider.Factory, opts ...Option) *Session {
	s := &Session{
		article:     article,
		lang:        "ja",
		limit:       DefaultHistoryLimit,
		resolver:    res,
		newProvider: newProvider,
		logger:      zerolog.Nop(),
		listeners:   make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", "chat").Logger()
	return s
}

// Article returns the article the session is scoped to.
func (s *Session) Article() string {
	return s.article
}

// Language returns the session language.
func (s *Session) Language() string {
	return s.lang
}

// Messages returns a copy of the conversation.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneMessages(s.messages)
}

// IsLoading reports whether a turn is in flight.
func (s *Session) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the last turn's error, cleared when a new turn starts.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn to receive a snapshot after every state change.
// fn is called synchronously from the goroutine running Send.
func (s *Session) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Send asks one question. Blank input is ignored. On failure the
// conversation is restored to its state before the call and a *ChatError is
// returned.
func (s *Session) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return ErrBusy
	}
	before := cloneMessages(s.messages)
	msgs := append(cloneMessages(s.messages), newMessage(SenderUser, text, false))
	s.messages = trimFront(msgs, s.limit)
	s.loading = true
	s.err = nil
	s.mu.Unlock()
	s.publish()

	if err := s.stream(ctx, before, text); err != nil {
		cerr := &ChatError{Err: err}
		s.logger.Warn().Err(err).Msg("chat turn failed")

		s.mu.Lock()
		s.messages = before
		s.loading = false
		s.err = cerr
		s.mu.Unlock()
		s.publish()
		return cerr
	}

	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
	s.publish()
	return nil
}

// stream runs one generation request and accumulates its text into a
// placeholder AI message.
func (s *Session) stream(ctx context.Context, history []Message, text string) error {
	ep, err := s.resolver.Endpoint(s.modelID)
	if err != nil {
		return err
	}
	llm, err := s.newProvider(ep)
	if err != nil {
		return err
	}

	req := provider.NewRequest(ep, SystemPrompt(s.article, history, s.lang), []provider.Message{provider.NewUserMessage(text)})
	if s.maxTokens > 0 {
		req.MaxTokens = s.maxTokens
	}
	if s.temperature != nil {
		temp := *s.temperature
		req.Temperature = &temp
	}

	placeholder := newMessage(SenderAI, "", true)
	s.mu.Lock()
	s.messages = trimFront(append(cloneMessages(s.messages), placeholder), s.limit)
	s.mu.Unlock()
	s.publish()

	events, err := llm.Stream(ctx, req)
	if err != nil {
		return err
	}

	var answer strings.Builder
	for evt := range events {
		switch evt.Type {
		case provider.EventTextDelta:
			answer.WriteString(evt.Text)
			s.update(placeholder.ID, answer.String(), true)
		case provider.EventStop:
			if strings.TrimSpace(answer.String()) == "" {
				return ErrEmptyAnswer
			}
			s.update(placeholder.ID, answer.String(), false)
			return nil
		case provider.EventError:
			return evt.Error
		}
	}
	return ErrStreamClosed
}

// update replaces the text of message id with a new copy of the list, so
// snapshots already handed out never change.
func (s *Session) update(id, text string, streaming bool) {
	s.mu.Lock()
	msgs := cloneMessages(s.messages)
	for i := range msgs {
		if msgs[i].ID == id {
			msgs[i].Text = text
			msgs[i].Streaming = streaming
			break
		}
	}
	s.messages = msgs
	s.mu.Unlock()
	s.publish()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		Messages:  cloneMessages(s.messages),
		IsLoading: s.loading,
		Err:       s.err,
	}
}

func (s *Session) publish() {
	s.mu.Lock()
	snap := s.snapshotLocked()
	fns := make([]func(Snapshot), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
