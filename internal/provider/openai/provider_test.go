package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianshen/gitnote/internal/provider"
)

func collect(t *testing.T, ch <-chan provider.StreamEvent) (text []string, last provider.StreamEvent) {
	t.Helper()
	for evt := range ch {
		if evt.Type == provider.EventTextDelta {
			text = append(text, evt.Text)
		}
		last = evt
	}
	return text, last
}

func TestStreamTextResponse(t *testing.T) {
	sseBody := `data: {"id":"chatcmpl-1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"role":"assistant","content":""},"finish_reason":null}]}

data: {"id":"chatcmpl-1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":"Hel"},"finish_reason":null}]}

data: {"id":"chatcmpl-1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":"lo"},"finish_reason":null}]}

data: {"id":"chatcmpl-1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":" world"},"finish_reason":null}]}

data: {"id":"chatcmpl-1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}

data: [DONE]

`

	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(sseBody))
	}))
	defer server.Close()

	p := New(server.URL, "test-api-key", provider.Options{})
	var _ provider.LLMProvider = p

	req := provider.CompletionRequest{
		Model:     "llama-4-scout-17b-16e-instruct",
		System:    "You are helpful.",
		Messages:  []provider.Message{provider.NewUserMessage("Hi")},
		MaxTokens: 1000,
	}

	ch, err := p.Stream(context.Background(), req)
	require.NoError(t, err)

	text, last := collect(t, ch)
	assert.Equal(t, []string{"Hel", "lo", " world"}, text)
	assert.Equal(t, provider.EventStop, last.Type)

	assert.Equal(t, true, body["stream"])
	msgs := body["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "user", msgs[1].(map[string]any)["role"])
}

func TestStreamFinishReasonWithoutDone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"ok\"},\"finish_reason\":\"stop\"}]}\n\n"))
	}))
	defer server.Close()

	ch, err := New(server.URL, "k", provider.Options{}).Stream(context.Background(), provider.CompletionRequest{Model: "m"})
	require.NoError(t, err)

	text, last := collect(t, ch)
	assert.Equal(t, []string{"ok"}, text)
	assert.Equal(t, provider.EventStop, last.Type)
}

func TestStreamTruncated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"par\"}}]}\n\n"))
	}))
	defer server.Close()

	ch, err := New(server.URL, "k", provider.Options{}).Stream(context.Background(), provider.CompletionRequest{Model: "m"})
	require.NoError(t, err)

	_, last := collect(t, ch)
	assert.Equal(t, provider.EventError, last.Type)
	assert.True(t, errors.Is(last.Error, ErrStreamTruncated))
}

func TestStreamMalformedChunk(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\n\ndata: {not json\n\ndata: [DONE]\n\n"))
	}))
	defer server.Close()

	ch, err := New(server.URL, "k", provider.Options{}).Stream(context.Background(), provider.CompletionRequest{Model: "m"})
	require.NoError(t, err)

	text, last := collect(t, ch)
	assert.Equal(t, []string{"a"}, text)
	assert.Equal(t, provider.EventError, last.Type)
	assert.Contains(t, last.Error.Error(), "parsing chunk")
}

func TestStreamInlineErrorChunk(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data: {\"error\":{\"message\":\"overloaded\"}}\n\n"))
	}))
	defer server.Close()

	ch, err := New(server.URL, "k", provider.Options{}).Stream(context.Background(), provider.CompletionRequest{Model: "m"})
	require.NoError(t, err)

	_, last := collect(t, ch)
	assert.Equal(t, provider.EventError, last.Type)
	assert.Contains(t, last.Error.Error(), "overloaded")
}

func TestStreamIdleTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"slow\"}}]}\n\n"))
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	p := New(server.URL, "k", provider.Options{IdleTimeout: 50 * time.Millisecond})
	ch, err := p.Stream(context.Background(), provider.CompletionRequest{Model: "m"})
	require.NoError(t, err)

	text, last := collect(t, ch)
	assert.Equal(t, []string{"slow"}, text)
	assert.Equal(t, provider.EventError, last.Type)
	assert.True(t, errors.Is(last.Error, ErrIdleTimeout))
}

func TestStreamIdleTimeoutBeforeHeaders(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	p := New(server.URL, "k", provider.Options{IdleTimeout: 50 * time.Millisecond})
	start := time.Now()
	_, err := p.Stream(context.Background(), provider.CompletionRequest{Model: "m"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIdleTimeout))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestStreamCallerCancelIsNotIdleTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	p := New(server.URL, "k", provider.Options{IdleTimeout: time.Minute})
	_, err := p.Stream(ctx, provider.CompletionRequest{Model: "m"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrIdleTimeout))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestStreamHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
	}))
	defer server.Close()

	_, err := New(server.URL, "bad", provider.Options{}).Stream(context.Background(), provider.CompletionRequest{Model: "m"})
	var apiErr *provider.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "invalid api key", apiErr.Message)
}

func TestCompleteReturnsMessageContent(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"choices":[{"index":0,"message":{"role":"assistant","content":"# Usage\nRun it."}}]}`)
	}))
	defer server.Close()

	temp := 0.7
	p := New(server.URL+"/", "test-api-key", provider.Options{ExtraHeaders: map[string]string{"X-Title": "gitnote"}})
	out, err := p.Complete(context.Background(), provider.CompletionRequest{
		Model:       "m",
		Messages:    []provider.Message{provider.NewUserMessage("describe")},
		MaxTokens:   4096,
		Temperature: &temp,
		Extra:       map[string]any{"top_p": 0.9, "model": "ignored"},
	})
	require.NoError(t, err)
	assert.Equal(t, "# Usage\nRun it.", out)

	assert.Equal(t, false, body["stream"])
	assert.Equal(t, "m", body["model"])
	assert.Equal(t, 0.9, body["top_p"])
	assert.Equal(t, 0.7, body["temperature"])
	assert.Equal(t, float64(4096), body["max_tokens"])
}

func TestCompleteEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"choices":[]}`)
	}))
	defer server.Close()

	out, err := New(server.URL, "k", provider.Options{}).Complete(context.Background(), provider.CompletionRequest{Model: "m"})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestCompleteHonoursContextDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := New(server.URL, "k", provider.Options{}).Complete(ctx, provider.CompletionRequest{Model: "m"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
