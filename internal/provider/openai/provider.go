package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/julianshen/gitnote/internal/provider"
)

// ErrIdleTimeout is reported when a stream delivers no data within the
// configured idle window.
var ErrIdleTimeout = errors.New("stream idle timeout")

// ErrStreamTruncated is reported when the stream ends without a [DONE]
// marker or a finish reason.
var ErrStreamTruncated = errors.New("stream ended before completion")

const doneMarker = "[DONE]"

func init() {
	provider.RegisterProvider("openai", func(baseURL, apiKey string, opts provider.Options) provider.LLMProvider {
		return New(baseURL, apiKey, opts)
	})
}

// Provider implements the LLMProvider interface for OpenAI-compatible APIs.
type Provider struct {
	baseURL      string
	apiKey       string
	extraHeaders map[string]string
	idleTimeout  time.Duration
	client       *http.Client
}

// New creates a new OpenAI-compatible provider.
func New(baseURL, apiKey string, opts provider.Options) *Provider {
	extraHeaders := opts.ExtraHeaders
	if extraHeaders == nil {
		extraHeaders = make(map[string]string)
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &Provider{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		extraHeaders: extraHeaders,
		idleTimeout:  opts.IdleTimeout,
		client:       client,
	}
}

// apiRequest is the request body sent to the chat completions endpoint.
type apiRequest struct {
	Model       string       `json:"model"`
	Messages    []apiMessage `json:"messages"`
	MaxTokens   int          `json:"max_tokens,omitempty"`
	Temperature *float64     `json:"temperature,omitempty"`
	Stream      bool         `json:"stream"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type chatChunk struct {
	Choices []chunkChoice `json:"choices"`
	Error   *apiErrorBody `json:"error,omitempty"`
}

type chunkChoice struct {
	Delta        chunkDelta `json:"delta"`
	FinishReason *string    `json:"finish_reason"`
}

type chunkDelta struct {
	Content *string `json:"content"`
}

type apiErrorBody struct {
	Message string `json:"message"`
}

// Complete sends a non-streaming completion request and returns
// choices[0].message.content. A response without choices yields "".
func (p *Provider) Complete(ctx context.Context, req provider.CompletionRequest) (string, error) {
	resp, err := p.do(ctx, req, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == nil {
		return "", nil
	}
	return *out.Choices[0].Message.Content, nil
}

// Stream sends a streaming completion request and returns a channel of
// StreamEvents. The channel carries text_delta events followed by exactly one
// stop or error event.
func (p *Provider) Stream(ctx context.Context, req provider.CompletionRequest) (<-chan provider.StreamEvent, error) {
	streamCtx, cancel := context.WithCancel(ctx)

	// The watchdog covers the wait for response headers as well as the body.
	wd := newWatchdog(p.idleTimeout, cancel)
	resp, err := p.do(streamCtx, req, true)
	if err != nil {
		wd.stop()
		cancel()
		if wd.expired() {
			return nil, fmt.Errorf("no response within %s: %w", p.idleTimeout, ErrIdleTimeout)
		}
		return nil, err
	}
	wd.reset()

	ch := make(chan provider.StreamEvent)
	go p.processStream(ctx, cancel, wd, resp.Body, ch)

	return ch, nil
}

func (p *Provider) do(ctx context.Context, req provider.CompletionRequest, stream bool) (*http.Response, error) {
	body, err := p.buildRequestBody(req, stream)
	if err != nil {
		return nil, fmt.Errorf("building request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	if stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	for k, v := range p.extraHeaders {
		httpReq.Header.Set(k, v)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return nil, newAPIError(resp.StatusCode, respBody)
	}

	return resp, nil
}

func newAPIError(status int, body []byte) *provider.APIError {
	apiErr := &provider.APIError{StatusCode: status, Body: strings.TrimSpace(string(body))}
	var parsed struct {
		Error *apiErrorBody `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Error != nil {
		apiErr.Message = parsed.Error.Message
	}
	return apiErr
}

func (p *Provider) buildRequestBody(req provider.CompletionRequest, stream bool) ([]byte, error) {
	apiReq := apiRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      stream,
	}

	if req.System != "" {
		apiReq.Messages = append(apiReq.Messages, apiMessage{
			Role:    provider.RoleSystem,
			Content: req.System,
		})
	}

	for _, msg := range req.Messages {
		apiReq.Messages = append(apiReq.Messages, apiMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	if len(req.Extra) == 0 {
		return json.Marshal(apiReq)
	}

	// Extra parameters never override the fields set above.
	base, err := json.Marshal(apiReq)
	if err != nil {
		return nil, err
	}
	merged := make(map[string]any)
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range req.Extra {
		if _, reserved := merged[k]; !reserved {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}
