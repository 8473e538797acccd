package llmpool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxResponseSize limits the completion response body to prevent memory
// exhaustion on a misbehaving backend.
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// Compile-time interface check.
var _ CompletionClient = (*HTTPClient)(nil)

// HTTPClient is a CompletionClient speaking an OpenAI-style chat-completions
// protocol. One HTTPClient is bound to one credential; the pool caches one
// per credential.
type HTTPClient struct {
	endpoint   string
	model      string
	credential string
	http       *http.Client
}

// HTTPClientOption configures an HTTPClient.
type HTTPClientOption func(*HTTPClient)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) HTTPClientOption {
	return func(c *HTTPClient) {
		c.http.Timeout = d
	}
}

// WithHTTPClient replaces the underlying *http.Client entirely.
func WithHTTPClient(hc *http.Client) HTTPClientOption {
	return func(c *HTTPClient) {
		c.http = hc
	}
}

// NewHTTPClient creates a completion client for one backend credential.
func NewHTTPClient(endpoint, model, credential string, opts ...HTTPClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:   endpoint,
		model:      model,
		credential: credential,
		http: &http.Client{
			Timeout: 180 * time.Second, // allow time for long completions
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *TokenUsage `json:"usage"`
}

// Complete performs a single chat-completions request. Failures are wrapped
// as TransientError or FatalError so the pool's classifier can route them.
// Error messages never include the credential.
func (c *HTTPClient) Complete(ctx context.Context, prompt string) (*Completion, error) {
	body, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, NewFatalError(fmt.Errorf("llmpool: build request body: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, NewFatalError(fmt.Errorf("llmpool: create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.credential)

	resp, err := c.http.Do(req)
	if err != nil {
		// Network errors are transient.
		return nil, NewTransientError(fmt.Errorf("llmpool: request failed: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, NewTransientError(fmt.Errorf("llmpool: read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyHTTPError(resp.StatusCode, respBody)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, NewFatalError(fmt.Errorf("llmpool: decode response: %w", err))
	}
	if len(parsed.Choices) == 0 {
		return nil, NewFatalError(fmt.Errorf("llmpool: response contains no choices"))
	}

	return &Completion{
		Text:  parsed.Choices[0].Message.Content,
		Usage: parsed.Usage,
	}, nil
}

// classifyHTTPError sorts an HTTP error status into transient or fatal.
func classifyHTTPError(statusCode int, body []byte) error {
	bodyStr := string(body)
	if len(bodyStr) > 200 {
		bodyStr = bodyStr[:200] + "..."
	}
	err := fmt.Errorf("llmpool: backend error (status %d): %s", statusCode, bodyStr)

	switch {
	case statusCode == http.StatusTooManyRequests:
		return NewTransientError(err)
	case statusCode >= 500:
		return NewTransientError(err)
	case statusCode == http.StatusUnauthorized,
		statusCode == http.StatusForbidden,
		statusCode == http.StatusBadRequest:
		return NewFatalError(err)
	default:
		return NewFatalError(err)
	}
}
