package llmpool

import "context"

// TokenUsage is the backend's own token accounting, when it provides one.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion is the result of one completion call.
type Completion struct {
	// Text is the generated text.
	Text string

	// Usage is the backend-reported token accounting, or nil when the backend
	// does not count tokens. The pool falls back to an approximation.
	Usage *TokenUsage
}

// CompletionClient performs a single completion call against the backend.
// Implementations must be safe for concurrent use: the pool caches one client
// per credential and shares them across stages.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (*Completion, error)
}

// ClientFactory builds the cached client for one credential. The pool calls
// it once per credential at construction time.
type ClientFactory func(credential string) CompletionClient
