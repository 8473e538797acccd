// Package llmpool provides a resilient invocation pool around an external
// completion service. The pool owns a set of credentials with one cached
// client per credential, rotates credentials round-robin on every attempt,
// retries rate-limited calls with exponential backoff and jitter, and reports
// token/latency metrics for every call.
package llmpool

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync/atomic"
	"time"
)

// DefaultMaxAttempts is the retry budget per call.
const DefaultMaxAttempts = 4

// CallMetrics records the cost of one Complete call.
type CallMetrics struct {
	// TokensIn and TokensOut come from the backend's own accounting when
	// available, else from a len/4 approximation.
	TokensIn  int `json:"tokens_in"`
	TokensOut int `json:"tokens_out"`

	// OutputLen is the byte length of the returned text.
	OutputLen int `json:"output_len"`

	// ElapsedMs is the wall-clock duration of the call including retries.
	ElapsedMs int64 `json:"elapsed_ms"`

	// Attempts is the number of attempts consumed, including the final one.
	Attempts int `json:"attempts"`

	// PromptHash is a stable hash of the prompt, for deduplication and
	// observability.
	PromptHash string `json:"prompt_hash"`
}

// Sleeper waits for the given duration or until the context is done. It is a
// pool dependency so tests can capture backoff waits without sleeping.
type Sleeper func(ctx context.Context, d time.Duration) error

func defaultSleeper(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Pool is the invocation client pool. It is safe for concurrent use: the
// rotation index is the only shared mutable state and is advanced atomically.
type Pool struct {
	clients     []CompletionClient
	next        atomic.Uint64
	classify    Classifier
	maxAttempts int
	sleep       Sleeper
	jitter      func() float64
	logger      *slog.Logger
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithClassifier sets the error classifier.
func WithClassifier(c Classifier) PoolOption {
	return func(p *Pool) { p.classify = c }
}

// WithMaxAttempts sets the retry budget per call.
func WithMaxAttempts(n int) PoolOption {
	return func(p *Pool) { p.maxAttempts = n }
}

// WithSleeper sets the backoff sleeper.
func WithSleeper(s Sleeper) PoolOption {
	return func(p *Pool) { p.sleep = s }
}

// WithJitter sets the jitter source. The source must return values in [0, 1).
func WithJitter(j func() float64) PoolOption {
	return func(p *Pool) { p.jitter = j }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) PoolOption {
	return func(p *Pool) { p.logger = l }
}

// NewPool builds a pool from credentials, constructing one cached client per
// credential via factory.
func NewPool(credentials []string, factory ClientFactory, opts ...PoolOption) (*Pool, error) {
	if len(credentials) == 0 {
		return nil, &NoCredentialsError{}
	}

	p := &Pool{
		clients:     make([]CompletionClient, 0, len(credentials)),
		classify:    DefaultClassifier,
		maxAttempts: DefaultMaxAttempts,
		sleep:       defaultSleeper,
		jitter:      rand.Float64,
		logger:      slog.Default(),
	}
	for _, cred := range credentials {
		p.clients = append(p.clients, factory(cred))
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// NoCredentialsError is returned by NewPool when no credentials are
// configured.
type NoCredentialsError struct{}

func (e *NoCredentialsError) Error() string {
	return "llmpool: no credentials configured"
}

// Complete invokes the completion service with retry, backoff and credential
// rotation. On success it returns the text and per-call metrics. It fails
// with a *RateLimitedError when the retry budget is exhausted, or with the
// backend's fatal error immediately when the failure is non-retryable.
// Metrics are returned in both cases so callers can record attempt counts.
func (p *Pool) Complete(ctx context.Context, prompt string) (string, CallMetrics, error) {
	start := time.Now()
	metrics := CallMetrics{PromptHash: PromptHash(prompt)}

	var lastErr error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		metrics.Attempts = attempt

		completion, err := p.nextClient().Complete(ctx, prompt)
		if err == nil {
			p.fillUsage(&metrics, prompt, completion)
			metrics.ElapsedMs = time.Since(start).Milliseconds()
			return completion.Text, metrics, nil
		}
		lastErr = err

		if !p.classify(err) {
			// Non-retryable: propagate without consuming further attempts.
			metrics.ElapsedMs = time.Since(start).Milliseconds()
			return "", metrics, err
		}

		if attempt < p.maxAttempts {
			wait := p.backoff(attempt)
			p.logger.Warn("completion rate limited, backing off",
				"attempt", attempt,
				"max_attempts", p.maxAttempts,
				"wait", wait)
			if err := p.sleep(ctx, wait); err != nil {
				metrics.ElapsedMs = time.Since(start).Milliseconds()
				return "", metrics, err
			}
		}
	}

	p.logger.Warn("completion retry budget exhausted",
		"attempts", p.maxAttempts,
		"error", lastErr)
	metrics.ElapsedMs = time.Since(start).Milliseconds()
	return "", metrics, &RateLimitedError{Attempts: p.maxAttempts}
}

// nextClient returns the next cached client round-robin. Rotation advances on
// every call attempt, not just on retry, to spread load across credentials.
func (p *Pool) nextClient() CompletionClient {
	idx := p.next.Add(1) - 1
	return p.clients[idx%uint64(len(p.clients))]
}

// backoff computes the wait after a failed attempt:
// 2^attempt + uniform(0,1) seconds.
func (p *Pool) backoff(attempt int) time.Duration {
	secs := math.Pow(2, float64(attempt)) + p.jitter()
	return time.Duration(secs * float64(time.Second))
}

// fillUsage records token counts, preferring the backend's own accounting and
// falling back to a len/4 approximation.
func (p *Pool) fillUsage(m *CallMetrics, prompt string, c *Completion) {
	m.OutputLen = len(c.Text)
	if c.Usage != nil {
		m.TokensIn = c.Usage.PromptTokens
		m.TokensOut = c.Usage.CompletionTokens
		return
	}
	m.TokensIn = approxTokens(prompt)
	m.TokensOut = approxTokens(c.Text)
}

// approxTokens estimates a token count as len/4, the usual rough byte ratio
// for English text.
func approxTokens(s string) int {
	return len(s) / 4
}

// PromptHash returns a stable short hash of a prompt.
func PromptHash(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:8])
}
