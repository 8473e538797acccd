package llmpool

import "errors"

// TransientError wraps a backend failure that may succeed on retry, such as
// rate limiting or a gateway timeout.
type TransientError struct {
	err error
}

func (e *TransientError) Error() string { return e.err.Error() }
func (e *TransientError) Unwrap() error { return e.err }

// NewTransientError marks an error as retryable.
func NewTransientError(err error) error {
	return &TransientError{err: err}
}

// FatalError wraps a backend failure that will not succeed on retry, such as
// an auth failure or a malformed request.
type FatalError struct {
	err error
}

func (e *FatalError) Error() string { return e.err.Error() }
func (e *FatalError) Unwrap() error { return e.err }

// NewFatalError marks an error as non-retryable.
func NewFatalError(err error) error {
	return &FatalError{err: err}
}

// RateLimitedError is returned by the pool once the retry budget is
// exhausted. Its message is sanitized: it carries the attempt count and the
// last classification, never credential material.
type RateLimitedError struct {
	// Attempts is the number of attempts consumed before giving up.
	Attempts int
}

func (e *RateLimitedError) Error() string {
	return "llmpool: rate limited: retry budget exhausted"
}

// Classifier decides whether a backend error is retryable. It is a pool
// dependency so tests can substitute their own classification.
type Classifier func(err error) bool

// DefaultClassifier treats errors wrapped as TransientError as retryable and
// everything else as fatal.
func DefaultClassifier(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

// IsRateLimited reports whether err is the pool's budget-exhausted error.
func IsRateLimited(err error) bool {
	var rl *RateLimitedError
	return errors.As(err, &rl)
}

// IsFatal reports whether err was classified as non-retryable.
func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}
