package provider

import (
	"context"
	"fmt"
)

// DefaultAttempts is the retry budget for one Summarize call.
const DefaultAttempts = 10

// Result carries either a summary or the reason there is none. Text is always
// non-empty after Summarize returns: on failure it holds SentinelText.
type Result struct {
	Text     string
	Err      error
	Attempts int
}

// OK reports whether the result holds a real summary.
func (r Result) OK() bool { return r.Err == nil }

// Provider produces summaries.
type Provider interface {
	Name() string
	Summarize(ctx context.Context, text string) Result
}

// ExhaustedError reports that every attempt against a provider failed.
type ExhaustedError struct {
	Provider string
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s failed after %d attempts: %v", e.Provider, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// SentinelText is the placeholder stored in a failed Result.
func SentinelText(provider string, attempts int) string {
	return fmt.Sprintf("[%s failed after %d attempts]", provider, attempts)
}

// backend performs one summarization attempt.
type backend interface {
	kind() string
	prompt(text string) string
	complete(ctx context.Context, prompt string) (string, error)
}
