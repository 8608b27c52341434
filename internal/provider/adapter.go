package provider

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"feedscribe/internal/logging"
	"feedscribe/internal/retry"
	"feedscribe/internal/services"
)

// Adapter applies the retry envelope to one backend.
type Adapter struct {
	name       string
	backend    backend
	policy     retry.Policy
	perAttempt time.Duration
	sleep      retry.Sleeper
	logger     *slog.Logger
}

// Name returns the configured provider name.
func (a *Adapter) Name() string { return a.name }

// Kind returns the backend family (ollama, gemini, openai).
func (a *Adapter) Kind() string { return a.backend.kind() }

// Summarize runs the backend until it yields non-empty text or the attempt
// budget is spent. It never panics or returns a bare error: on exhaustion the
// Result carries *ExhaustedError and the sentinel placeholder text. Empty
// input is rejected without calling the backend.
func (a *Adapter) Summarize(ctx context.Context, text string) Result {
	ctx = services.WithStage(ctx, "analyze")
	logger := logging.WithContext(ctx, a.logger)

	if strings.TrimSpace(text) == "" {
		err := services.Wrap(services.ErrValidation, "analyze", a.name, "Transcript is empty", nil)
		return Result{Text: SentinelText(a.name, 0), Err: err}
	}

	prompt := a.backend.prompt(text)
	var (
		out      string
		attempts int
	)
	err := retry.Do(ctx, a.policy, func(ctx context.Context, attempt int) error {
		attempts = attempt
		attemptCtx := ctx
		if a.perAttempt > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, a.perAttempt)
			defer cancel()
		}
		start := time.Now()
		res, err := a.backend.complete(attemptCtx, prompt)
		if err != nil {
			return err
		}
		logger.Debug("provider call succeeded",
			logging.Int(logging.FieldAttempt, attempt),
			logging.Duration("elapsed", time.Since(start)),
		)
		out = res
		return nil
	},
		retry.WithSleeper(a.sleep),
		retry.OnFailure(func(attempt int, err error, wait time.Duration) {
			logger.Warn("provider call failed",
				logging.Int(logging.FieldAttempt, attempt),
				logging.Int("max_attempts", a.policy.Attempts),
				logging.Duration("next_wait", wait),
				logging.Error(err),
			)
		}),
	)
	if err == nil {
		return Result{Text: out, Attempts: attempts}
	}

	var exhausted *retry.ExhaustedError
	if errors.As(err, &exhausted) {
		perr := &ExhaustedError{Provider: a.name, Attempts: exhausted.Attempts, Err: exhausted.Err}
		logger.Error("provider exhausted retries", logging.Int("attempts", exhausted.Attempts), logging.Error(exhausted.Err))
		return Result{Text: SentinelText(a.name, exhausted.Attempts), Err: perr, Attempts: exhausted.Attempts}
	}
	return Result{
		Text:     SentinelText(a.name, attempts),
		Err:      services.Wrap(services.ErrCanceled, "analyze", a.name, "Analysis canceled", err),
		Attempts: attempts,
	}
}
