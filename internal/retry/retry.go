// Package retry runs operations under a bounded attempt budget with
// cancellable, optionally randomized waits between attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

// Policy bounds an operation to Attempts tries. Between failures it waits a
// uniformly random duration in [MinDelay, MaxDelay]; equal bounds give a fixed
// wait. No wait follows the final attempt.
type Policy struct {
	Attempts int
	MinDelay time.Duration
	MaxDelay time.Duration
}

// Fixed returns a policy with a constant wait between attempts.
func Fixed(attempts int, delay time.Duration) Policy {
	return Policy{Attempts: attempts, MinDelay: delay, MaxDelay: delay}
}

// Window returns a policy with a randomized wait between attempts.
func Window(attempts int, minDelay, maxDelay time.Duration) Policy {
	return Policy{Attempts: attempts, MinDelay: minDelay, MaxDelay: maxDelay}
}

func (p Policy) attempts() int {
	if p.Attempts <= 0 {
		return 1
	}
	return p.Attempts
}

// Delay draws the wait before the next attempt using rnd, which must return a
// value in [0, 1).
func (p Policy) Delay(rnd func() float64) time.Duration {
	return Between(p.MinDelay, p.MaxDelay, rnd)
}

// Between returns a duration uniformly drawn from [lo, hi].
func Between(lo, hi time.Duration, rnd func() float64) time.Duration {
	if lo < 0 {
		lo = 0
	}
	if hi <= lo {
		return lo
	}
	if rnd == nil {
		rnd = rand.Float64
	}
	return lo + time.Duration(rnd()*float64(hi-lo))
}

// Sleeper waits for d or until ctx ends.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep blocks for d, returning early with ctx.Err() when the context ends.
func Sleep(ctx context.Context, d time.Duration) error {
	if ctx == nil {
		return errors.New("retry sleep: nil context")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ExhaustedError reports that every attempt failed.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying; Do returns it unwrapped at once.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// FailureFunc observes each failed attempt together with the wait that follows
// it (zero after the last attempt).
type FailureFunc func(attempt int, err error, wait time.Duration)

type options struct {
	sleeper   Sleeper
	rnd       func() float64
	onFailure FailureFunc
}

// Option customizes Do.
type Option func(*options)

// WithSleeper overrides how waits are performed (useful for tests).
func WithSleeper(s Sleeper) Option {
	return func(o *options) {
		if s != nil {
			o.sleeper = s
		}
	}
}

// WithRand overrides the random source used for randomized waits.
func WithRand(rnd func() float64) Option {
	return func(o *options) {
		if rnd != nil {
			o.rnd = rnd
		}
	}
}

// OnFailure registers a callback invoked after every failed attempt.
func OnFailure(fn FailureFunc) Option {
	return func(o *options) { o.onFailure = fn }
}

// Do calls fn until it succeeds, returns a Permanent error, the context ends,
// or the policy's attempts are spent. Exhaustion yields *ExhaustedError
// wrapping the last failure.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) error, opts ...Option) error {
	o := options{sleeper: Sleep, rnd: rand.Float64}
	for _, opt := range opts {
		opt(&o)
	}

	attempts := p.attempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		lastErr = err

		var wait time.Duration
		if attempt < attempts {
			wait = p.Delay(o.rnd)
		}
		if o.onFailure != nil {
			o.onFailure(attempt, err, wait)
		}
		if attempt < attempts {
			if err := o.sleeper(ctx, wait); err != nil {
				return err
			}
		}
	}
	return &ExhaustedError{Attempts: attempts, Err: lastErr}
}
