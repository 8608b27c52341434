// Package worker confines blocking jobs (subprocesses, model runs) to one
// dedicated goroutine so that at most one runs at a time.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"feedscribe/internal/logging"
)

// ErrClosed is returned when submitting to a stopped worker.
var ErrClosed = errors.New("worker closed")

type job struct {
	ctx    context.Context
	name   string
	fn     func(context.Context) error
	result chan error
}

// Worker owns a single goroutine that executes submitted jobs in order.
type Worker struct {
	jobs   chan job
	quit   chan struct{}
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger
}

// New starts a worker goroutine. Call Close to stop it.
func New(logger *slog.Logger) *Worker {
	w := &Worker{
		jobs:   make(chan job),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
		logger: logging.NewComponentLogger(logger, "worker"),
	}
	go w.loop()
	return w
}

func (w *Worker) loop() {
	defer close(w.done)
	for {
		select {
		case <-w.quit:
			return
		case j := <-w.jobs:
			w.run(j)
		}
	}
}

func (w *Worker) run(j job) {
	if err := j.ctx.Err(); err != nil {
		j.result <- err
		return
	}
	start := time.Now()
	err := j.fn(j.ctx)
	w.logger.Debug("job finished",
		logging.String("job", j.name),
		logging.Duration("elapsed", time.Since(start)),
		logging.Bool("ok", err == nil),
	)
	j.result <- err
}

// Do runs fn on the worker goroutine and waits for it. Once fn has started,
// Do waits for it to return even if ctx ends, so callers can clean up after
// whatever the job wrote. fn receives ctx and is expected to stop promptly.
func (w *Worker) Do(ctx context.Context, name string, fn func(context.Context) error) error {
	if w == nil {
		return fn(ctx)
	}
	j := job{ctx: ctx, name: name, fn: fn, result: make(chan error, 1)}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-w.quit:
		return ErrClosed
	case w.jobs <- j:
	}
	if err := <-j.result; err != nil {
		return err
	}
	return ctx.Err()
}

// Call is Do for jobs that produce a value.
func Call[T any](ctx context.Context, w *Worker, name string, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := w.Do(ctx, name, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Close stops the worker after the running job (if any) returns.
func (w *Worker) Close() {
	if w == nil {
		return
	}
	w.once.Do(func() { close(w.quit) })
	<-w.done
}
