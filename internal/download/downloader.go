package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"path/filepath"
	"strconv"
	"time"

	"feedscribe/internal/catalog"
	"feedscribe/internal/fileutil"
	"feedscribe/internal/logging"
	"feedscribe/internal/retry"
	"feedscribe/internal/services"
)

// ProgressFunc returns a writer that observes the bytes of one transfer, or
// nil for none. The returned writer is closed when it implements io.Closer.
type ProgressFunc func(brief catalog.VideoBrief, size int64) io.Writer

// Downloader processes briefs strictly in order.
type Downloader struct {
	fetcher   Fetcher
	jitterMin time.Duration
	jitterMax time.Duration
	policy    retry.Policy
	sleep     retry.Sleeper
	rnd       func() float64
	progress  ProgressFunc
	logger    *slog.Logger
}

// Option customizes a Downloader.
type Option func(*Downloader)

// WithJitter sets the courtesy pause window before each fetch.
func WithJitter(minDelay, maxDelay time.Duration) Option {
	return func(d *Downloader) {
		d.jitterMin = minDelay
		d.jitterMax = maxDelay
	}
}

// WithRetryPolicy overrides the fetch retry policy.
func WithRetryPolicy(p retry.Policy) Option {
	return func(d *Downloader) { d.policy = p }
}

// WithSleeper overrides how jitter and backoff waits are performed.
func WithSleeper(s retry.Sleeper) Option {
	return func(d *Downloader) {
		if s != nil {
			d.sleep = s
		}
	}
}

// WithProgress attaches a per-transfer progress observer.
func WithProgress(fn ProgressFunc) Option {
	return func(d *Downloader) { d.progress = fn }
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Downloader) { d.logger = logger }
}

// New constructs a Downloader with the default pacing: 1-3 s jitter, three
// attempts, and 10-30 s waits between failed attempts.
func New(fetcher Fetcher, opts ...Option) *Downloader {
	d := &Downloader{
		fetcher:   fetcher,
		jitterMin: time.Second,
		jitterMax: 3 * time.Second,
		policy:    retry.Window(3, 10*time.Second, 30*time.Second),
		sleep:     retry.Sleep,
		rnd:       rand.Float64,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = logging.NewComponentLogger(d.logger, "downloader")
	return d
}

// Run downloads every brief into destDir and returns one outcome per brief
// processed. Per-item failures are recorded and processing continues. When
// ctx ends the current item is recorded as canceled and Run returns the
// outcomes so far with an error wrapping services.ErrCanceled.
func (d *Downloader) Run(ctx context.Context, briefs []catalog.VideoBrief, destDir string) ([]Outcome, error) {
	ctx = services.WithStage(ctx, "download")
	outcomes := make([]Outcome, 0, len(briefs))
	total := len(briefs)

	for idx, brief := range briefs {
		itemCtx := services.WithItemID(ctx, brief.ID)
		logger := logging.WithContext(itemCtx, d.logger).With(
			logging.String(logging.FieldProgress, strconv.Itoa(idx+1)+"/"+strconv.Itoa(total)),
		)

		outcome := d.process(itemCtx, logger, brief.ID, filepath.Join(destDir, brief.FileName()), true, d.fetchBrief(brief))
		outcomes = append(outcomes, outcome)
		if outcome.Kind == "canceled" {
			return outcomes, services.Wrap(services.ErrCanceled, "download", "run", "Download canceled", ctx.Err())
		}
	}

	s := Summarize(outcomes)
	d.logger.Info("download run complete",
		logging.Int("success", s.Success),
		logging.Int("exists", s.Exists),
		logging.Int("fail", s.Fail),
	)
	return outcomes, nil
}

// DownloadOne fetches a single brief without the courtesy jitter.
func (d *Downloader) DownloadOne(ctx context.Context, brief catalog.VideoBrief, destDir string) Outcome {
	return d.DownloadAs(ctx, brief, filepath.Join(destDir, brief.FileName()))
}

// DownloadAs fetches a single brief to an explicit target path without the
// courtesy jitter.
func (d *Downloader) DownloadAs(ctx context.Context, brief catalog.VideoBrief, target string) Outcome {
	ctx = services.WithItemID(services.WithStage(ctx, "download"), brief.ID)
	return d.process(ctx, logging.WithContext(ctx, d.logger), brief.ID, target, false, d.fetchBrief(brief))
}

// fetchFunc writes one item to target and reports the bytes written.
type fetchFunc func(ctx context.Context, target string) (int64, error)

func (d *Downloader) fetchBrief(brief catalog.VideoBrief) fetchFunc {
	return func(ctx context.Context, target string) (int64, error) {
		return d.fetchOnce(ctx, brief, target)
	}
}

func (d *Downloader) process(ctx context.Context, logger *slog.Logger, id, target string, pace bool, fetch fetchFunc) Outcome {
	if fileutil.Exists(target) {
		logger.Info("already downloaded", logging.String("file", target))
		return Outcome{ID: id, Status: StatusExists, File: target}
	}

	if pace {
		wait := retry.Between(d.jitterMin, d.jitterMax, d.rnd)
		logger.Debug("pausing before request", logging.Duration("wait", wait))
		if err := d.sleep(ctx, wait); err != nil {
			return failure(id, err)
		}
	}

	var written int64
	err := retry.Do(ctx, d.policy, func(ctx context.Context, attempt int) error {
		n, err := fetch(ctx, target)
		written = n
		return err
	},
		retry.WithSleeper(d.sleep),
		retry.WithRand(d.rnd),
		retry.OnFailure(func(attempt int, err error, wait time.Duration) {
			logger.Warn("download attempt failed",
				logging.Int(logging.FieldAttempt, attempt),
				logging.Duration("next_wait", wait),
				logging.Error(err),
			)
		}),
	)
	if err != nil {
		outcome := failure(id, err)
		logger.Error("download failed", logging.String("reason", outcome.Reason), logging.String("kind", outcome.Kind))
		return outcome
	}

	logger.Info("download complete", logging.String("file", target), logging.Bytes("size", written))
	return Outcome{ID: id, Status: StatusSuccess, File: target, Bytes: written}
}

func (d *Downloader) fetchOnce(ctx context.Context, brief catalog.VideoBrief, target string) (int64, error) {
	body, size, err := d.fetcher.Open(ctx, brief)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	var src io.Reader = body
	if size > 0 {
		src = &lengthReader{r: body, remaining: size}
	}
	if d.progress != nil {
		if w := d.progress(brief, size); w != nil {
			if c, ok := w.(io.Closer); ok {
				defer c.Close()
			}
			src = io.TeeReader(src, w)
		}
	}

	written, err := fileutil.StreamToFile(target, src, 0o644)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return written, ctxErr
		}
		return written, fmt.Errorf("stream to %s: %w", filepath.Base(target), err)
	}
	return written, nil
}

func failure(id string, err error) Outcome {
	var exhausted *retry.ExhaustedError
	reason := err
	if errors.As(err, &exhausted) {
		reason = exhausted.Err
	}
	kind := services.FailureKind(err)
	if kind == "canceled" {
		reason = services.ErrCanceled
	}
	return Outcome{ID: id, Status: StatusFail, Reason: reason.Error(), Kind: kind}
}
