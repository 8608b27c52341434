package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"feedscribe/internal/logging"
	"feedscribe/internal/retry"
	"feedscribe/internal/services"
)

// DefaultPageSize is the number of items requested per page.
const DefaultPageSize = 100

// Page is one response from a Source.
type Page struct {
	Items      []RawItem
	HasMore    bool
	NextCursor int64
}

// Source lists a creator's videos one page at a time.
type Source interface {
	FetchPage(ctx context.Context, userID string, cursor int64, pageSize int) (Page, error)
}

// Sink receives each newly discovered brief in feed order.
type Sink interface {
	Append(VideoBrief) error
}

// Result summarizes a harvest run.
type Result struct {
	Briefs     []VideoBrief
	Pages      int
	Duplicates int
}

// Harvester walks a Source from cursor 0 until it reports no more pages.
type Harvester struct {
	source   Source
	pageSize int
	maxPause time.Duration
	limiter  *rate.Limiter
	location *time.Location
	sleep    retry.Sleeper
	rnd      func() float64
	logger   *slog.Logger
}

// Option customizes a Harvester.
type Option func(*Harvester)

// WithPageSize overrides the page size (default 100).
func WithPageSize(n int) Option {
	return func(h *Harvester) {
		if n > 0 {
			h.pageSize = n
		}
	}
}

// WithPagePause sets the upper bound of the random pause before each page.
func WithPagePause(maxPause time.Duration) Option {
	return func(h *Harvester) {
		if maxPause >= 0 {
			h.maxPause = maxPause
		}
	}
}

// WithLimiter caps the page request rate in addition to the random pause.
func WithLimiter(l *rate.Limiter) Option {
	return func(h *Harvester) { h.limiter = l }
}

// WithLocation sets the zone used to format creation timestamps.
func WithLocation(loc *time.Location) Option {
	return func(h *Harvester) {
		if loc != nil {
			h.location = loc
		}
	}
}

// WithSleeper overrides how pauses are performed (useful for tests).
func WithSleeper(s retry.Sleeper) Option {
	return func(h *Harvester) {
		if s != nil {
			h.sleep = s
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harvester) { h.logger = logger }
}

// NewHarvester constructs a Harvester over source.
func NewHarvester(source Source, opts ...Option) *Harvester {
	h := &Harvester{
		source:   source,
		pageSize: DefaultPageSize,
		maxPause: time.Second,
		limiter:  rate.NewLimiter(rate.Inf, 1),
		location: time.Local,
		sleep:    retry.Sleep,
		rnd:      rand.Float64,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = logging.NewComponentLogger(h.logger, "harvester")
	return h
}

// Harvest collects every brief for userID. Each new brief is passed to sink
// (when non-nil) before the next page is requested. Duplicate ids are dropped,
// keeping the first occurrence. On error the briefs gathered so far are
// returned alongside it.
func (h *Harvester) Harvest(ctx context.Context, userID string, sink Sink) (Result, error) {
	ctx = services.WithStage(ctx, "harvest")
	logger := logging.WithContext(ctx, h.logger).With(logging.String("user_id", userID))

	var result Result
	seen := make(map[string]struct{})
	cursor := int64(0)

	for {
		if err := h.pace(ctx); err != nil {
			return result, services.Wrap(services.ErrCanceled, "harvest", "pace", "Harvest canceled", err)
		}

		page, err := h.source.FetchPage(ctx, userID, cursor, h.pageSize)
		if err != nil {
			return result, fmt.Errorf("fetch page at cursor %d: %w", cursor, err)
		}
		result.Pages++

		if len(page.Items) == 0 {
			logger.Debug("empty page, stopping", logging.Int("page", result.Pages))
			break
		}

		added := 0
		for _, item := range page.Items {
			brief := Normalize(item, h.location)
			if brief.ID == "" {
				continue
			}
			if _, dup := seen[brief.ID]; dup {
				result.Duplicates++
				continue
			}
			seen[brief.ID] = struct{}{}
			if sink != nil {
				if err := sink.Append(brief); err != nil {
					return result, fmt.Errorf("persist brief %s: %w", brief.ID, err)
				}
			}
			result.Briefs = append(result.Briefs, brief)
			added++
		}

		logger.Info("page harvested",
			logging.Int("page", result.Pages),
			logging.Int("items", len(page.Items)),
			logging.Int("added", added),
			logging.String("cursor", strconv.FormatInt(cursor, 10)),
		)

		if !page.HasMore {
			break
		}
		cursor = page.NextCursor
	}

	logger.Info("harvest complete",
		logging.Int("videos", len(result.Briefs)),
		logging.Int("pages", result.Pages),
		logging.Int("duplicates", result.Duplicates),
	)
	return result, nil
}

func (h *Harvester) pace(ctx context.Context) error {
	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	return h.sleep(ctx, retry.Between(0, h.maxPause, h.rnd))
}
