package orchestrator

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"feedscribe/internal/catalog"
	"feedscribe/internal/fileutil"
	"feedscribe/internal/logging"
	"feedscribe/internal/services"
	"feedscribe/internal/services/parseapi"
)

// HarvestRequest names the creator to list.
type HarvestRequest struct {
	// Target is a profile URL, share text containing one, or a raw user id.
	Target string
	// Label names the manifest and media directory; defaults to the user id.
	Label string
	// Persist writes the manifest to the manifest directory.
	Persist bool
	// Limit caps the number of briefs kept; zero keeps all.
	Limit int
}

// HarvestResult summarizes a catalog harvest.
type HarvestResult struct {
	UserID     string               `json:"user_id"`
	Label      string               `json:"label"`
	Manifest   string               `json:"manifest,omitempty"`
	Pages      int                  `json:"pages"`
	Duplicates int                  `json:"duplicates"`
	Briefs     []catalog.VideoBrief `json:"briefs"`
}

// Harvest resolves the creator and collects every brief in their feed. With
// Persist set, the manifest is rewritten from scratch and each brief is
// appended as soon as its page arrives.
func (o *Orchestrator) Harvest(ctx context.Context, req HarvestRequest) (HarvestResult, error) {
	ctx = services.WithStage(withRun(ctx), "harvest")
	logger := logging.WithContext(ctx, o.logger)

	userID, err := o.resolveUser(ctx, req.Target)
	if err != nil {
		return HarvestResult{}, err
	}
	result := HarvestResult{UserID: userID, Label: labelOr(req.Label, userID)}

	var sink catalog.Sink
	if req.Persist {
		path := catalog.ManifestPath(o.cfg.Paths.ManifestDir, result.Label)
		if err := fileutil.RemoveIfExists(path); err != nil {
			return result, services.Wrap(services.ErrConfiguration, "harvest", "reset manifest", "Could not replace existing manifest", err)
		}
		writer, err := catalog.OpenManifest(path)
		if err != nil {
			return result, err
		}
		defer writer.Close()
		result.Manifest = path
		sink = &limitSink{sink: writer, limit: req.Limit}
	}

	harvester := catalog.NewHarvester(o.source,
		catalog.WithPageSize(o.cfg.Harvest.PageSize),
		catalog.WithPagePause(time.Duration(o.cfg.Harvest.PageDelayMaxMS)*time.Millisecond),
		catalog.WithLimiter(o.limiter),
		catalog.WithLocation(o.cfg.Location()),
		catalog.WithSleeper(o.sleep()),
		catalog.WithLogger(o.logger),
	)

	logger.Info("harvest starting", logging.String("user_id", userID), logging.String("label", result.Label))
	res, err := harvester.Harvest(ctx, userID, sink)
	result.Pages = res.Pages
	result.Duplicates = res.Duplicates
	result.Briefs = res.Briefs
	if req.Limit > 0 && len(result.Briefs) > req.Limit {
		result.Briefs = result.Briefs[:req.Limit]
	}
	if err != nil {
		return result, err
	}
	return result, nil
}

// limitSink stops persisting after limit records. Harvesting continues so the
// page and duplicate counters stay accurate.
type limitSink struct {
	sink    catalog.Sink
	limit   int
	written int
}

func (s *limitSink) Append(brief catalog.VideoBrief) error {
	if s.limit > 0 && s.written >= s.limit {
		return nil
	}
	s.written++
	return s.sink.Append(brief)
}

func (o *Orchestrator) resolveUser(ctx context.Context, target string) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", services.Wrap(services.ErrValidation, "harvest", "resolve user", "A profile URL or user id is required", nil)
	}
	if link := parseapi.ExtractURL(target); link != "" {
		id, err := o.resolver.ResolveUserID(ctx, link)
		if err != nil {
			return "", fmt.Errorf("resolve user %s: %w", link, err)
		}
		return id, nil
	}
	return target, nil
}

// ensureDir creates dir, mapping failures to a configuration error.
func ensureDir(stage, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, stage, "create directory", "Could not create "+dir, err)
	}
	return nil
}

func labelOr(label, fallback string) string {
	if label = strings.TrimSpace(label); label != "" {
		return label
	}
	return fallback
}
