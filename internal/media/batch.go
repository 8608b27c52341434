package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"feedscribe/internal/logging"
	"feedscribe/internal/services"
)

// Outcome statuses for analysis runs.
const (
	StatusSuccess  = "success"
	StatusSkipped  = "skipped"
	StatusDegraded = "degraded"
	StatusFail     = "fail"
)

// Outcome records what happened to one source video.
type Outcome struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	File   string `json:"file,omitempty"`
	Reason string `json:"reason,omitempty"`
	Kind   string `json:"kind,omitempty"`
}

var sourceExtensions = map[string]struct{}{".mp4": {}, ".mov": {}}

// IsSource reports whether path has a recognized video extension.
func IsSource(path string) bool {
	_, ok := sourceExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// ListSources returns the videos directly inside dir in name order.
func ListSources(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "analyze", "list sources", "Input directory not found: "+dir, err)
		}
		return nil, err
	}
	var sources []string
	for _, entry := range entries {
		if entry.Type().IsRegular() && IsSource(entry.Name()) {
			sources = append(sources, filepath.Join(dir, entry.Name()))
		}
	}
	return sources, nil
}

// RunBatch analyzes every video in dir that has no report yet. Failures are
// recorded per item and processing continues; cancellation stops the run and
// returns the outcomes so far with an error wrapping services.ErrCanceled.
func (p *Pipeline) RunBatch(ctx context.Context, dir string) ([]Outcome, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	sources, err := ListSources(dir)
	if err != nil {
		return nil, err
	}

	total := len(sources)
	outcomes := make([]Outcome, 0, total)
	p.logger.Info("batch analysis starting", logging.String("dir", dir), logging.Int("videos", total))

	for idx, source := range sources {
		base := BaseName(source)
		logger := p.logger.With(
			logging.String(logging.FieldItemID, base),
			logging.String(logging.FieldProgress, strconv.Itoa(idx+1)+"/"+strconv.Itoa(total)),
		)
		reportPath := ReportPath(p.cfg.OutputDir, source)
		if reportExists(reportPath) {
			logger.Info("report exists, skipping", logging.String("file", reportPath))
			outcomes = append(outcomes, Outcome{ID: base, Status: StatusSkipped, File: reportPath})
			continue
		}

		logger.Info("analyzing video")
		report, err := p.AnalyzeFile(ctx, source)
		switch {
		case err != nil:
			kind := services.FailureKind(err)
			outcomes = append(outcomes, Outcome{ID: base, Status: StatusFail, Reason: err.Error(), Kind: kind})
			logger.Error("analysis failed", logging.Error(err))
			if ctxErr := ctx.Err(); ctxErr != nil || kind == "canceled" {
				marker := services.ErrCanceled
				if errors.Is(ctxErr, context.DeadlineExceeded) {
					marker = services.ErrTimeout
				}
				return outcomes, services.Wrap(marker, "analyze", "batch", "Analysis stopped", ctxErr)
			}
		case report.AnalysisErr != nil:
			outcomes = append(outcomes, Outcome{ID: base, Status: StatusDegraded, File: report.OutputPath, Reason: report.AnalysisErr.Error()})
		default:
			outcomes = append(outcomes, Outcome{ID: base, Status: StatusSuccess, File: report.OutputPath})
		}
	}
	return outcomes, nil
}
