package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"feedscribe/internal/catalog"
	"feedscribe/internal/download"
	"feedscribe/internal/logging"
	"feedscribe/internal/preflight"
	"feedscribe/internal/retry"
	"feedscribe/internal/services"
	"feedscribe/internal/textutil"
)

// DownloadRequest selects the briefs to fetch. Briefs wins over Manifest,
// which wins over the manifest derived from Label.
type DownloadRequest struct {
	Label    string
	Manifest string
	Briefs   []catalog.VideoBrief
	Limit    int
}

// DownloadResult lists per-item outcomes in manifest order.
type DownloadResult struct {
	Label    string             `json:"label"`
	Dir      string             `json:"dir"`
	Outcomes []download.Outcome `json:"outcomes"`
}

// Download fetches every brief of a manifest into
// {download_root}/{label}/ under the download root lock.
func (o *Orchestrator) Download(ctx context.Context, req DownloadRequest) (DownloadResult, error) {
	release, err := o.lockDownloadRoot()
	if err != nil {
		return DownloadResult{}, err
	}
	defer release()
	return o.download(withRun(ctx), req)
}

func (o *Orchestrator) download(ctx context.Context, req DownloadRequest) (DownloadResult, error) {
	ctx = services.WithStage(ctx, "download")
	label, briefs, err := o.loadBriefs(req)
	if err != nil {
		return DownloadResult{}, err
	}
	result := DownloadResult{Label: label, Dir: o.mediaDir(label)}
	if err := ensureDir("download", result.Dir); err != nil {
		return result, err
	}
	if err := preflight.RequireFreeSpace(result.Dir, o.cfg.Download.MinFreeGiB); err != nil {
		return result, err
	}

	logging.WithContext(ctx, o.logger).Info("download starting",
		logging.String("label", label),
		logging.Int("videos", len(briefs)),
		logging.String("dir", result.Dir),
	)
	outcomes, err := o.downloader(o.fetcher(nil)).Run(ctx, briefs, result.Dir)
	result.Outcomes = outcomes
	return result, err
}

// FetchOne downloads a single post named by share text or URL into the
// download root as {platform}_{id}_{desc}.mp4, or {platform}_{id}_watermark.mp4
// when the watermarked variant is configured. Image posts are archived as
// {platform}_{id}_images[_watermark].zip. The returned outcome's Status
// reports item failure; the error is reserved for resolution and lock
// failures.
func (o *Orchestrator) FetchOne(ctx context.Context, shareText string) (download.Outcome, error) {
	ctx = services.WithStage(withRun(ctx), "fetch")
	if strings.TrimSpace(shareText) == "" {
		return download.Outcome{}, services.Wrap(services.ErrValidation, "fetch", "parse input", "Share text or URL is required", nil)
	}

	canonical, err := o.resolver.CanonicalVideoURL(ctx, shareText)
	if err != nil {
		return download.Outcome{}, fmt.Errorf("resolve video url: %w", err)
	}
	resolved, err := o.mediaLookup.ResolveMedia(ctx, canonical)
	if err != nil {
		return download.Outcome{}, fmt.Errorf("resolve media: %w", err)
	}
	if resolved.ID == "" {
		if resolved.ID, err = o.resolver.VideoID(ctx, canonical); err != nil {
			return download.Outcome{}, fmt.Errorf("resolve video id: %w", err)
		}
	}
	brief := catalog.VideoBrief{
		ID:          resolved.ID,
		Description: resolved.Description,
		CreatedAt:   catalog.UnknownTimestamp,
	}

	release, err := o.lockDownloadRoot()
	if err != nil {
		return download.Outcome{}, err
	}
	defer release()

	root := o.cfg.Paths.DownloadDir
	if err := preflight.RequireFreeSpace(root, o.cfg.Download.MinFreeGiB); err != nil {
		return download.Outcome{}, err
	}
	withWatermark := o.cfg.Download.WithWatermark
	downloader := o.downloader(o.fetcher(&resolved))
	if resolved.IsImagePost() {
		target := filepath.Join(root, resolved.ArchiveName(withWatermark))
		return downloader.DownloadImages(ctx, resolved, o.streamer, withWatermark, target), nil
	}
	return downloader.DownloadAs(ctx, brief, filepath.Join(root, resolved.FileName(withWatermark))), nil
}

func (o *Orchestrator) loadBriefs(req DownloadRequest) (string, []catalog.VideoBrief, error) {
	label := strings.TrimSpace(req.Label)
	briefs := req.Briefs
	if briefs == nil {
		path := strings.TrimSpace(req.Manifest)
		if path == "" {
			if label == "" {
				return "", nil, services.Wrap(services.ErrValidation, "download", "select manifest", "A label or manifest path is required", nil)
			}
			path = catalog.ManifestPath(o.cfg.Paths.ManifestDir, label)
		}
		if label == "" {
			label = strings.TrimSuffix(filepath.Base(path), catalog.ManifestExtension)
		}
		loaded, err := catalog.ReadManifest(path)
		if err != nil {
			return label, nil, err
		}
		briefs = loaded
	}
	if label == "" {
		return "", nil, services.Wrap(services.ErrValidation, "download", "select manifest", "A label is required with explicit briefs", nil)
	}

	briefs = dedupe(briefs)
	if req.Limit > 0 && len(briefs) > req.Limit {
		briefs = briefs[:req.Limit]
	}
	return label, briefs, nil
}

func (o *Orchestrator) mediaDir(label string) string {
	return filepath.Join(o.cfg.Paths.DownloadDir, textutil.SanitizeFileName(label))
}

// fetcher streams resolved media. A non-nil fixed media skips resolution.
func (o *Orchestrator) fetcher(fixed *catalog.Media) download.ResolvingFetcher {
	var resolver download.MediaResolver = o.mediaLookup
	if fixed != nil {
		resolver = fixedMedia(*fixed)
	}
	return download.ResolvingFetcher{
		Resolver:      resolver,
		Streamer:      o.streamer,
		WithWatermark: o.cfg.Download.WithWatermark,
	}
}

func (o *Orchestrator) downloader(fetcher download.Fetcher) *download.Downloader {
	d := o.cfg.Download
	opts := []download.Option{
		download.WithJitter(seconds(d.JitterMinSeconds), seconds(d.JitterMaxSeconds)),
		download.WithRetryPolicy(retry.Window(d.RetryAttempts, seconds(d.RetryMinSeconds), seconds(d.RetryMaxSeconds))),
		download.WithSleeper(o.sleep()),
		download.WithLogger(o.logger),
	}
	if o.progress != nil {
		opts = append(opts, download.WithProgress(o.progress))
	}
	return download.New(fetcher, opts...)
}

type fixedMedia catalog.Media

func (m fixedMedia) ResolveMedia(context.Context, string) (catalog.Media, error) {
	return catalog.Media(m), nil
}

func dedupe(briefs []catalog.VideoBrief) []catalog.VideoBrief {
	seen := make(map[string]struct{}, len(briefs))
	out := make([]catalog.VideoBrief, 0, len(briefs))
	for _, b := range briefs {
		if _, dup := seen[b.ID]; dup {
			continue
		}
		seen[b.ID] = struct{}{}
		out = append(out, b)
	}
	return out
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
