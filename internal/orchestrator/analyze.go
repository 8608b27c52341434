package orchestrator

import (
	"context"
	"strings"

	"feedscribe/internal/catalog"
	"feedscribe/internal/download"
	"feedscribe/internal/logging"
	"feedscribe/internal/media"
	"feedscribe/internal/services"
)

// AnalyzeOptions selects the provider and source retention for analysis.
type AnalyzeOptions struct {
	// Provider names a configured provider; empty uses the configured one.
	Provider string
	// RetainSource keeps source videos after their report is written.
	RetainSource bool
}

// AnalyzeDirectory analyzes every video in dir that has no report yet. An
// empty dir means the download root.
func (o *Orchestrator) AnalyzeDirectory(ctx context.Context, dir string, opts AnalyzeOptions) ([]media.Outcome, error) {
	release, err := o.lockDownloadRoot()
	if err != nil {
		return nil, err
	}
	defer release()
	return o.analyzeDirectory(withRun(ctx), dir, opts)
}

func (o *Orchestrator) analyzeDirectory(ctx context.Context, dir string, opts AnalyzeOptions) ([]media.Outcome, error) {
	if strings.TrimSpace(dir) == "" {
		dir = o.cfg.Paths.DownloadDir
	}
	pipeline, err := o.pipeline(opts)
	if err != nil {
		return nil, err
	}
	return pipeline.RunBatch(services.WithStage(ctx, "analyze"), dir)
}

// AnalyzeOne runs the pipeline for one file and returns its report. The audio
// and, unless retained, the source are removed on every exit path.
func (o *Orchestrator) AnalyzeOne(ctx context.Context, path string, opts AnalyzeOptions) (media.Report, error) {
	if strings.TrimSpace(path) == "" {
		return media.Report{}, services.Wrap(services.ErrValidation, "analyze", "parse input", "A video path is required", nil)
	}
	release, err := o.lockDownloadRoot()
	if err != nil {
		return media.Report{}, err
	}
	defer release()

	pipeline, err := o.pipeline(opts)
	if err != nil {
		return media.Report{}, err
	}
	return pipeline.AnalyzeFile(services.WithStage(withRun(ctx), "analyze"), path)
}

func (o *Orchestrator) pipeline(opts AnalyzeOptions) (*media.Pipeline, error) {
	name := strings.TrimSpace(opts.Provider)
	if name == "" {
		name = o.cfg.Analysis.Provider
	}
	prov, err := o.providers(name)
	if err != nil {
		return nil, err
	}
	if err := ensureDir("analyze", o.cfg.Paths.OutputDir); err != nil {
		return nil, err
	}

	pipelineOpts := []media.Option{
		media.WithWorker(o.worker),
		media.WithLogger(o.logger),
	}
	if o.probe != nil {
		pipelineOpts = append(pipelineOpts, media.WithProbe(o.probe))
	}
	return media.NewPipeline(media.Config{
		AudioDir:     o.cfg.Paths.AudioDir,
		OutputDir:    o.cfg.Paths.OutputDir,
		Language:     o.cfg.Transcription.Language,
		RetainSource: opts.RetainSource,
	}, o.transcriber, prov, pipelineOpts...), nil
}

// DigestRequest drives harvest, download and analysis for one creator.
type DigestRequest struct {
	Target  string
	Label   string
	Limit   int
	Analyze AnalyzeOptions
}

// DigestResult collects the results of each phase that ran.
type DigestResult struct {
	Harvest   HarvestResult      `json:"harvest"`
	Downloads []download.Outcome `json:"downloads"`
	Analyses  []media.Outcome    `json:"analyses"`
}

// Digest harvests a creator, downloads the new videos and analyzes them. The
// download root stays locked from the first download to the last report. A
// phase error stops the digest and returns what completed.
func (o *Orchestrator) Digest(ctx context.Context, req DigestRequest) (DigestResult, error) {
	ctx = withRun(ctx)
	var result DigestResult

	harvested, err := o.Harvest(ctx, HarvestRequest{
		Target:  req.Target,
		Label:   req.Label,
		Persist: o.cfg.Harvest.Persist,
		Limit:   req.Limit,
	})
	result.Harvest = harvested
	if err != nil {
		return result, err
	}

	release, err := o.lockDownloadRoot()
	if err != nil {
		return result, err
	}
	defer release()

	briefs := harvested.Briefs
	if briefs == nil {
		briefs = []catalog.VideoBrief{}
	}
	downloaded, err := o.download(ctx, DownloadRequest{Label: harvested.Label, Briefs: briefs})
	result.Downloads = downloaded.Outcomes
	if err != nil {
		return result, err
	}

	analyses, err := o.analyzeDirectory(ctx, downloaded.Dir, req.Analyze)
	result.Analyses = analyses
	if err != nil {
		return result, err
	}

	d := download.Summarize(result.Downloads)
	logging.WithContext(ctx, o.logger).Info("digest complete",
		logging.String("label", harvested.Label),
		logging.Int("videos", len(harvested.Briefs)),
		logging.Int("downloaded", d.Success),
		logging.Int("download_failures", d.Fail),
		logging.Int("analyzed", len(analyses)),
	)
	return result, nil
}
