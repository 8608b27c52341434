package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"feedscribe/internal/fileutil"
	"feedscribe/internal/logging"
	"feedscribe/internal/media/ffprobe"
	"feedscribe/internal/provider"
	"feedscribe/internal/services"
	"feedscribe/internal/worker"
)

// State names a pipeline step boundary.
type State string

const (
	StateCreated        State = "created"
	StateAudioExtracted State = "audio_extracted"
	StateTranscribed    State = "transcribed"
	StateAnalyzed       State = "analyzed"
	StatePersisted      State = "persisted"
	StateCleanedUp      State = "cleaned_up"
	StateFailed         State = "failed"
)

// Transcriber extracts audio and converts speech to text.
type Transcriber interface {
	ExtractAudio(ctx context.Context, source string, audioIndex int, dest string) error
	Transcribe(ctx context.Context, audioPath, workDir string) (string, error)
}

// ProbeFunc inspects a media file.
type ProbeFunc func(ctx context.Context, path string) (ffprobe.Result, error)

// Config holds the pipeline's directories and behavior switches.
type Config struct {
	AudioDir  string
	OutputDir string
	Language  string
	// RetainSource keeps the source video after a run.
	RetainSource bool
}

// Pipeline runs videos through transcription and analysis.
type Pipeline struct {
	cfg         Config
	transcriber Transcriber
	provider    provider.Provider
	worker      *worker.Worker
	probe       ProbeFunc
	logger      *slog.Logger
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithWorker confines subprocess steps to w.
func WithWorker(w *worker.Worker) Option {
	return func(p *Pipeline) { p.worker = w }
}

// WithProbe enables stream inspection before extraction.
func WithProbe(fn ProbeFunc) Option {
	return func(p *Pipeline) { p.probe = fn }
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// NewPipeline constructs a Pipeline. transcriber and prov must be non-nil.
func NewPipeline(cfg Config, transcriber Transcriber, prov provider.Provider, opts ...Option) *Pipeline {
	p := &Pipeline{cfg: cfg, transcriber: transcriber, provider: prov}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.NewComponentLogger(p.logger, "pipeline")
	return p
}

// AnalyzeFile runs one video end to end, overwriting any existing report. The
// returned error is set only for fatal media or persistence failures; a
// provider that gave up is reported through Report.AnalysisErr.
func (p *Pipeline) AnalyzeFile(ctx context.Context, source string) (Report, error) {
	if err := p.validate(); err != nil {
		return Report{}, services.Wrap(services.ErrConfiguration, "analyze", "validate", "Pipeline misconfigured", err)
	}
	base := BaseName(source)
	ctx = services.WithItemID(ctx, base)
	logger := logging.WithContext(ctx, p.logger)

	report := Report{
		BaseName:   base,
		OutputPath: ReportPath(p.cfg.OutputDir, source),
		Provider:   p.provider.Name(),
	}
	audioPath := filepath.Join(p.cfg.AudioDir, base+".wav")

	state := StateCreated
	transition := func(next State) {
		logger.Info("pipeline state", logging.String("from", string(state)), logging.String("to", string(next)))
		state = next
	}

	var runErr error
	defer func() {
		targets := []string{audioPath}
		if !p.cfg.RetainSource {
			targets = append(targets, source)
		}
		if err := fileutil.RemoveIfExists(targets...); err != nil {
			logger.Warn("cleanup incomplete", logging.Error(err))
		}
		if runErr != nil {
			transition(StateFailed)
			return
		}
		transition(StateCleanedUp)
	}()

	if !fileutil.Exists(source) {
		runErr = services.Wrap(services.ErrNotFound, "extract", "stat source", "Source video not found: "+source, nil)
		return report, runErr
	}

	audioIndex, err := p.selectAudio(services.WithStage(ctx, "probe"), source)
	if err != nil {
		runErr = err
		return report, runErr
	}

	stageCtx := services.WithStage(ctx, "extract")
	if err := os.MkdirAll(p.cfg.AudioDir, 0o755); err != nil {
		runErr = services.Wrap(services.ErrConfiguration, "extract", "audio dir", "Could not create audio directory", err)
		return report, runErr
	}
	if err := p.worker.Do(stageCtx, "extract "+base, func(ctx context.Context) error {
		return p.transcriber.ExtractAudio(ctx, source, audioIndex, audioPath)
	}); err != nil {
		runErr = wrapStage(err, "extract", "Audio extraction failed")
		return report, runErr
	}
	transition(StateAudioExtracted)

	stageCtx = services.WithStage(ctx, "transcribe")
	transcript, err := worker.Call(stageCtx, p.worker, "transcribe "+base, func(ctx context.Context) (string, error) {
		return p.transcriber.Transcribe(ctx, audioPath, p.cfg.AudioDir)
	})
	if err != nil {
		runErr = wrapStage(err, "transcribe", "Transcription failed")
		return report, runErr
	}
	if strings.TrimSpace(transcript) == "" {
		runErr = services.Wrap(services.ErrValidation, "transcribe", "transcript", "No speech detected", nil)
		return report, runErr
	}
	report.Transcript = transcript
	transition(StateTranscribed)

	result := p.provider.Summarize(ctx, transcript)
	report.Analysis = result.Text
	report.AnalysisErr = result.Err
	if result.Err != nil {
		if errors.Is(result.Err, services.ErrCanceled) {
			runErr = result.Err
			return report, runErr
		}
		logger.Warn("analysis degraded to placeholder", logging.Error(result.Err))
	}
	transition(StateAnalyzed)

	if err := writeReport(report, p.cfg.Language); err != nil {
		runErr = services.Wrap(services.ErrConfiguration, "persist", "write report", "Could not write report", err)
		return report, runErr
	}
	transition(StatePersisted)
	logger.Info("report written", logging.String("file", report.OutputPath))
	return report, nil
}

// selectAudio returns the stream index to extract, or -1 for ffmpeg's first
// audio stream when probing is disabled.
func (p *Pipeline) selectAudio(ctx context.Context, source string) (int, error) {
	if p.probe == nil {
		return -1, nil
	}
	result, err := worker.Call(ctx, p.worker, "probe", func(ctx context.Context) (ffprobe.Result, error) {
		return p.probe(ctx, source)
	})
	if err != nil {
		return 0, wrapStage(err, "probe", "Could not inspect source")
	}
	stream, ok := result.AudioStream()
	if !ok {
		return 0, services.Wrap(services.ErrValidation, "probe", "select audio", "Source has no audio stream", nil)
	}
	duration := result.DurationSeconds()
	if math.IsNaN(duration) {
		duration = 0
	}
	logging.WithContext(ctx, p.logger).Debug("audio stream selected",
		logging.Int("stream_index", stream.Index),
		logging.String("codec", stream.CodecName),
		logging.Any("duration_seconds", duration),
	)
	return stream.Index, nil
}

func wrapStage(err error, stage, message string) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return services.Wrap(services.ErrTimeout, stage, "run", message, err)
	case errors.Is(err, context.Canceled):
		return services.Wrap(services.ErrCanceled, stage, "run", message, err)
	}
	if errors.Is(err, services.ErrConfiguration) {
		return err
	}
	return services.Wrap(services.ErrExternalTool, stage, "run", message, err)
}

// validate checks that the directories are set.
func (p *Pipeline) validate() error {
	if strings.TrimSpace(p.cfg.AudioDir) == "" || strings.TrimSpace(p.cfg.OutputDir) == "" {
		return fmt.Errorf("pipeline: audio and output directories are required")
	}
	return nil
}
