package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"feedscribe/internal/catalog"
	"feedscribe/internal/config"
	"feedscribe/internal/deps"
	"feedscribe/internal/download"
	"feedscribe/internal/logging"
	"feedscribe/internal/media"
	"feedscribe/internal/media/ffprobe"
	"feedscribe/internal/provider"
	"feedscribe/internal/retry"
	"feedscribe/internal/services"
	"feedscribe/internal/services/parseapi"
	"feedscribe/internal/services/whisperx"
	"feedscribe/internal/worker"
)

// LockFileName is the advisory lock created inside the download root.
const LockFileName = ".feedscribe.lock"

// ErrLocked reports that another process holds the download root lock.
var ErrLocked = errors.New("download root is locked by another run")

// Resolver turns share text and page URLs into platform identifiers.
type Resolver interface {
	ResolveUserID(ctx context.Context, userURL string) (string, error)
	CanonicalVideoURL(ctx context.Context, shareText string) (string, error)
	VideoID(ctx context.Context, videoURL string) (string, error)
}

// ProviderFactory builds the named summary provider.
type ProviderFactory func(name string) (provider.Provider, error)

// Orchestrator runs the end-to-end operations against one configuration.
type Orchestrator struct {
	cfg    *config.Config
	logger *slog.Logger

	resolver    Resolver
	source      catalog.Source
	mediaLookup download.MediaResolver
	streamer    download.Streamer
	transcriber media.Transcriber
	probe       media.ProbeFunc
	skipProbe   bool
	providers   ProviderFactory

	worker     *worker.Worker
	ownsWorker bool

	limiter  *rate.Limiter
	sleeper  retry.Sleeper
	progress download.ProgressFunc
}

// Option configures optional Orchestrator collaborators. Anything left unset
// is built from the configuration.
type Option func(*Orchestrator)

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithResolver overrides share-link and user resolution.
func WithResolver(r Resolver) Option {
	return func(o *Orchestrator) { o.resolver = r }
}

// WithSource overrides the catalog page source.
func WithSource(s catalog.Source) Option {
	return func(o *Orchestrator) { o.source = s }
}

// WithMedia overrides media resolution and streaming.
func WithMedia(resolver download.MediaResolver, streamer download.Streamer) Option {
	return func(o *Orchestrator) {
		o.mediaLookup = resolver
		o.streamer = streamer
	}
}

// WithTranscriber overrides audio extraction and transcription.
func WithTranscriber(t media.Transcriber) Option {
	return func(o *Orchestrator) { o.transcriber = t }
}

// WithProbe overrides the audio stream probe.
func WithProbe(fn media.ProbeFunc) Option {
	return func(o *Orchestrator) { o.probe = fn }
}

// WithoutProbe skips stream inspection; ffmpeg then extracts the first audio
// stream.
func WithoutProbe() Option {
	return func(o *Orchestrator) { o.skipProbe = true }
}

// WithProviderFactory overrides provider construction.
func WithProviderFactory(fn ProviderFactory) Option {
	return func(o *Orchestrator) { o.providers = fn }
}

// WithWorker shares an existing worker. The caller keeps ownership.
func WithWorker(w *worker.Worker) Option {
	return func(o *Orchestrator) { o.worker = w }
}

// WithLimiter overrides catalog page pacing.
func WithLimiter(l *rate.Limiter) Option {
	return func(o *Orchestrator) { o.limiter = l }
}

// WithSleeper replaces every pacing and backoff sleep (for tests).
func WithSleeper(s retry.Sleeper) Option {
	return func(o *Orchestrator) { o.sleeper = s }
}

// WithProgress reports download progress through the writer fn returns.
func WithProgress(fn download.ProgressFunc) Option {
	return func(o *Orchestrator) { o.progress = fn }
}

// New builds an Orchestrator. Collaborators not supplied through options are
// created from cfg: one parse-API client serves as resolver, catalog source,
// media resolver and streamer.
func New(cfg *config.Config, opts ...Option) (*Orchestrator, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "orchestrator", "init", "Missing configuration", nil)
	}
	o := &Orchestrator{cfg: cfg}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = logging.NewComponentLogger(o.logger, "orchestrator")

	if o.resolver == nil || o.source == nil || o.mediaLookup == nil || o.streamer == nil {
		client, err := parseapi.NewConfiguredClient(cfg)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "orchestrator", "parse api client", "Could not build parse API client", err)
		}
		if o.resolver == nil {
			o.resolver = client
		}
		if o.source == nil {
			o.source = client
		}
		if o.mediaLookup == nil {
			o.mediaLookup = client
		}
		if o.streamer == nil {
			o.streamer = client
		}
	}

	if o.worker == nil {
		o.worker = worker.New(o.logger)
		o.ownsWorker = true
	}
	if o.transcriber == nil {
		o.transcriber = whisperx.NewService(whisperx.Config{
			Model:       cfg.Transcription.Model,
			Language:    cfg.Transcription.Language,
			CUDAEnabled: cfg.Transcription.CUDAEnabled,
			ModelDir:    filepath.Join(cfg.Paths.AudioDir, "models"),
		}, cfg.FFmpegBinary())
	}
	if o.probe == nil && !o.skipProbe {
		binary := deps.ResolveFFprobePath(cfg.FFmpegBinary())
		o.probe = func(ctx context.Context, path string) (ffprobe.Result, error) {
			return ffprobe.Inspect(ctx, nil, binary, path)
		}
	}
	if o.providers == nil {
		o.providers = func(name string) (provider.Provider, error) {
			adapter, err := provider.New(cfg, name, provider.Deps{
				Worker:  o.worker,
				Sleeper: o.sleeper,
				Logger:  o.logger,
			})
			if err != nil {
				return nil, err
			}
			return adapter, nil
		}
	}
	if o.limiter == nil {
		o.limiter = rate.NewLimiter(rate.Every(500*time.Millisecond), 1)
	}
	return o, nil
}

// Close stops the worker when the Orchestrator created it.
func (o *Orchestrator) Close() {
	if o.ownsWorker {
		o.worker.Close()
	}
}

// withRun stamps a correlation id unless the caller already set one.
func withRun(ctx context.Context) context.Context {
	if _, ok := services.RequestIDFromContext(ctx); ok {
		return ctx
	}
	return services.WithRequestID(ctx, uuid.NewString())
}

// lockDownloadRoot takes the advisory lock on the download root without
// blocking. The returned release func is safe to defer.
func (o *Orchestrator) lockDownloadRoot() (func(), error) {
	root := o.cfg.Paths.DownloadDir
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "lock", "create download root", "Could not create download directory", err)
	}
	lock := flock.New(filepath.Join(root, LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "lock", "acquire", "Could not lock download directory", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrValidation, "lock", "acquire", fmt.Sprintf("Another run is using %s", root), ErrLocked)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			o.logger.Warn("release download lock failed", logging.Error(err))
		}
	}, nil
}

func (o *Orchestrator) sleep() retry.Sleeper {
	if o.sleeper != nil {
		return o.sleeper
	}
	return retry.Sleep
}
