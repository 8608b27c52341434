package whisperx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"feedscribe/internal/language"
	"feedscribe/internal/services"
)

// CommandRunner executes an external command.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Service runs FFmpeg and WhisperX. It is safe to share; callers serialize
// transcriptions through a single worker.
type Service struct {
	cfg          Config
	ffmpegBinary string
	runner       CommandRunner
	lookPath     func(string) (string, error)

	setupOnce sync.Once
	setupErr  error
}

// Option customizes a Service.
type Option func(*Service)

// WithCommandRunner sets a custom command runner (for testing).
func WithCommandRunner(runner CommandRunner) Option {
	return func(s *Service) { s.runner = runner }
}

// WithLookPath overrides executable discovery (for testing).
func WithLookPath(fn func(string) (string, error)) Option {
	return func(s *Service) {
		if fn != nil {
			s.lookPath = fn
		}
	}
}

// NewService creates a WhisperX service with the given configuration.
func NewService(cfg Config, ffmpegBinary string, opts ...Option) *Service {
	if ffmpegBinary == "" {
		ffmpegBinary = FFmpegCommand
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	s := &Service{cfg: cfg, ffmpegBinary: ffmpegBinary, lookPath: exec.LookPath}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Model returns the configured model name for logging.
func (s *Service) Model() string { return s.cfg.Model }

// Language returns the transcription language.
func (s *Service) Language() string { return s.cfg.Language }

// Prepare performs the one-time setup on first call and returns its result on
// every later call.
func (s *Service) Prepare() error {
	s.setupOnce.Do(func() {
		if _, err := s.lookPath(UVXCommand); err != nil {
			s.setupErr = services.Wrap(services.ErrConfiguration, "transcribe", "locate uvx", "uvx is required to run WhisperX", err)
			return
		}
		if s.cfg.ModelDir != "" {
			if err := os.MkdirAll(s.cfg.ModelDir, 0o755); err != nil {
				s.setupErr = services.Wrap(services.ErrConfiguration, "transcribe", "model cache", "Could not create model cache directory", err)
			}
		}
	})
	return s.setupErr
}

// Transcribe runs WhisperX over a WAV file and returns the transcript text.
// WhisperX output is written under workDir and removed after it is read.
func (s *Service) Transcribe(ctx context.Context, audioPath, workDir string) (string, error) {
	if audioPath == "" {
		return "", errors.New("transcribe: audio path required")
	}
	if err := s.Prepare(); err != nil {
		return "", err
	}
	if workDir == "" {
		workDir = filepath.Dir(audioPath)
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", fmt.Errorf("transcribe: ensure output dir: %w", err)
	}

	if err := s.run(ctx, UVXCommand, s.buildArgs(audioPath, workDir)...); err != nil {
		return "", fmt.Errorf("whisperx: %w", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	jsonPath := filepath.Join(workDir, baseName+".json")
	defer os.Remove(jsonPath)

	text, err := loadTranscriptText(jsonPath)
	if err != nil {
		return "", fmt.Errorf("whisperx output: %w", err)
	}
	return text, nil
}

func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.runner != nil {
		return s.runner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// Torch 2.6 changed torch.load default to weights_only=true, breaking WhisperX/pyannote.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// buildArgs constructs the uvx command arguments for WhisperX.
func (s *Service) buildArgs(source, outputDir string) []string {
	args := make([]string, 0, 24)
	if s.cfg.CUDAEnabled {
		args = append(args, "--index-url", CUDAIndexURL, "--extra-index-url", PypiIndexURL)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}

	args = append(args,
		"whisperx",
		source,
		"--model", s.cfg.Model,
		"--batch_size", BatchSize,
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
		"--vad_method", VADMethod,
	)
	if s.cfg.ModelDir != "" {
		args = append(args, "--model_dir", s.cfg.ModelDir)
	}
	if lang := language.ToISO2(s.cfg.Language); lang != "" {
		args = append(args, "--language", lang)
	}
	if s.cfg.CUDAEnabled {
		args = append(args, "--device", CUDADevice)
	} else {
		args = append(args, "--device", CPUDevice, "--compute_type", CPUComputeType)
	}
	return args
}

// Segment represents a transcribed segment from WhisperX JSON output.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type whisperXPayload struct {
	Segments []Segment `json:"segments"`
}

// LoadSegments loads segments from a WhisperX JSON file.
func LoadSegments(jsonPath string) ([]Segment, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	var payload whisperXPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse whisperx json: %w", err)
	}
	return payload.Segments, nil
}

// loadTranscriptText joins non-empty segment texts, one per line.
func loadTranscriptText(jsonPath string) (string, error) {
	segments, err := LoadSegments(jsonPath)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n"), nil
}
