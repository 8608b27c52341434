package whisperx

// Config captures runtime settings for WhisperX operations.
type Config struct {
	// Model is the Whisper model name (e.g. "base", "large-v3").
	Model string
	// Language is the spoken language passed to WhisperX.
	Language string
	// CUDAEnabled enables GPU acceleration.
	CUDAEnabled bool
	// ModelDir caches downloaded model weights between runs.
	ModelDir string
}

// WhisperX configuration constants.
const (
	DefaultModel    = "base"
	DefaultLanguage = "zh"
	CUDAIndexURL    = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL    = "https://pypi.org/simple"
	BatchSize       = "8"
	OutputFormat    = "json"
	VADMethod       = "silero"
	CPUDevice       = "cpu"
	CUDADevice      = "cuda"
	CPUComputeType  = "int8"
)

// Command names for external tools.
const (
	UVXCommand    = "uvx"
	FFmpegCommand = "ffmpeg"
)
