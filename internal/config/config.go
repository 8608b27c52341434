package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DownloadDir string `toml:"download_dir"`
	ManifestDir string `toml:"manifest_dir"`
	AudioDir    string `toml:"audio_dir"`
	OutputDir   string `toml:"output_dir"`
	LogDir      string `toml:"log_dir"`
}

// API contains settings for the self-hosted parsing API server that resolves
// share links, lists creator feeds, and signs media requests on our behalf.
type API struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	UserAgent      string `toml:"user_agent"`
	Referer        string `toml:"referer"`
}

// Harvest contains catalog pagination settings.
type Harvest struct {
	PageSize       int    `toml:"page_size"`
	PageDelayMaxMS int    `toml:"page_delay_max_ms"`
	Persist        bool   `toml:"persist"`
	TimeZone       string `toml:"time_zone"`
}

// Download contains pacing and retry settings for media downloads.
type Download struct {
	JitterMinSeconds float64 `toml:"jitter_min_seconds"`
	JitterMaxSeconds float64 `toml:"jitter_max_seconds"`
	RetryAttempts    int     `toml:"retry_attempts"`
	RetryMinSeconds  float64 `toml:"retry_min_seconds"`
	RetryMaxSeconds  float64 `toml:"retry_max_seconds"`
	WithWatermark    bool    `toml:"with_watermark"`
	MinFreeGiB       int     `toml:"min_free_gib"`
}

// Transcription contains WhisperX and FFmpeg settings.
type Transcription struct {
	Model        string `toml:"model"`
	Language     string `toml:"language"`
	CUDAEnabled  bool   `toml:"cuda_enabled"`
	FFmpegBinary string `toml:"ffmpeg_binary"`
}

// Analysis selects the provider and its retry envelope.
type Analysis struct {
	Provider          string `toml:"provider"`
	DefaultProvider   string `toml:"default_provider"`
	RetryAttempts     int    `toml:"retry_attempts"`
	RetryDelaySeconds int    `toml:"retry_delay_seconds"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
}

// Provider describes one model backend. APIKey is never read from the file; it
// is resolved from the environment variable named by APIKeyEnv.
type Provider struct {
	Kind      string `toml:"kind"`
	Endpoint  string `toml:"endpoint"`
	Model     string `toml:"model"`
	APIKeyEnv string `toml:"api_key_env"`
	APIKey    string `toml:"-"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Provider kinds.
const (
	ProviderKindOllama = "ollama"
	ProviderKindGemini = "gemini"
	ProviderKindOpenAI = "openai"
)

// Config encapsulates all configuration values for feedscribe.
//
// Configuration sections by subsystem:
//   - Paths: download, manifest, audio scratch, report, and log directories
//   - API: parsing API server used for catalog listing and media resolution
//   - Harvest: catalog page size, pacing, and manifest persistence
//   - Download: jitter window, retry budget, and free-space floor
//   - Transcription: WhisperX model, language, and FFmpeg binary
//   - Analysis: selected provider and the provider retry envelope
//   - Providers: named model backends
//   - Logging: log format and level
type Config struct {
	Paths         Paths               `toml:"paths"`
	API           API                 `toml:"api"`
	Harvest       Harvest             `toml:"harvest"`
	Download      Download            `toml:"download"`
	Transcription Transcription       `toml:"transcription"`
	Analysis      Analysis            `toml:"analysis"`
	Providers     map[string]Provider `toml:"providers"`
	Logging       Logging             `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		// Built-in providers are merged back during normalization so a file
		// only has to declare the entries it adds or overrides.
		cfg.Providers = nil
		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("feedscribe.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the working directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DownloadDir, c.Paths.ManifestDir, c.Paths.AudioDir, c.Paths.OutputDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable used for audio extraction.
func (c *Config) FFmpegBinary() string {
	if bin := strings.TrimSpace(c.Transcription.FFmpegBinary); bin != "" {
		return bin
	}
	return "ffmpeg"
}

// Location returns the time zone used when formatting creation timestamps.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Harvest.TimeZone)
	if err != nil || c.Harvest.TimeZone == "" {
		return time.Local
	}
	return loc
}

// LookupProvider returns the named provider entry.
func (c *Config) LookupProvider(name string) (Provider, bool) {
	p, ok := c.Providers[strings.TrimSpace(name)]
	return p, ok
}

// ProviderNames lists configured provider names in sorted order.
func (c *Config) ProviderNames() []string {
	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
