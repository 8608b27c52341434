package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAPI()
	c.normalizeHarvest()
	c.normalizeDownload()
	c.normalizeTranscription()
	c.normalizeAnalysis()
	c.normalizeProviders()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		key      string
		value    *string
		fallback string
	}{
		{"paths.download_dir", &c.Paths.DownloadDir, defaultDownloadDir},
		{"paths.manifest_dir", &c.Paths.ManifestDir, defaultManifestDir},
		{"paths.audio_dir", &c.Paths.AudioDir, defaultAudioDir},
		{"paths.output_dir", &c.Paths.OutputDir, defaultOutputDir},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.fallback
		}
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.key, err)
		}
		*field.value = expanded
	}
	return nil
}

func (c *Config) normalizeAPI() {
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.BaseURL == "" {
		c.API.BaseURL = defaultAPIBaseURL
	}
	if c.API.TimeoutSeconds <= 0 {
		c.API.TimeoutSeconds = defaultAPITimeoutSeconds
	}
	c.API.UserAgent = strings.TrimSpace(c.API.UserAgent)
	if c.API.UserAgent == "" {
		c.API.UserAgent = defaultUserAgent
	}
	c.API.Referer = strings.TrimSpace(c.API.Referer)
}

func (c *Config) normalizeHarvest() {
	if c.Harvest.PageSize <= 0 {
		c.Harvest.PageSize = defaultPageSize
	}
	if c.Harvest.PageDelayMaxMS < 0 {
		c.Harvest.PageDelayMaxMS = 0
	}
	c.Harvest.TimeZone = strings.TrimSpace(c.Harvest.TimeZone)
}

func (c *Config) normalizeDownload() {
	if c.Download.RetryAttempts <= 0 {
		c.Download.RetryAttempts = defaultDownloadRetryAttempts
	}
	if c.Download.JitterMinSeconds < 0 {
		c.Download.JitterMinSeconds = 0
	}
	if c.Download.RetryMinSeconds < 0 {
		c.Download.RetryMinSeconds = 0
	}
	if c.Download.MinFreeGiB < 0 {
		c.Download.MinFreeGiB = 0
	}
}

func (c *Config) normalizeTranscription() {
	c.Transcription.Model = strings.TrimSpace(c.Transcription.Model)
	if c.Transcription.Model == "" {
		c.Transcription.Model = defaultWhisperModel
	}
	c.Transcription.Language = strings.ToLower(strings.TrimSpace(c.Transcription.Language))
	if c.Transcription.Language == "" {
		c.Transcription.Language = defaultTranscriptLanguage
	}
	c.Transcription.FFmpegBinary = strings.TrimSpace(c.Transcription.FFmpegBinary)
}

func (c *Config) normalizeAnalysis() {
	c.Analysis.Provider = strings.TrimSpace(c.Analysis.Provider)
	if c.Analysis.Provider == "" {
		c.Analysis.Provider = defaultAnalysisProvider
	}
	c.Analysis.DefaultProvider = strings.TrimSpace(c.Analysis.DefaultProvider)
	if c.Analysis.DefaultProvider == "" {
		c.Analysis.DefaultProvider = defaultFallbackProvider
	}
	if c.Analysis.RetryAttempts <= 0 {
		c.Analysis.RetryAttempts = defaultProviderRetryAttempts
	}
	if c.Analysis.RetryDelaySeconds < 0 {
		c.Analysis.RetryDelaySeconds = 0
	}
	if c.Analysis.TimeoutSeconds <= 0 {
		c.Analysis.TimeoutSeconds = defaultProviderTimeoutSeconds
	}
}

func (c *Config) normalizeProviders() {
	merged := BuiltinProviders()
	for name, p := range c.Providers {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		merged[name] = p
	}
	for name, p := range merged {
		p.Kind = strings.ToLower(strings.TrimSpace(p.Kind))
		p.Endpoint = strings.TrimSpace(p.Endpoint)
		p.Model = strings.TrimSpace(p.Model)
		p.APIKeyEnv = strings.TrimSpace(p.APIKeyEnv)
		if p.Kind == ProviderKindOllama && p.Endpoint == "" {
			p.Endpoint = "ollama"
		}
		if p.APIKeyEnv != "" {
			if value, ok := os.LookupEnv(p.APIKeyEnv); ok {
				p.APIKey = strings.TrimSpace(value)
			}
		}
		merged[name] = p
	}
	c.Providers = merged
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
