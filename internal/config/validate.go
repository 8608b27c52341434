package config

import (
	"errors"
	"fmt"
	"net/url"

	"feedscribe/internal/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateDownload(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateAnalysis(); err != nil {
		return err
	}
	if err := c.validateProviders(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateAPI() error {
	parsed, err := url.Parse(c.API.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute URL, got %q", c.API.BaseURL)
	}
	return nil
}

func (c *Config) validateDownload() error {
	if c.Download.JitterMaxSeconds < c.Download.JitterMinSeconds {
		return errors.New("download.jitter_max_seconds must be >= download.jitter_min_seconds")
	}
	if c.Download.RetryMaxSeconds < c.Download.RetryMinSeconds {
		return errors.New("download.retry_max_seconds must be >= download.retry_min_seconds")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	if !language.Valid(c.Transcription.Language) {
		return fmt.Errorf("transcription.language %q is not a recognized language code", c.Transcription.Language)
	}
	return nil
}

func (c *Config) validateAnalysis() error {
	if _, ok := c.Providers[c.Analysis.DefaultProvider]; !ok {
		return fmt.Errorf("analysis.default_provider %q is not a configured provider", c.Analysis.DefaultProvider)
	}
	return nil
}

func (c *Config) validateProviders() error {
	for _, name := range c.ProviderNames() {
		p := c.Providers[name]
		switch p.Kind {
		case ProviderKindOllama:
			if p.Model == "" {
				return fmt.Errorf("providers.%s.model must be set for ollama providers", name)
			}
		case ProviderKindGemini, ProviderKindOpenAI:
			if p.Endpoint == "" {
				return fmt.Errorf("providers.%s.endpoint must be set", name)
			}
			if p.Kind == ProviderKindOpenAI && p.Model == "" {
				return fmt.Errorf("providers.%s.model must be set for openai providers", name)
			}
		default:
			return fmt.Errorf("providers.%s.kind %q is not one of ollama, gemini, openai", name, p.Kind)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
