package config

const (
	defaultConfigPath             = "~/.config/feedscribe/config.toml"
	defaultDownloadDir            = "~/.local/share/feedscribe/downloads"
	defaultManifestDir            = "~/.local/share/feedscribe/manifests"
	defaultAudioDir               = "~/.local/share/feedscribe/audio"
	defaultOutputDir              = "~/.local/share/feedscribe/reports"
	defaultLogDir                 = "~/.local/share/feedscribe/logs"
	defaultAPIBaseURL             = "http://127.0.0.1:8000"
	defaultAPITimeoutSeconds      = 30
	defaultUserAgent              = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	defaultReferer                = "https://www.douyin.com/"
	defaultPageSize               = 100
	defaultPageDelayMaxMS         = 1000
	defaultJitterMinSeconds       = 1
	defaultJitterMaxSeconds       = 3
	defaultDownloadRetryAttempts  = 3
	defaultDownloadRetryMin       = 10
	defaultDownloadRetryMax       = 30
	defaultMinFreeGiB             = 1
	defaultWhisperModel           = "base"
	defaultTranscriptLanguage     = "zh"
	defaultAnalysisProvider       = "ollama-qwen2.5-7b"
	defaultFallbackProvider       = "ollama-qwen2-1.5b"
	defaultProviderRetryAttempts  = 10
	defaultProviderRetryDelay     = 30
	defaultProviderTimeoutSeconds = 300
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultGeminiEndpoint         = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent"
	defaultOpenAIEndpoint         = "https://api.openai.com/v1/chat/completions"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DownloadDir: defaultDownloadDir,
			ManifestDir: defaultManifestDir,
			AudioDir:    defaultAudioDir,
			OutputDir:   defaultOutputDir,
			LogDir:      defaultLogDir,
		},
		API: API{
			BaseURL:        defaultAPIBaseURL,
			TimeoutSeconds: defaultAPITimeoutSeconds,
			UserAgent:      defaultUserAgent,
			Referer:        defaultReferer,
		},
		Harvest: Harvest{
			PageSize:       defaultPageSize,
			PageDelayMaxMS: defaultPageDelayMaxMS,
			Persist:        true,
		},
		Download: Download{
			JitterMinSeconds: defaultJitterMinSeconds,
			JitterMaxSeconds: defaultJitterMaxSeconds,
			RetryAttempts:    defaultDownloadRetryAttempts,
			RetryMinSeconds:  defaultDownloadRetryMin,
			RetryMaxSeconds:  defaultDownloadRetryMax,
			MinFreeGiB:       defaultMinFreeGiB,
		},
		Transcription: Transcription{
			Model:        defaultWhisperModel,
			Language:     defaultTranscriptLanguage,
			FFmpegBinary: "ffmpeg",
		},
		Analysis: Analysis{
			Provider:          defaultAnalysisProvider,
			DefaultProvider:   defaultFallbackProvider,
			RetryAttempts:     defaultProviderRetryAttempts,
			RetryDelaySeconds: defaultProviderRetryDelay,
			TimeoutSeconds:    defaultProviderTimeoutSeconds,
		},
		Providers: BuiltinProviders(),
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

// BuiltinProviders returns the provider table shipped with feedscribe. Entries
// in a config file with the same name replace these.
func BuiltinProviders() map[string]Provider {
	return map[string]Provider{
		"ollama-qwen2-1.5b":   {Kind: ProviderKindOllama, Endpoint: "ollama", Model: "qwen2:1.5b"},
		"ollama-qwen3-4b":     {Kind: ProviderKindOllama, Endpoint: "ollama", Model: "qwen3:4b"},
		"ollama-qwen2.5-1.5b": {Kind: ProviderKindOllama, Endpoint: "ollama", Model: "qwen2.5:1.5b"},
		"ollama-qwen2.5-7b":   {Kind: ProviderKindOllama, Endpoint: "ollama", Model: "qwen2.5:7b"},
		"gemini": {
			Kind:      ProviderKindGemini,
			Endpoint:  defaultGeminiEndpoint,
			APIKeyEnv: "GEMINI_API_KEY",
		},
		"openai-gpt4o-mini": {
			Kind:      ProviderKindOpenAI,
			Endpoint:  defaultOpenAIEndpoint,
			Model:     "gpt-4o-mini",
			APIKeyEnv: "OPENAI_API_KEY",
		},
	}
}
