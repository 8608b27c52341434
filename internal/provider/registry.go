package provider

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"feedscribe/internal/config"
	"feedscribe/internal/logging"
	"feedscribe/internal/retry"
	"feedscribe/internal/services"
	"feedscribe/internal/worker"
)

// Deps supplies the collaborators backends need. Zero values fall back to
// real implementations.
type Deps struct {
	HTTP    HTTPDoer
	Runner  StdinRunner
	Worker  *worker.Worker
	Sleeper retry.Sleeper
	Logger  *slog.Logger
}

// Resolve picks the provider entry for name, falling back to the configured
// default when name is unknown. fellBack reports whether the fallback was used.
func Resolve(cfg *config.Config, name string) (resolved string, entry config.Provider, fellBack bool, err error) {
	if p, ok := cfg.LookupProvider(name); ok {
		return name, p, false, nil
	}
	fallback := cfg.Analysis.DefaultProvider
	p, ok := cfg.LookupProvider(fallback)
	if !ok {
		return "", config.Provider{}, false, services.Wrap(services.ErrConfiguration, "analyze", "select provider",
			fmt.Sprintf("Neither %q nor default %q is configured", name, fallback), nil)
	}
	return fallback, p, true, nil
}

// New builds the named provider with the retry envelope from cfg.Analysis. An
// unknown name falls back to cfg.Analysis.DefaultProvider with a warning.
func New(cfg *config.Config, name string, deps Deps) (*Adapter, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "analyze", "select provider", "Missing configuration", nil)
	}
	logger := logging.NewComponentLogger(deps.Logger, "provider")

	resolved, entry, fellBack, err := Resolve(cfg, name)
	if err != nil {
		return nil, err
	}
	if fellBack {
		logger.Warn("unknown provider, using default",
			logging.String("requested", name),
			logging.String("provider", resolved),
		)
	}

	b, err := newBackend(resolved, entry, deps)
	if err != nil {
		return nil, err
	}

	sleeper := deps.Sleeper
	if sleeper == nil {
		sleeper = retry.Sleep
	}
	attempts := cfg.Analysis.RetryAttempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	return &Adapter{
		name:       resolved,
		backend:    b,
		policy:     retry.Fixed(attempts, time.Duration(cfg.Analysis.RetryDelaySeconds)*time.Second),
		perAttempt: time.Duration(cfg.Analysis.TimeoutSeconds) * time.Second,
		sleep:      sleeper,
		logger:     logger.With(logging.String("provider", resolved)),
	}, nil
}

func newBackend(name string, entry config.Provider, deps Deps) (backend, error) {
	if entry.APIKeyEnv != "" && entry.APIKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "analyze", name,
			fmt.Sprintf("Environment variable %s is not set", entry.APIKeyEnv), nil)
	}
	client := deps.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	switch entry.Kind {
	case config.ProviderKindOllama:
		runner := deps.Runner
		if runner == nil {
			runner = execStdinRunner
		}
		binary := entry.Endpoint
		if binary == "" {
			binary = "ollama"
		}
		return &ollamaBackend{binary: binary, model: entry.Model, runner: runner, worker: deps.Worker}, nil
	case config.ProviderKindGemini:
		return &geminiBackend{endpoint: entry.Endpoint, apiKey: entry.APIKey, client: client}, nil
	case config.ProviderKindOpenAI:
		return &openAIBackend{endpoint: entry.Endpoint, model: entry.Model, apiKey: entry.APIKey, client: client}, nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "analyze", name, fmt.Sprintf("Unsupported provider kind %q", entry.Kind), nil)
	}
}
