package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"feedscribe/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Pacing is disabled, timestamps use UTC and the free-space floor is off so
// tests never sleep or depend on the host disk.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths = config.Paths{
		DownloadDir: filepath.Join(base, "downloads"),
		ManifestDir: filepath.Join(base, "manifests"),
		AudioDir:    filepath.Join(base, "audio"),
		OutputDir:   filepath.Join(base, "reports"),
		LogDir:      filepath.Join(base, "logs"),
	}
	cfgVal.Harvest.PageDelayMaxMS = 0
	cfgVal.Harvest.TimeZone = "UTC"
	cfgVal.Download.JitterMinSeconds = 0
	cfgVal.Download.JitterMaxSeconds = 0
	cfgVal.Download.RetryMinSeconds = 0
	cfgVal.Download.RetryMaxSeconds = 0
	cfgVal.Download.MinFreeGiB = 0
	cfgVal.Analysis.RetryDelaySeconds = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithAPIBaseURL points the parse API client at a test server.
func WithAPIBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.API.BaseURL = url
	}
}

// WithProvider adds or replaces a provider entry and selects it.
func WithProvider(name string, p config.Provider) ConfigOption {
	return func(b *configBuilder) {
		providers := make(map[string]config.Provider, len(b.cfg.Providers)+1)
		for k, v := range b.cfg.Providers {
			providers[k] = v
		}
		providers[name] = p
		b.cfg.Providers = providers
		b.cfg.Analysis.Provider = name
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the external binaries feedscribe
// shells out to are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe", "uvx", "ollama"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}
