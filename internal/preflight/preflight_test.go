package preflight

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"feedscribe/internal/config"
	"feedscribe/internal/deps"
	"feedscribe/internal/services"
	"feedscribe/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if result := CheckFreeSpace("disk", dir, 0); !result.Passed || result.Detail == "" {
		t.Fatalf("expected pass with detail, got %+v", result)
	}
	if result := CheckFreeSpace("disk", dir, 1<<20); result.Passed {
		t.Fatalf("expected failure for an impossible minimum, got %+v", result)
	}
}

func TestFreeBytesWalksToExistingAncestor(t *testing.T) {
	dir := t.TempDir()
	free, err := FreeBytes(filepath.Join(dir, "not", "yet", "created"))
	if err != nil {
		t.Fatalf("FreeBytes: %v", err)
	}
	if free == 0 {
		t.Fatal("expected non-zero free space")
	}
}

func TestRequireFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if err := RequireFreeSpace(dir, 0); err != nil {
		t.Fatalf("zero minimum should pass: %v", err)
	}
	err := RequireFreeSpace(dir, 1<<20)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCheckParseAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if result := CheckParseAPI(context.Background(), srv.URL); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckParseAPI_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if result := CheckParseAPI(context.Background(), srv.URL); result.Passed {
		t.Fatal("expected failure for 502")
	}
}

func TestCheckParseAPI_MissingURL(t *testing.T) {
	if result := CheckParseAPI(context.Background(), " "); result.Passed || result.Detail != "missing base_url" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestCheckProviderCredential(t *testing.T) {
	cfg := config.Default()
	cfg.Providers = map[string]config.Provider{
		"remote": {Kind: config.ProviderKindGemini, Model: "gemini-2.0-flash", APIKeyEnv: "FEEDSCRIBE_TEST_KEY"},
	}
	if result := CheckProvider(&cfg, "remote"); result.Passed {
		t.Fatal("expected failure without credential")
	}

	entry := cfg.Providers["remote"]
	entry.APIKey = "secret"
	cfg.Providers["remote"] = entry
	if result := CheckProvider(&cfg, "remote"); !result.Passed {
		t.Fatalf("expected pass with credential, got %s", result.Detail)
	}

	if result := CheckProvider(&cfg, "unknown"); result.Passed {
		t.Fatal("expected failure for unknown provider")
	}
}

func TestCheckSystemDepsRequiresOllamaForLocalProvider(t *testing.T) {
	cfg := config.Default()
	cfg.Analysis.Provider = "local"
	cfg.Providers = map[string]config.Provider{
		"local":  {Kind: config.ProviderKindOllama, Endpoint: "ollama", Model: "qwen2:1.5b"},
		"remote": {Kind: config.ProviderKindOpenAI, Model: "gpt-4o-mini"},
	}

	statuses := CheckSystemDeps(&cfg)
	last := statuses[len(statuses)-1]
	if last.Name != "Ollama" || last.Optional {
		t.Fatalf("ollama should be required, got %+v", last)
	}

	cfg.Analysis.Provider = "remote"
	statuses = CheckSystemDeps(&cfg)
	if last := statuses[len(statuses)-1]; !last.Optional {
		t.Fatalf("ollama should be optional for remote provider, got %+v", last)
	}
}

func TestCheckSystemDepsWithStubs(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	cfg.Transcription.FFmpegBinary = ""

	statuses := CheckSystemDeps(cfg)
	if missing := deps.MissingRequired(statuses); len(missing) != 0 {
		t.Fatalf("expected all stubbed binaries available, missing %+v", missing)
	}
	for _, s := range statuses {
		if !s.Available {
			t.Fatalf("%s unavailable: %s", s.Name, s.Detail)
		}
	}
}

func TestRunAllReadyWorkspace(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t,
		testsupport.WithAPIBaseURL(srv.URL),
		testsupport.WithProvider("remote", config.Provider{
			Kind:      config.ProviderKindOpenAI,
			Model:     "gpt-4o-mini",
			APIKeyEnv: "FEEDSCRIBE_TEST_KEY",
			APIKey:    "secret",
		}),
	)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	results := RunAll(context.Background(), cfg)
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("expected every check to pass, failed: %+v", failed)
	}
	if len(results) != 7 {
		t.Fatalf("expected 7 checks, got %d", len(results))
	}
}

func TestRunAllReportsMissingDirectories(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithAPIBaseURL("http://127.0.0.1:1"))
	failed := Failed(RunAll(context.Background(), cfg))
	names := map[string]bool{}
	for _, r := range failed {
		names[r.Name] = true
	}
	for _, want := range []string{"Download directory", "Report directory", "Parse API"} {
		if !names[want] {
			t.Fatalf("expected %q among failures %+v", want, failed)
		}
	}
}
