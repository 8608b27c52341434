package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	server     *httptest.Server
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	base := t.TempDir()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/api/douyin/web/fetch_user_post_videos", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("sec_user_id") != "uid" {
			http.Error(w, `{"code":400,"message":"bad user"}`, http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, `{"code":200,"router":"/api/douyin/web/fetch_user_post_videos","data":{`+
			`"aweme_list":[{"aweme_id":"101","desc":"hello world","create_time":1700000000}],`+
			`"has_more":0,"max_cursor":0}}`)
	})
	mux.HandleFunc("/api/hybrid/video_data", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"code":200,"data":{"type":"video","platform":"douyin","aweme_id":"101","desc":"hello world",`+
			`"video_data":{"nwm_video_url_HQ":%q}}}`, srv.URL+"/media/101.mp4")
	})
	mux.HandleFunc("/media/101.mp4", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Length", "10")
		_, _ = w.Write([]byte("videobytes"))
	})

	env := &cliTestEnv{baseDir: base, configPath: filepath.Join(base, "config.toml"), server: srv}
	writeTestConfig(t, env)
	return env
}

func writeTestConfig(t *testing.T, env *cliTestEnv) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
download_dir = %q
manifest_dir = %q
audio_dir = %q
output_dir = %q
log_dir = %q

[api]
base_url = %q

[harvest]
page_delay_max_ms = 0
persist = true
time_zone = "UTC"

[download]
jitter_min_seconds = 0
jitter_max_seconds = 0
retry_attempts = 1
retry_min_seconds = 0
retry_max_seconds = 0
min_free_gib = 0

[logging]
level = "error"
`,
		filepath.Join(env.baseDir, "downloads"),
		filepath.Join(env.baseDir, "manifests"),
		filepath.Join(env.baseDir, "audio"),
		filepath.Join(env.baseDir, "reports"),
		filepath.Join(env.baseDir, "logs"),
		env.server.URL,
	)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func decodeEnvelope(t *testing.T, out string, data any) envelope {
	t.Helper()
	var raw struct {
		Code    int             `json:"code"`
		Data    json.RawMessage `json:"data"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal([]byte(out), &raw); err != nil {
		t.Fatalf("decode envelope: %v\n%s", err, out)
	}
	if data != nil && len(raw.Data) > 0 {
		if err := json.Unmarshal(raw.Data, data); err != nil {
			t.Fatalf("decode data: %v\n%s", err, raw.Data)
		}
	}
	return envelope{Code: raw.Code, Message: raw.Message}
}

func TestHarvestThenDownload(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"--json", "harvest", "uid", "--label", "creator"}, env.configPath)
	if err != nil {
		t.Fatalf("harvest: %v", err)
	}
	var harvested struct {
		UserID   string `json:"user_id"`
		Manifest string `json:"manifest"`
		Briefs   []struct {
			ID        string `json:"id"`
			CreatedAt string `json:"created_at"`
		} `json:"briefs"`
	}
	if env := decodeEnvelope(t, out, &harvested); env.Code != codeOK {
		t.Fatalf("unexpected envelope %+v", env)
	}
	if harvested.UserID != "uid" || len(harvested.Briefs) != 1 || harvested.Briefs[0].CreatedAt != "20231114_221320" {
		t.Fatalf("unexpected harvest %+v", harvested)
	}
	if _, err := os.Stat(harvested.Manifest); err != nil {
		t.Fatalf("manifest missing: %v", err)
	}

	out, _, err = runCLI(t, []string{"--json", "download", "creator"}, env.configPath)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	var outcomes []struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		File   string `json:"file"`
	}
	decodeEnvelope(t, out, &outcomes)
	if len(outcomes) != 1 || outcomes[0].Status != "success" {
		t.Fatalf("unexpected outcomes %+v", outcomes)
	}
	want := filepath.Join(env.baseDir, "downloads", "creator", "hello_world_20231114_221320.mp4")
	data, err := os.ReadFile(want)
	if err != nil || string(data) != "videobytes" {
		t.Fatalf("downloaded file %s: %q %v", want, data, err)
	}

	out, _, err = runCLI(t, []string{"download", "creator"}, env.configPath)
	if err != nil {
		t.Fatalf("second download: %v", err)
	}
	requireContains(t, out, "already present 1")
}

func TestDownloadWithoutLabelReportsValidationError(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"--json", "download"}, env.configPath)
	if err == nil {
		t.Fatal("expected error without label or manifest")
	}
	if got := decodeEnvelope(t, out, nil); got.Code != 400 || got.Message == "" {
		t.Fatalf("unexpected envelope %+v", got)
	}
}

func TestAnalyzeMissingPathReportsNotFound(t *testing.T) {
	env := setupCLITestEnv(t)
	missing := filepath.Join(env.baseDir, "downloads", "gone.mp4")

	out, _, err := runCLI(t, []string{"--json", "analyze", missing}, env.configPath)
	if err == nil {
		t.Fatal("expected error for a missing input")
	}
	got := decodeEnvelope(t, out, nil)
	if got.Code != 404 {
		t.Fatalf("unexpected envelope %+v", got)
	}
	requireContains(t, got.Message, "gone.mp4")
	if entries, _ := os.ReadDir(filepath.Join(env.baseDir, "reports")); len(entries) != 0 {
		t.Fatalf("no analysis should have run, found %d reports", len(entries))
	}
}

func TestProvidersListing(t *testing.T) {
	env := setupCLITestEnv(t)
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	out, _, err := runCLI(t, []string{"--json", "providers"}, env.configPath)
	if err != nil {
		t.Fatalf("providers: %v", err)
	}
	var views []providerView
	decodeEnvelope(t, out, &views)
	byName := map[string]providerView{}
	for _, v := range views {
		byName[v.Name] = v
	}
	if v := byName["gemini"]; v.Kind != "gemini" || v.Credential {
		t.Fatalf("gemini view = %+v", v)
	}
	if v := byName["openai-gpt4o-mini"]; !v.Credential {
		t.Fatalf("openai view = %+v", v)
	}
	if v := byName["ollama-qwen2.5-7b"]; !v.Selected {
		t.Fatalf("default provider should be selected: %+v", v)
	}

	out, _, err = runCLI(t, []string{"providers"}, env.configPath)
	if err != nil {
		t.Fatalf("providers table: %v", err)
	}
	requireContains(t, out, "ollama-qwen2-1.5b")
	requireContains(t, out, "fallback")
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected refusal to overwrite existing config")
	}
}
