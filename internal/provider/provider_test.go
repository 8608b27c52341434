package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"feedscribe/internal/config"
	"feedscribe/internal/services"
	"feedscribe/internal/worker"
)

type sleepRecorder struct{ waits []time.Duration }

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return ctx.Err()
}

func testConfig() *config.Config {
	cfg := config.Default()
	return &cfg
}

func TestAlwaysFailingProviderIsInvokedTenTimes(t *testing.T) {
	calls := 0
	sleeper := &sleepRecorder{}
	p, err := New(testConfig(), "ollama-qwen2.5-7b", Deps{
		Runner: func(context.Context, string, string, ...string) (string, error) {
			calls++
			return "", errors.New("exit status 1")
		},
		Sleeper: sleeper.sleep,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res := p.Summarize(context.Background(), "转写文本")
	if calls != 10 {
		t.Fatalf("backend invoked %d times, want 10", calls)
	}
	if res.OK() {
		t.Fatal("expected failure result")
	}
	var exhausted *ExhaustedError
	if !errors.As(res.Err, &exhausted) || exhausted.Attempts != 10 || exhausted.Provider != "ollama-qwen2.5-7b" {
		t.Fatalf("unexpected error %#v", res.Err)
	}
	if res.Text != "[ollama-qwen2.5-7b failed after 10 attempts]" {
		t.Fatalf("sentinel = %q", res.Text)
	}
	if len(sleeper.waits) != 9 {
		t.Fatalf("expected 9 waits, got %d", len(sleeper.waits))
	}
	for _, w := range sleeper.waits {
		if w != 30*time.Second {
			t.Fatalf("wait = %s, want 30s", w)
		}
	}
}

func TestOllamaPipesPromptOnStdinThroughWorker(t *testing.T) {
	w := worker.New(nil)
	defer w.Close()

	var gotStdin, gotCmd string
	calls := 0
	p, err := New(testConfig(), "ollama-qwen2-1.5b", Deps{
		Worker:  w,
		Sleeper: (&sleepRecorder{}).sleep,
		Runner: func(_ context.Context, stdin, name string, args ...string) (string, error) {
			calls++
			gotStdin = stdin
			gotCmd = name + " " + strings.Join(args, " ")
			if calls == 1 {
				return "   \n", nil
			}
			return "  优化后的文本 \n", nil
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res := p.Summarize(context.Background(), "原始转写")
	if !res.OK() || res.Text != "优化后的文本" {
		t.Fatalf("result = %+v", res)
	}
	if res.Attempts != 2 {
		t.Fatalf("empty output should count as a failed attempt, attempts=%d", res.Attempts)
	}
	if gotCmd != "ollama run qwen2:1.5b" {
		t.Fatalf("command = %q", gotCmd)
	}
	if !strings.Contains(gotStdin, "原始转写") || !strings.Contains(gotStdin, "禁止添加任何其他内容") {
		t.Fatalf("unexpected prompt %q", gotStdin)
	}
}

func TestGeminiRequestShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "g-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if len(req.Contents) != 1 || !strings.Contains(req.Contents[0].Parts[0].Text, "给学生和学生家长看的") {
			t.Errorf("unexpected payload %+v", req)
		}
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"摘要"}]}}]}`)
	}))
	defer server.Close()

	t.Setenv("GEMINI_API_KEY", "")
	cfg := testConfig()
	cfg.Providers["gemini"] = config.Provider{Kind: config.ProviderKindGemini, Endpoint: server.URL, APIKeyEnv: "GEMINI_API_KEY", APIKey: "g-key"}

	p, err := New(cfg, "gemini", Deps{HTTP: server.Client(), Sleeper: (&sleepRecorder{}).sleep})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res := p.Summarize(context.Background(), "内容")
	if !res.OK() || res.Text != "摘要" || res.Attempts != 1 {
		t.Fatalf("result = %+v", res)
	}
}

func TestOpenAIRequestShapeAndRetryOnStatus(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.Header.Get("Authorization") != "Bearer o-key" {
			t.Errorf("missing bearer token")
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Model != "gpt-4o-mini" || req.Temperature != 0.7 || len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("unexpected payload %+v", req)
		}
		if hits == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"分析结果"}}]}`)
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.Providers["openai-gpt4o-mini"] = config.Provider{Kind: config.ProviderKindOpenAI, Endpoint: server.URL, Model: "gpt-4o-mini", APIKeyEnv: "OPENAI_API_KEY", APIKey: "o-key"}
	sleeper := &sleepRecorder{}
	p, err := New(cfg, "openai-gpt4o-mini", Deps{HTTP: server.Client(), Sleeper: sleeper.sleep})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res := p.Summarize(context.Background(), "内容")
	if !res.OK() || res.Text != "分析结果" {
		t.Fatalf("result = %+v", res)
	}
	if hits != 2 || len(sleeper.waits) != 1 {
		t.Fatalf("hits=%d waits=%v", hits, sleeper.waits)
	}
}

func TestUnknownProviderFallsBackToDefault(t *testing.T) {
	p, err := New(testConfig(), "no-such-model", Deps{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.Name() != "ollama-qwen2-1.5b" || p.Kind() != "ollama" {
		t.Fatalf("fell back to %s (%s)", p.Name(), p.Kind())
	}
}

func TestMissingCredentialIsConfigurationError(t *testing.T) {
	cfg := testConfig()
	cfg.Providers["gemini"] = config.Provider{Kind: config.ProviderKindGemini, Endpoint: "https://example.invalid", APIKeyEnv: "GEMINI_API_KEY"}
	_, err := New(cfg, "gemini", Deps{})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestSummarizeCancellationStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	p, err := New(testConfig(), "ollama-qwen3-4b", Deps{
		Runner: func(context.Context, string, string, ...string) (string, error) {
			calls++
			cancel()
			return "", errors.New("boom")
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res := p.Summarize(ctx, "text")
	if calls != 1 {
		t.Fatalf("calls = %d", calls)
	}
	if !errors.Is(res.Err, services.ErrCanceled) || res.Text == "" {
		t.Fatalf("result = %+v", res)
	}
}

func TestSummarizeRejectsEmptyTranscript(t *testing.T) {
	calls := 0
	p, _ := New(testConfig(), "ollama-qwen3-4b", Deps{
		Runner: func(context.Context, string, string, ...string) (string, error) {
			calls++
			return "x", nil
		},
	})
	res := p.Summarize(context.Background(), "  ")
	if calls != 0 || !errors.Is(res.Err, services.ErrValidation) {
		t.Fatalf("calls=%d result=%+v", calls, res)
	}
}
