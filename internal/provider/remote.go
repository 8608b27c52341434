package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPDoer describes the HTTP client used by the remote backends.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

const maxResponseBytes = 4 << 20

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	body := e.Body
	if len(body) > 300 {
		body = body[:300] + "..."
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, body)
}

func postJSON(ctx context.Context, client HTTPDoer, endpoint string, headers map[string]string, payload, out any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &httpStatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// geminiBackend calls a generateContent-style endpoint.
type geminiBackend struct {
	endpoint string
	apiKey   string
	client   HTTPDoer
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (b *geminiBackend) kind() string { return "gemini" }

func (b *geminiBackend) prompt(text string) string { return RemotePrompt(text) }

func (b *geminiBackend) complete(ctx context.Context, prompt string) (string, error) {
	headers := map[string]string{}
	if b.apiKey != "" {
		headers["x-goog-api-key"] = b.apiKey
	}
	payload := geminiRequest{Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}}}
	var resp geminiResponse
	if err := postJSON(ctx, b.client, b.endpoint, headers, payload, &resp); err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: response missing candidates[0].content.parts[0]")
	}
	text := strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", fmt.Errorf("gemini: empty text")
	}
	return text, nil
}

// openAIBackend calls an OpenAI-compatible chat completions endpoint.
type openAIBackend struct {
	endpoint string
	model    string
	apiKey   string
	client   HTTPDoer
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (b *openAIBackend) kind() string { return "openai" }

func (b *openAIBackend) prompt(text string) string { return RemotePrompt(text) }

func (b *openAIBackend) complete(ctx context.Context, prompt string) (string, error) {
	headers := map[string]string{}
	if b.apiKey != "" {
		headers["Authorization"] = "Bearer " + b.apiKey
	}
	payload := chatRequest{
		Model: b.model,
		Messages: []chatMessage{
			{Role: "system", Content: chatSystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
	}
	var resp chatResponse
	if err := postJSON(ctx, b.client, b.endpoint, headers, payload, &resp); err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("openai: api error: %s", strings.TrimSpace(resp.Error.Message))
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: response missing choices[0]")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("openai: empty content (finish_reason=%q)", resp.Choices[0].FinishReason)
	}
	return text, nil
}
