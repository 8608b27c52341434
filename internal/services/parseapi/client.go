package parseapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"feedscribe/internal/config"
	"feedscribe/internal/retry"
	"feedscribe/internal/services"
)

// HTTPDoer describes the HTTP client used for API and media requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config describes how to reach the parsing API server.
type Config struct {
	BaseURL   string
	UserAgent string
	Referer   string
	Timeout   time.Duration
}

// Client talks to the parsing API server.
type Client struct {
	cfg    Config
	api    HTTPDoer
	stream HTTPDoer
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the client used for API calls and media streams.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.api = doer
			c.stream = doer
		}
	}
}

// NewClient constructs a Client. API calls are bounded by cfg.Timeout; media
// streams are bounded only by the caller's context. Both share a cookie jar.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "parseapi", "init", "API base URL is empty", nil)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	c := &Client{
		cfg:    cfg,
		api:    &http.Client{Timeout: cfg.Timeout, Jar: jar},
		stream: &http.Client{Jar: jar},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewConfiguredClient builds a Client from application config.
func NewConfiguredClient(cfg *config.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("parseapi: nil config")
	}
	return NewClient(Config{
		BaseURL:   cfg.API.BaseURL,
		UserAgent: cfg.API.UserAgent,
		Referer:   cfg.API.Referer,
		Timeout:   time.Duration(cfg.API.TimeoutSeconds) * time.Second,
	}, opts...)
}

type envelope struct {
	Code    int             `json:"code"`
	Router  string          `json:"router"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// StatusError reports a non-success HTTP status or envelope code.
type StatusError struct {
	Route      string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s returned %d: %s", e.Route, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s returned %d", e.Route, e.StatusCode)
}

// Retryable reports whether the status indicates a transient upstream failure.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

func (c *Client) getJSON(ctx context.Context, route string, query url.Values, out any) error {
	endpoint := c.cfg.BaseURL + route
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", route, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.api.Do(req)
	if err != nil {
		return classify(ctx, route, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return classify(ctx, route, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(body, &env)
	if resp.StatusCode != http.StatusOK {
		msg := env.Message
		if decodeErr != nil || msg == "" {
			msg = snippet(body)
		}
		return statusFailure(route, &StatusError{Route: route, StatusCode: resp.StatusCode, Message: msg})
	}
	if decodeErr != nil {
		return services.Wrap(services.ErrTransient, "parseapi", route, "Malformed response body", decodeErr)
	}
	if env.Code != 0 && env.Code != http.StatusOK {
		return statusFailure(route, &StatusError{Route: route, StatusCode: env.Code, Message: env.Message})
	}
	if out == nil {
		return nil
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return services.Wrap(services.ErrNotFound, "parseapi", route, "Response carried no data", nil)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return services.Wrap(services.ErrTransient, "parseapi", route, "Unexpected data shape", err)
	}
	return nil
}

func statusFailure(route string, se *StatusError) error {
	if se.Retryable() {
		return services.Wrap(services.ErrTransient, "parseapi", route, "Upstream temporarily unavailable", se)
	}
	return retry.Permanent(services.Wrap(services.ErrValidation, "parseapi", route, "Request rejected", se))
}

func classify(ctx context.Context, route string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return services.Wrap(services.ErrCanceled, "parseapi", route, "Request canceled", ctxErr)
	}
	return services.Wrap(services.ErrTransient, "parseapi", route, "Request failed", err)
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
