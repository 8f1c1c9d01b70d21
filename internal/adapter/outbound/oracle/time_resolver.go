// Package oracle provides a time resolver backed by an OpenAI-compatible
// chat completions endpoint.
package oracle

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Sentinel-Gate/intentresolver/internal/ctxkey"
	"github.com/Sentinel-Gate/intentresolver/internal/domain/timenorm"
)

const (
	// completionsPath is appended to the base URL.
	completionsPath = "/chat/completions"

	// maxResponseBodySize caps how much of a response is read.
	maxResponseBodySize = 1024 * 1024 // 1MB

	// maxErrorBodySize caps how much of an error body is quoted in errors.
	maxErrorBodySize = 512

	// DefaultTimeout bounds a single resolution call.
	DefaultTimeout = 15 * time.Second
)

const systemPrompt = `You convert natural-language time expressions into absolute instants.
Reply with exactly one timestamp in the form YYYY-MM-DDTHH:MM:SSZ (UTC, no offset, no fraction) and nothing else.
Interpret the expression in the user's timezone and convert the result to UTC.
Relative expressions ("in 10 minutes", "5 menit lagi", "besok jam 9") are relative to the current time given.
If the expression does not name a time you can resolve, reply with exactly: ERROR`

// Config configures a TimeResolver.
type Config struct {
	// BaseURL is the API root, e.g. https://api.openai.com/v1.
	BaseURL string
	APIKey  string
	Model   string
	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration
}

// TimeResolver asks a language model to resolve time expressions.
// It implements timenorm.Resolver.
type TimeResolver struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// Compile-time check that TimeResolver implements timenorm.Resolver.
var _ timenorm.Resolver = (*TimeResolver)(nil)

// Option is a functional option for configuring TimeResolver.
type Option func(*TimeResolver)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(r *TimeResolver) {
		r.httpClient = client
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *TimeResolver) {
		r.logger = logger
	}
}

// NewTimeResolver creates a TimeResolver for cfg.
func NewTimeResolver(cfg Config, opts ...Option) (*TimeResolver, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("oracle: base URL is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("oracle: model is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	r := &TimeResolver{
		endpoint: strings.TrimSuffix(cfg.BaseURL, "/") + completionsPath,
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
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
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// userPrompt renders the per-request part of the prompt.
func userPrompt(expression string, reference time.Time, timezone string) string {
	return fmt.Sprintf("Current time (UTC): %s\nUser timezone: %s\nExpression: %q",
		reference.UTC().Format(timenorm.Layout), timezone, expression)
}

// ResolveTime implements timenorm.Resolver. The model's raw reply is
// returned; the normalizer extracts and validates the timestamp.
func (r *TimeResolver) ResolveTime(ctx context.Context, expression string, reference time.Time, timezone string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: r.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(expression, reference, timezone)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("oracle: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("oracle: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}
	if id := ctxkey.RequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	start := time.Now()
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("oracle: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return "", fmt.Errorf("oracle: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("oracle: unexpected status %d: %s", resp.StatusCode, truncate(string(raw), maxErrorBodySize))
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("oracle: decode response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("oracle: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("oracle: response has no choices")
	}

	content := strings.TrimSpace(out.Choices[0].Message.Content)
	ctxkey.Logger(ctx, r.logger).Debug("time resolved by oracle",
		"expression", expression,
		"timezone", timezone,
		"reply", truncate(content, 100),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
