package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/plateful/server/internal/shared/config"
)

// Client generates chat completions.
type Client interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Message is a chat message in the OpenAI wire format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// HTTPClient talks to an OpenAI-compatible chat completions API.
type HTTPClient struct {
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	client      *http.Client
}

// NewHTTPClient creates a chat completions client from config.
func NewHTTPClient(cfg config.AIConfig) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPClient{
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		client:      &http.Client{Timeout: timeout},
	}
}

// Complete performs a non-streaming chat completion and returns the first
// choice's content.
func (c *HTTPClient) Complete(ctx context.Context, system, user string) (string, error) {
	body := map[string]any{
		"model": c.model,
		"messages": []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
	if c.maxTokens > 0 {
		body["max_tokens"] = c.maxTokens
	}
	if c.temperature > 0 {
		body["temperature"] = c.temperature
	}

	respBody, err := c.doRequest(ctx, "/chat/completions", body)
	if err != nil {
		return "", err
	}
	defer respBody.Close()

	var completion struct {
		Choices []struct {
			Message      *Message `json:"message"`
			FinishReason string   `json:"finish_reason"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(respBody).Decode(&completion); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message == nil {
		return "", fmt.Errorf("no choices in response")
	}

	return completion.Choices[0].Message.Content, nil
}

func (c *HTTPClient) doRequest(ctx context.Context, path string, body map[string]any) (io.ReadCloser, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(msg))
	}

	return resp.Body, nil
}

// BreakerClient wraps a Client with a circuit breaker so a failing
// provider sheds load quickly instead of holding request slots.
type BreakerClient struct {
	inner   Client
	breaker *gobreaker.CircuitBreaker[string]
}

// NewBreakerClient creates a circuit-breaking client.
func NewBreakerClient(inner Client, cfg config.AIConfig, logger *zap.Logger) *BreakerClient {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	timeout := cfg.CircuitTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:    "ai-provider",
		Timeout: timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("ai provider circuit state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &BreakerClient{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker[string](settings),
	}
}

// Complete executes the completion through the circuit breaker.
func (b *BreakerClient) Complete(ctx context.Context, system, user string) (string, error) {
	return b.breaker.Execute(func() (string, error) {
		return b.inner.Complete(ctx, system, user)
	})
}

var (
	_ Client = (*HTTPClient)(nil)
	_ Client = (*BreakerClient)(nil)
)
