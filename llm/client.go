// Package llm is a minimal chat-completions client for the extraction
// backend. It speaks the OpenAI-compatible API exposed by DeepSeek.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync/atomic"

	"github.com/go-resty/resty/v2"

	"github.com/aluiziolira/go-crawl-books/config"
)

// ErrRateLimited is returned when the backend answers with HTTP 429.
var ErrRateLimited = errors.New("llm: rate limited")

// StatusError reports a non-2xx response from the backend.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e StatusError) Error() string {
	return fmt.Sprintf("llm: status %d: %s", e.StatusCode, e.Body)
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
	Usage struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
	} `json:"usage"`
}

// Client calls the chat-completions endpoint and tracks token usage
// across requests.
type Client struct {
	rest        *resty.Client
	model       string
	temperature float64

	promptTokens     int64
	completionTokens int64
}

// NewClient reads the API key from the environment variable named by
// cfg.LLMAPIKeyEnv and configures the underlying HTTP client.
func NewClient(cfg *config.Config) (*Client, error) {
	key := os.Getenv(cfg.LLMAPIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("llm api key missing: set %s", cfg.LLMAPIKeyEnv)
	}

	rest := resty.New()
	rest.SetBaseURL(cfg.LLMBaseURL)
	rest.SetTimeout(cfg.LLMTimeout)
	rest.SetHeader("Authorization", "Bearer "+key)
	rest.SetHeader("Content-Type", "application/json")

	return &Client{
		rest:        rest,
		model:       cfg.LLMModel,
		temperature: cfg.LLMTemperature,
	}, nil
}

// Complete sends one system+user exchange and returns the assistant
// message text.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	req := chatRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}

	var out chatResponse
	res, err := c.rest.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}

	if res.StatusCode() == http.StatusTooManyRequests {
		return "", ErrRateLimited
	}
	if res.IsError() {
		return "", StatusError{StatusCode: res.StatusCode(), Body: truncate(res.String(), 200)}
	}

	atomic.AddInt64(&c.promptTokens, out.Usage.PromptTokens)
	atomic.AddInt64(&c.completionTokens, out.Usage.CompletionTokens)

	if len(out.Choices) == 0 {
		return "", fmt.Errorf("chat response has no choices")
	}
	return out.Choices[0].Message.Content, nil
}

// Usage returns the prompt and completion token totals accumulated so
// far.
func (c *Client) Usage() (prompt, completion int64) {
	return atomic.LoadInt64(&c.promptTokens), atomic.LoadInt64(&c.completionTokens)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
