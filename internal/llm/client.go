// Package llm talks to an OpenAI-compatible chat completions server such as llama.cpp.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultRequestTimeout = 60 * time.Second
	maxErrorBody          = 4096
)

// ErrNoChoices is returned when the server answers without any completion.
var ErrNoChoices = errors.New("llm: response has no choices")

// Client sends completion requests to a single server.
type Client struct {
	endpoint string
	apiKey   string
	model    string
	http     *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the bearer token sent with each request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient creates a client for the server at baseURL using model by default.
func NewClient(baseURL, model string, opts ...Option) *Client {
	c := &Client{
		endpoint: strings.TrimRight(baseURL, "/") + "/v1/chat/completions",
		model:    model,
		http:     &http.Client{Timeout: defaultRequestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the model used when ChatParams.Model is empty.
func (c *Client) Model() string {
	return c.model
}

// StatusError is returned when the server answers with a non-200 status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm: status %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether retrying later may succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Complete sends messages and returns the first completion.
func (c *Client) Complete(ctx context.Context, messages []Message, params ChatParams) (*Completion, error) {
	model := params.Model
	if model == "" {
		model = c.model
	}

	body, err := json.Marshal(completionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var decoded completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return nil, ErrNoChoices
	}

	first := decoded.Choices[0]
	return &Completion{
		Content:      first.Message.Content,
		FinishReason: first.FinishReason,
		Usage:        decoded.Usage,
	}, nil
}
