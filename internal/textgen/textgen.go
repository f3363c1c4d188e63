// internal/textgen/textgen.go
// Package textgen talks to an OpenAI-compatible chat completions endpoint.
package textgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ColonelBlimp/kochtrainer/internal/logging"
)

const (
	// DefaultEndpoint is used when Config.Endpoint is empty
	DefaultEndpoint = "https://api.openai.com/v1/chat/completions"
	// DefaultModel is used when Config.Model is empty
	DefaultModel = "gpt-4o-mini"
	// maxBody bounds how much of a response is read
	maxBody = 1 << 20
)

var (
	// ErrNoAPIKey is returned when no API key is configured
	ErrNoAPIKey = errors.New("no API key configured")
	// ErrStatus is returned for non-2xx responses
	ErrStatus = errors.New("unexpected response status")
	// ErrEmptyResponse is returned when the response has no message content
	ErrEmptyResponse = errors.New("empty response")
)

// Config holds client settings. APIKey is called on every request so a key
// changed in the learner settings takes effect without a restart.
type Config struct {
	Endpoint string
	Model    string
	APIKey   func() string
	HTTP     *http.Client
	Log      *zap.Logger
}

// Client implements content.TextGenerator.
type Client struct {
	endpoint string
	model    string
	apiKey   func() string
	http     *http.Client
	log      *zap.Logger
}

// New builds a client. Timeouts come from the caller's context.
func New(cfg Config) *Client {
	c := &Client{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		http:     cfg.HTTP,
		log:      logging.OrNop(cfg.Log),
	}
	if c.endpoint == "" {
		c.endpoint = DefaultEndpoint
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.http == nil {
		c.http = http.DefaultClient
	}
	if c.apiKey == nil {
		c.apiKey = func() string { return "" }
	}
	return c
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type response struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// Prompt sends prompt as a single user message and returns the reply text.
func (c *Client) Prompt(ctx context.Context, prompt string) (string, error) {
	key := strings.TrimSpace(c.apiKey())
	if key == "" {
		return "", ErrNoAPIKey
	}

	body, err := json.Marshal(request{
		Model:       c.model,
		Messages:    []message{{Role: "user", Content: prompt}},
		Temperature: 0.9,
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	var out response
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}

	c.log.Debug("text generated", zap.String("model", c.model), zap.Int("bytes", len(raw)))
	return out.Choices[0].Message.Content, nil
}
