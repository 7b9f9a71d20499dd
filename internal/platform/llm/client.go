// Package llm wraps an OpenAI-compatible chat-completions endpoint as the
// text-to-structure capability behind the extraction engine.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// ConfigurationError means the capability cannot be called at all because a
// required setting is absent. Raised at first use, not at startup, so the
// rest of the server can run without extraction credentials.
type ConfigurationError struct {
	Setting string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("llm client not configured: %s is not set", e.Setting)
}

// Config holds the capability connection settings.
type Config struct {
	Endpoint    string
	APIKey      string
	Model       string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
}

// Client calls a chat-completions API in JSON-object response mode.
type Client struct {
	cfg    Config
	http   *http.Client
	logger zerolog.Logger
}

// NewClient creates a capability client. Missing settings are reported on
// first call, not here.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger.With().Str("component", "llm_client").Logger(),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	MaxTokens      int            `json:"max_tokens,omitempty"`
	ResponseFormat responseFormat `json:"response_format"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends the system and user messages and returns the raw model
// output. The schema is appended to the system message so the capability is
// biased toward well-formed output; enforcement stays with the validator.
func (c *Client) Complete(ctx context.Context, system, user string, responseSchema json.RawMessage) (json.RawMessage, error) {
	if c.cfg.Endpoint == "" {
		return nil, &ConfigurationError{Setting: "LLM_ENDPOINT"}
	}
	if c.cfg.APIKey == "" {
		return nil, &ConfigurationError{Setting: "LLM_API_KEY"}
	}
	if c.cfg.Model == "" {
		return nil, &ConfigurationError{Setting: "LLM_MODEL"}
	}

	if len(responseSchema) > 0 {
		system = system + "\n\nThe output must conform to this JSON Schema:\n" + string(responseSchema)
	}

	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature:    c.cfg.Temperature,
		MaxTokens:      c.cfg.MaxTokens,
		ResponseFormat: responseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call capability: %w", err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug().
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("capability call finished")

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("capability returned status %d: %s", resp.StatusCode, truncate(payload, 300))
	}

	var parsed chatResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("capability error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("capability returned no choices")
	}
	return json.RawMessage(parsed.Choices[0].Message.Content), nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
