// Package ocr wraps an optical-character-recognition provider used to
// reduce scanned documents and photos into text sources.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Result is a provider result. Confidence ranges 0..1 and travels with the
// source into the aggregated corpus.
type Result struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Config holds provider connection settings.
type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// Client calls the OCR provider.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates an OCR client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

// Recognize submits image bytes and returns the recognized text.
func (c *Client) Recognize(ctx context.Context, image []byte, contentType string) (*Result, error) {
	if c.cfg.URL == "" {
		return nil, fmt.Errorf("ocr provider not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call ocr provider: %w", err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ocr provider returned status %d", resp.StatusCode)
	}

	var out Result
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode ocr result: %w", err)
	}
	if out.Confidence < 0 || out.Confidence > 1 {
		return nil, fmt.Errorf("ocr confidence %v out of range", out.Confidence)
	}
	return &out, nil
}
