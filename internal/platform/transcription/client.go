// Package transcription wraps a speech-to-text provider used to reduce
// visit audio into a text source before aggregation.
package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Segment is a time-aligned slice of the transcript.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is a provider result.
type Transcript struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
}

// Config holds provider connection settings.
type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// Client calls the transcription provider.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a transcription client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

// Transcribe submits raw audio and returns the transcript. The audio format
// is whatever the provider accepts; this client does not transcode.
func (c *Client) Transcribe(ctx context.Context, audio []byte, contentType string) (*Transcript, error) {
	if c.cfg.URL == "" {
		return nil, fmt.Errorf("transcription provider not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(audio))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call transcription provider: %w", err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transcription provider returned status %d", resp.StatusCode)
	}

	var out Transcript
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}
	return &out, nil
}
