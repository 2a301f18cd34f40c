// Package annotator implements the VibeAnnotator boundary against a
// Gemini-style generateContent HTTP API.
package annotator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/auraplay/auraplay/internal/ports"
)

const requestTimeout = 15 * time.Second

// Client calls the generative-language API for one-sentence vibe lines.
// Purely advisory: any failure, including a missing API key, resolves to
// the fallback sentence instead of an error. Only a context error
// propagates, so callers can tell a cancelled lookup from a degraded one.
type Client struct {
	logger     *slog.Logger
	baseURL    string
	apiKey     string
	model      string
	fallback   string
	httpClient *http.Client
}

// NewClient creates a vibe annotator client. An empty apiKey disables
// lookups; Annotate then always returns the fallback.
func NewClient(logger *slog.Logger, baseURL, apiKey, model, fallback string) *Client {
	return &Client{
		logger:   logger,
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		model:    model,
		fallback: fallback,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// generateRequest is the generateContent request body.
type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// generateResponse is the subset of the generateContent response we read.
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Annotate produces a short descriptive sentence for a track.
func (c *Client) Annotate(ctx context.Context, title, artist string) (string, error) {
	if c.apiKey == "" {
		return c.fallback, nil
	}

	prompt := fmt.Sprintf(
		"Describe the vibe of the song %q by %s in a single, short, poetic sentence. Focus on the mood and feeling.",
		title, artist)

	text, err := c.generate(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		c.logger.Warn("vibe lookup failed",
			slog.String("title", title),
			slog.Any("error", err))
		return c.fallback, nil
	}
	if text == "" {
		return c.fallback, nil
	}
	return text, nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	body := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("generate status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response")
	}
	return strings.TrimSpace(result.Candidates[0].Content.Parts[0].Text), nil
}

// Verify that Client implements the VibeAnnotator interface.
var _ ports.VibeAnnotator = (*Client)(nil)
