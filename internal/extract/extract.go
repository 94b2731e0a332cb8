// Package extract turns uploaded document bytes into paragraph text, either
// via a remote document-intelligence service or a local plain-text fallback.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPExtractor calls a remote extraction service. The service accepts the
// raw document bytes and responds with the extracted paragraphs in order.
type HTTPExtractor struct {
	url    string
	apiKey string
	client *http.Client
}

// NewHTTPExtractor creates an HTTPExtractor for the given service URL.
func NewHTTPExtractor(url, apiKey string) *HTTPExtractor {
	return &HTTPExtractor{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: 2 * time.Minute},
	}
}

type extractResponse struct {
	Paragraphs []string `json:"paragraphs"`
}

// Extract posts the document to the extraction service and returns its
// paragraphs.
func (e *HTTPExtractor) Extract(ctx context.Context, data []byte, mimeType string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to build extraction request: %w", err)
	}
	if mimeType != "" {
		req.Header.Set("Content-Type", mimeType)
	}
	if e.apiKey != "" {
		req.Header.Set("api-key", e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extraction request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("extraction service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode extraction response: %w", err)
	}
	return out.Paragraphs, nil
}

// PlainTextExtractor treats the upload as UTF-8 text and splits it into
// paragraphs on blank lines. Used when no extraction service is configured.
type PlainTextExtractor struct{}

// Extract splits the text on blank lines.
func (PlainTextExtractor) Extract(_ context.Context, data []byte, _ string) ([]string, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")

	var paragraphs []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs, nil
}
