// Package memory talks to the memory endpoints of the inference
// service: ingest pushes text for chunking/embedding, search runs a
// top-K semantic query. Both are stateless request/response calls on
// the same transport the chat relay uses.
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Fallback top-K when neither the caller nor configuration supplies one.
const defaultTopK = 5

const requestTimeout = 60 * time.Second

// Match is one semantic search result. Order is as returned by the
// service; nothing is re-sorted locally.
type Match struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
	Text  string  `json:"text"`
}

// Client calls the memory API. Safe for concurrent use.
type Client struct {
	endpoint string
	token    string
	topK     int
	client   *http.Client
	logger   *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the default 60s-timeout client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(mc *Client) { mc.client = c }
}

// WithTopK sets the configured default result count for Search.
func WithTopK(k int) ClientOption {
	return func(mc *Client) { mc.topK = k }
}

// NewClient creates a memory client for the service at endpoint.
func NewClient(endpoint, token string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		token:    token,
		client:   &http.Client{Timeout: requestTimeout},
		logger:   slog.Default().With("component", "memory"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type ingestRequest struct {
	Text     string          `json:"text"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// Ingest pushes text (and optional metadata) to the service for
// embedding and storage. The response is passed through untouched.
// Any transport failure, non-success status, or malformed body is a
// hard failure with no partial result.
func (c *Client) Ingest(ctx context.Context, text string, metadata json.RawMessage) (json.RawMessage, error) {
	resp, err := c.post(ctx, "/api/memory/ingest", ingestRequest{Text: text, Metadata: metadata})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var out json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode ingest response: %w", err)
	}
	return out, nil
}

type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type searchResponse struct {
	Matches []json.RawMessage `json:"matches"`
}

// Search runs a semantic query and returns up to topK matches. Pass
// topK <= 0 to use the configured default (or 5 when unconfigured).
// Candidates missing their id are dropped individually; the rest of
// the list is returned in service order.
func (c *Client) Search(ctx context.Context, query string, topK int) ([]Match, error) {
	if topK <= 0 {
		topK = c.topK
	}
	if topK <= 0 {
		topK = defaultTopK
	}

	resp, err := c.post(ctx, "/api/memory/search", searchRequest{Query: query, TopK: topK})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	// candidate mirrors Match with a pointer id so an absent identifier
	// is detectable. Score and text fall back to zero values.
	type candidate struct {
		ID    *string `json:"id"`
		Score float64 `json:"score"`
		Text  string  `json:"text"`
	}

	matches := make([]Match, 0, len(result.Matches))
	for _, raw := range result.Matches {
		var cand candidate
		if err := json.Unmarshal(raw, &cand); err != nil || cand.ID == nil {
			c.logger.Debug("dropping match without id")
			continue
		}
		matches = append(matches, Match{ID: *cand.ID, Score: cand.Score, Text: cand.Text})
	}
	return matches, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}
