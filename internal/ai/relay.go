// Package ai streams chat completions from the remote inference
// service. The response body is a line-oriented event stream: payload
// lines carry a "data: " prefix, tokens arrive as JSON objects with a
// "response" field, and the literal [DONE] sentinel ends the stream.
package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pointerlabs/pointer/internal/events"
)

const (
	ssePrefix    = "data: "
	doneSentinel = "[DONE]"

	requestTimeout = 60 * time.Second
)

// Relay issues one-shot streaming chat requests. It holds no state
// across calls; each invocation owns its request lifecycle completely.
// Failures are never retried internally; retry is the caller's call.
type Relay struct {
	endpoint string
	token    string
	client   *http.Client
	logger   *slog.Logger
}

// RelayOption configures a Relay.
type RelayOption func(*Relay)

// WithHTTPClient overrides the default 60s-timeout client.
func WithHTTPClient(c *http.Client) RelayOption {
	return func(r *Relay) { r.client = c }
}

// NewRelay creates a relay for the service at endpoint, authenticating
// with the given bearer token. A trailing slash on endpoint is fine.
func NewRelay(endpoint, token string, opts ...RelayOption) *Relay {
	r := &Relay{
		endpoint: strings.TrimRight(endpoint, "/"),
		token:    token,
		client:   &http.Client{Timeout: requestTimeout},
		logger:   slog.Default().With("component", "chat-relay"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Stream sends the chat request and returns a channel of events,
// closed after the terminal event. The channel carries Token events in
// stream order followed by exactly one Done or Error, always last.
func (r *Relay) Stream(ctx context.Context, req *ChatRequest) <-chan StreamEvent {
	ch := make(chan StreamEvent, 64)

	go func() {
		defer close(ch)
		r.stream(ctx, req, ch)
	}()

	return ch
}

func (r *Relay) stream(ctx context.Context, req *ChatRequest, ch chan<- StreamEvent) {
	logger := r.logger.With("relay_id", uuid.NewString())

	body, err := json.Marshal(req)
	if err != nil {
		ch <- StreamEvent{Type: EventTypeError, Err: fmt.Errorf("marshal request: %w", err)}
		return
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint+"/api/chat", bytes.NewReader(body))
	if err != nil {
		ch <- StreamEvent{Type: EventTypeError, Err: fmt.Errorf("create request: %w", err)}
		return
	}
	httpReq.Header.Set("Authorization", "Bearer "+r.token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		logger.Warn("chat request failed", "error", err)
		ch <- StreamEvent{Type: EventTypeError, Err: fmt.Errorf("chat request failed: %w", err)}
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Body read is best-effort; an empty string still names the status.
		b, _ := io.ReadAll(resp.Body)
		logger.Warn("chat request rejected", "status", resp.StatusCode)
		ch <- StreamEvent{Type: EventTypeError, Err: fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(b))}
		return
	}

	// tokenLine is a payload line of the stream. The field is a pointer
	// so an absent "response" is distinguishable from an empty token.
	type tokenLine struct {
		Response *string `json:"response"`
	}

	// The scanner carries partial lines across reads, so the parse is
	// independent of how the transport fragments the body.
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	tokens := 0
	for scanner.Scan() {
		data, ok := strings.CutPrefix(scanner.Text(), ssePrefix)
		if !ok {
			continue
		}

		if strings.TrimSpace(data) == doneSentinel {
			// Sentinel short-circuits the whole call; anything still
			// buffered or in flight is discarded.
			logger.Debug("stream complete", "tokens", tokens)
			ch <- StreamEvent{Type: EventTypeDone}
			return
		}

		var line tokenLine
		if err := json.Unmarshal([]byte(data), &line); err != nil || line.Response == nil {
			continue
		}
		tokens++
		ch <- StreamEvent{Type: EventTypeToken, Token: *line.Response}
	}

	if err := scanner.Err(); err != nil {
		// Tokens already emitted stand; the failure is the terminal event.
		logger.Warn("stream read error", "error", err, "tokens", tokens)
		ch <- StreamEvent{Type: EventTypeError, Err: fmt.Errorf("stream read error: %w", err)}
		return
	}

	// Stream ended without the sentinel; still a clean completion.
	logger.Debug("stream ended without sentinel", "tokens", tokens)
	ch <- StreamEvent{Type: EventTypeDone}
}

// TokenPayload is the payload of token events.
type TokenPayload struct {
	Token string `json:"token"`
}

// ErrorPayload is the payload of error events.
type ErrorPayload struct {
	Message string `json:"message"`
}

// RelayTo streams the request and forwards every event to the sink as
// token/done/error UI events. It returns after the terminal event.
func (r *Relay) RelayTo(ctx context.Context, req *ChatRequest, sink events.Sink) {
	for ev := range r.Stream(ctx, req) {
		switch ev.Type {
		case EventTypeToken:
			sink.Emit(events.Token, TokenPayload{Token: ev.Token})
		case EventTypeDone:
			sink.Emit(events.Done, struct{}{})
		case EventTypeError:
			sink.Emit(events.Error, ErrorPayload{Message: ev.Err.Error()})
		}
	}
}
