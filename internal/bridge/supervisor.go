// Package bridge maintains the persistent websocket session to the
// local backend: one supervisor owns a reconnect loop with exponential
// backoff, and each live connection runs a read loop plus a keepalive
// loop. Inbound control messages are decoded once at the boundary and
// dispatched to the UI layer.
package bridge

import (
	"context"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pointerlabs/pointer/internal/events"
)

// connectionPayload is the payload of connection-state events.
type connectionPayload struct {
	Connected bool `json:"connected"`
}

// Supervisor owns the reconnect loop around backend connections. It
// holds exactly one Conn at a time and reports connectivity through
// the event sink. No failure is fatal to the supervisor itself; it
// retries until its context is cancelled.
type Supervisor struct {
	url     string
	handler FrameHandler
	sink    events.Sink
	backoff *Backoff
	dialer  *websocket.Dialer
	logger  *slog.Logger
}

// SupervisorOption configures a Supervisor.
type SupervisorOption func(*Supervisor)

// WithBackoff overrides the default 2s/30s/x2 reconnect policy.
func WithBackoff(b *Backoff) SupervisorOption {
	return func(s *Supervisor) { s.backoff = b }
}

// WithDialer overrides the websocket dialer.
func WithDialer(d *websocket.Dialer) SupervisorOption {
	return func(s *Supervisor) { s.dialer = d }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) SupervisorOption {
	return func(s *Supervisor) { s.logger = l }
}

// NewSupervisor creates a supervisor for the backend at url
// (e.g. ws://127.0.0.1:8765/ws).
func NewSupervisor(url string, handler FrameHandler, sink events.Sink, opts ...SupervisorOption) *Supervisor {
	s := &Supervisor{
		url:     url,
		handler: handler,
		sink:    sink,
		backoff: NewBackoff(),
		dialer:  websocket.DefaultDialer,
		logger:  slog.Default().With("component", "bridge"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run drives the bridge until ctx is cancelled: dial, run the session
// to completion, report the loss, back off, retry. Connect failures
// and mid-session losses take the identical path. Returns the context
// error on shutdown; never returns otherwise.
func (s *Supervisor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		ws, resp, err := s.dialer.DialContext(ctx, s.url, nil)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err != nil {
			s.sink.Emit(events.ConnectionState, connectionPayload{Connected: false})
			s.logger.Warn("backend connect failed", "url", s.url, "error", err)
		} else {
			s.logger.Info("backend connected", "url", s.url)
			s.backoff.Reset()
			s.sink.Emit(events.ConnectionState, connectionPayload{Connected: true})

			runErr := newConn(ws, s.handler, s.logger).run(ctx)

			s.sink.Emit(events.ConnectionState, connectionPayload{Connected: false})
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn("backend connection lost", "error", runErr)
		}

		delay := s.backoff.Next()
		s.logger.Info("reconnecting", "delay", delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}
