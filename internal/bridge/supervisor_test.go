package bridge

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pointerlabs/pointer/internal/events"
)

// mockBackend is a websocket server standing in for the local backend.
type mockBackend struct {
	server   *httptest.Server
	upgrader websocket.Upgrader
	conns    chan *websocket.Conn
	attempts atomic.Int32
	refuse   atomic.Bool

	mu     sync.Mutex
	opened []*websocket.Conn
}

func newMockBackend() *mockBackend {
	b := &mockBackend{conns: make(chan *websocket.Conn, 8)}

	b.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.attempts.Add(1)
		if b.refuse.Load() {
			http.Error(w, "backend not ready", http.StatusServiceUnavailable)
			return
		}

		conn, err := b.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		b.mu.Lock()
		b.opened = append(b.opened, conn)
		b.mu.Unlock()
		b.conns <- conn

		// Drain the client (pings etc.) until the session dies.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))

	return b
}

func (b *mockBackend) url() string {
	return "ws" + strings.TrimPrefix(b.server.URL, "http")
}

func (b *mockBackend) close() {
	b.mu.Lock()
	for _, c := range b.opened {
		c.Close()
	}
	b.mu.Unlock()
	b.server.Close()
}

// fastBackoff keeps reconnect tests quick.
func fastBackoff() *Backoff {
	return &Backoff{Initial: 10 * time.Millisecond, Max: 40 * time.Millisecond, Multiplier: 2}
}

// stateSink funnels connection-state events into a channel.
func stateSink(t *testing.T) (events.Sink, chan bool) {
	t.Helper()

	states := make(chan bool, 32)
	sink := events.SinkFunc(func(name string, payload any) {
		if name != events.ConnectionState {
			t.Errorf("unexpected event %q from supervisor", name)
			return
		}
		states <- payload.(connectionPayload).Connected
	})
	return sink, states
}

func waitState(t *testing.T, states chan bool, want bool) {
	t.Helper()

	for {
		select {
		case got := <-states:
			if got == want {
				return
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timeout waiting for connected=%v", want)
		}
	}
}

type nopHandler struct{}

func (nopHandler) Route([]byte) {}

func TestSupervisorConnectAndReconnect(t *testing.T) {
	backend := newMockBackend()
	defer backend.close()

	sink, states := stateSink(t)
	sup := NewSupervisor(backend.url(), nopHandler{}, sink, WithBackoff(fastBackoff()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sup.Run(ctx)

	waitState(t, states, true)

	// Server-side close ends the session; the supervisor must report
	// the loss and dial again.
	conn := <-backend.conns
	conn.Close()

	waitState(t, states, false)
	waitState(t, states, true)
}

func TestSupervisorRetriesFailedDials(t *testing.T) {
	backend := newMockBackend()
	defer backend.close()
	backend.refuse.Store(true)

	sink, states := stateSink(t)
	sup := NewSupervisor(backend.url(), nopHandler{}, sink, WithBackoff(fastBackoff()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sup.Run(ctx)

	// Every failed dial surfaces as a disconnected notification.
	waitState(t, states, false)
	waitState(t, states, false)

	// Once the backend comes up, the same loop connects.
	backend.refuse.Store(false)
	waitState(t, states, true)

	if got := backend.attempts.Load(); got < 2 {
		t.Errorf("dial attempts = %d, want at least 2", got)
	}
}

func TestSupervisorRoutesInboundFrames(t *testing.T) {
	backend := newMockBackend()
	defer backend.close()

	frames := make(chan []byte, 1)
	handler := frameFunc(func(frame []byte) { frames <- frame })

	sink, states := stateSink(t)
	sup := NewSupervisor(backend.url(), handler, sink, WithBackoff(fastBackoff()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sup.Run(ctx)

	waitState(t, states, true)
	conn := <-backend.conns

	msg := `{"type":"hotkey-pressed","data":{"position":{"x":1,"y":2}}}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case frame := <-frames:
		if string(frame) != msg {
			t.Errorf("frame = %s, want %s", frame, msg)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for routed frame")
	}
}

func TestSupervisorStopsOnCancel(t *testing.T) {
	backend := newMockBackend()
	defer backend.close()

	sink, states := stateSink(t)
	sup := NewSupervisor(backend.url(), nopHandler{}, sink, WithBackoff(fastBackoff()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	waitState(t, states, true)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("supervisor did not stop on cancel")
	}
}

// frameFunc adapts a function to FrameHandler.
type frameFunc func([]byte)

func (fn frameFunc) Route(frame []byte) { fn(frame) }
