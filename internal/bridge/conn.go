package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Interval between liveness probes on an established session.
	keepaliveInterval = 30 * time.Second

	// Maximum message size allowed from the backend.
	maxMessageSize = 32768 // 32KB
)

// FrameHandler consumes inbound text frames from a live connection.
// *Router implements it.
type FrameHandler interface {
	Route(frame []byte)
}

// Conn is one established duplex session with the backend. It owns a
// read loop and a keepalive loop; whichever ends first tears the whole
// session down. The supervisor replaces the Conn on every reconnect,
// so nothing else may hold a reference across that boundary.
type Conn struct {
	ws      *websocket.Conn
	handler FrameHandler
	logger  *slog.Logger

	// serializes writes; keepalive pings and any future outbound
	// frames share the socket.
	writeMu sync.Mutex
}

func newConn(ws *websocket.Conn, handler FrameHandler, logger *slog.Logger) *Conn {
	return &Conn{ws: ws, handler: handler, logger: logger}
}

// run blocks until the session ends and returns the reason. The socket
// is closed on the way out, which also unblocks the read loop when the
// keepalive side fails first.
func (c *Conn) run(ctx context.Context) error {
	defer c.ws.Close()

	readDone := make(chan error, 1)
	go func() { readDone <- c.readLoop() }()

	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-readDone:
			return err

		case <-ticker.C:
			if err := c.ping(); err != nil {
				return fmt.Errorf("keepalive: %w", err)
			}
		}
	}
}

// readLoop decodes inbound frames until the transport errors or closes.
// Text frames go to the handler; anything else (pongs, binary) is
// ignored. Frames the handler can't make sense of are its problem;
// the loop only ends on transport-level failure.
func (c *Conn) readLoop() error {
	c.ws.SetReadLimit(maxMessageSize)

	for {
		msgType, msg, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return fmt.Errorf("read: %w", err)
			}
			return fmt.Errorf("connection closed: %w", err)
		}

		if msgType == websocket.TextMessage {
			c.handler.Route(msg)
		}
	}
}

func (c *Conn) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.PingMessage, nil)
}
