// Package events defines the sink abstraction the core uses to deliver
// named events to the presentation layer. The desktop shell installs a
// sink that forwards to the webview; headless mode installs a logger.
package events

import "sync"

// Event names emitted by the core.
const (
	ConnectionState = "connection-state"
	Token           = "token"
	Done            = "done"
	Error           = "error"
)

// Sink receives named events with a payload. Implementations must be
// safe for concurrent use: the bridge supervisor, the control router,
// and any number of in-flight relay calls emit without coordination.
// Ordering is only guaranteed within a single relay invocation and
// within a single connection's state notifications.
type Sink interface {
	Emit(name string, payload any)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(name string, payload any)

// Emit calls fn(name, payload).
func (fn SinkFunc) Emit(name string, payload any) {
	fn(name, payload)
}

// Multi fans out every event to all member sinks in order.
type Multi struct {
	mu    sync.RWMutex
	sinks []Sink
}

// NewMulti creates a fan-out sink over the given members.
func NewMulti(sinks ...Sink) *Multi {
	return &Multi{sinks: sinks}
}

// Add registers another member sink.
func (m *Multi) Add(s Sink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sinks = append(m.sinks, s)
}

// Emit delivers the event to every member.
func (m *Multi) Emit(name string, payload any) {
	m.mu.RLock()
	sinks := m.sinks
	m.mu.RUnlock()

	for _, s := range sinks {
		s.Emit(name, payload)
	}
}
