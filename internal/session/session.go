// Package session holds the per-run UI state the shell shares between
// the bridge, the relay, and the presentation layer: the capture
// context behind the current overlay and the last response shown. One
// Session is owned by the application core and passed by reference to
// handlers; there is no process-wide state.
package session

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// CaptureContext is what the backend captured when the hotkey fired.
type CaptureContext struct {
	SelectedText   string `json:"selected_text"`
	HasScreenshot  bool   `json:"has_screenshot"`
	HasSelection   bool   `json:"has_selection"`
	IsTextField    bool   `json:"is_text_field"`
	FocusedElement string `json:"focused_element"`
}

// Response is the payload behind the response window.
type Response struct {
	Response      string          `json:"response"`
	OriginalQuery string          `json:"original_query,omitempty"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
}

// Session is safe for concurrent use.
type Session struct {
	id string

	mu             sync.RWMutex
	overlayContext json.RawMessage
	lastResponse   *Response
}

// New creates an empty session.
func New() *Session {
	return &Session{id: uuid.NewString()}
}

// ID returns the session's unique id.
func (s *Session) ID() string {
	return s.id
}

// SetOverlayContext stores the context for the overlay being shown.
func (s *Session) SetOverlayContext(ctx json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overlayContext = ctx
}

// OverlayContext returns the stored overlay context, if any.
func (s *Session) OverlayContext() (json.RawMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.overlayContext, s.overlayContext != nil
}

// CaptureContext decodes the stored overlay context into its schema.
func (s *Session) CaptureContext() (CaptureContext, bool) {
	raw, ok := s.OverlayContext()
	if !ok {
		return CaptureContext{}, false
	}
	var cc CaptureContext
	if err := json.Unmarshal(raw, &cc); err != nil {
		return CaptureContext{}, false
	}
	return cc, true
}

// ClearOverlayContext drops the stored overlay context.
func (s *Session) ClearOverlayContext() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overlayContext = nil
}

// SetResponse stores the response for the response window.
func (s *Session) SetResponse(r Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastResponse = &r
}

// Response returns the stored response, if any.
func (s *Session) Response() (Response, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastResponse == nil {
		return Response{}, false
	}
	return *s.lastResponse, true
}

// ClearResponse drops the stored response. Called when the response
// window closes.
func (s *Session) ClearResponse() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastResponse = nil
}
