package bridge

import (
	"encoding/json"
	"log/slog"
)

// Control message types sent by the backend. Only hotkey-pressed maps
// to a UI action; everything else is dropped without error.
const (
	MsgHotkeyPressed = "hotkey-pressed"
)

// ControlMessage is the wire shape of a backend → shell notification.
type ControlMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// hotkeyPayload is the decoded body of a hotkey-pressed message.
// Coordinates are pointers so a missing field is distinguishable from
// zero; both are required for the overlay to be placed.
type hotkeyPayload struct {
	Position struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
	} `json:"position"`
}

// UIActions is the presentation-layer collaborator the router invokes.
// The desktop shell implements it with real window creation; tests and
// headless mode install stubs. Calls may repeat for identical messages;
// implementations must tolerate duplicates.
type UIActions interface {
	// ShowOverlay places the quick-action overlay at screen position
	// (x, y). context is the backend's opaque capture context (selected
	// text, focused element, ...) passed through to the overlay.
	ShowOverlay(x, y float64, context json.RawMessage) error
}

// Router decodes inbound control frames and dispatches recognized
// messages to the UI layer. Malformed frames and unknown types are not
// errors; the bridge keeps running regardless of what the backend sends.
type Router struct {
	ui     UIActions
	logger *slog.Logger
}

// NewRouter creates a router that drives the given UI collaborator.
func NewRouter(ui UIActions) *Router {
	return &Router{
		ui:     ui,
		logger: slog.Default().With("component", "bridge-router"),
	}
}

// Route handles one raw text frame from the backend connection.
func (r *Router) Route(frame []byte) {
	var msg ControlMessage
	if err := json.Unmarshal(frame, &msg); err != nil {
		r.logger.Debug("dropping unparseable frame", "error", err)
		return
	}

	switch msg.Type {
	case MsgHotkeyPressed:
		r.handleHotkey(msg.Data)
	default:
		r.logger.Debug("ignoring control message", "type", msg.Type)
	}
}

func (r *Router) handleHotkey(data json.RawMessage) {
	var p hotkeyPayload
	if err := json.Unmarshal(data, &p); err != nil {
		r.logger.Debug("dropping hotkey message", "error", err)
		return
	}
	if p.Position.X == nil || p.Position.Y == nil {
		// No partial action without a full screen position.
		r.logger.Debug("dropping hotkey message without position")
		return
	}

	if err := r.ui.ShowOverlay(*p.Position.X, *p.Position.Y, data); err != nil {
		r.logger.Error("show overlay failed", "error", err)
	}
}
