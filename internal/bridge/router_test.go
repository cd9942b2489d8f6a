package bridge

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type overlayCall struct {
	x, y    float64
	context json.RawMessage
}

type uiRecorder struct {
	calls []overlayCall
	err   error
}

func (u *uiRecorder) ShowOverlay(x, y float64, context json.RawMessage) error {
	u.calls = append(u.calls, overlayCall{x: x, y: y, context: context})
	return u.err
}

func TestRouterDispatchesHotkey(t *testing.T) {
	ui := &uiRecorder{}
	r := NewRouter(ui)

	r.Route([]byte(`{"type":"hotkey-pressed","data":{"position":{"x":120.5,"y":300},"selected_text":"hello"}}`))

	require.Len(t, ui.calls, 1)
	assert.Equal(t, 120.5, ui.calls[0].x)
	assert.Equal(t, 300.0, ui.calls[0].y)

	// The whole data object travels with the action as opaque context.
	var ctx map[string]any
	require.NoError(t, json.Unmarshal(ui.calls[0].context, &ctx))
	assert.Equal(t, "hello", ctx["selected_text"])
}

func TestRouterNoDedup(t *testing.T) {
	ui := &uiRecorder{}
	r := NewRouter(ui)

	frame := []byte(`{"type":"hotkey-pressed","data":{"position":{"x":1,"y":2}}}`)
	r.Route(frame)
	r.Route(frame)

	assert.Len(t, ui.calls, 2, "identical messages each trigger a new action")
}

func TestRouterDropsBadFrames(t *testing.T) {
	cases := []struct {
		name  string
		frame string
	}{
		{"unknown type", `{"type":"unknown","data":{}}`},
		{"not json", `not json at all`},
		{"missing position", `{"type":"hotkey-pressed","data":{}}`},
		{"missing x", `{"type":"hotkey-pressed","data":{"position":{"y":10}}}`},
		{"missing y", `{"type":"hotkey-pressed","data":{"position":{"x":10}}}`},
		{"non-numeric x", `{"type":"hotkey-pressed","data":{"position":{"x":"ten","y":10}}}`},
		{"data not object", `{"type":"hotkey-pressed","data":42}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ui := &uiRecorder{}
			r := NewRouter(ui)

			// Must neither panic nor invoke the UI action.
			r.Route([]byte(tc.frame))
			assert.Empty(t, ui.calls)
		})
	}
}

func TestRouterSurvivesUIError(t *testing.T) {
	ui := &uiRecorder{err: errors.New("window creation failed")}
	r := NewRouter(ui)

	r.Route([]byte(`{"type":"hotkey-pressed","data":{"position":{"x":1,"y":2}}}`))
	r.Route([]byte(`{"type":"hotkey-pressed","data":{"position":{"x":3,"y":4}}}`))

	assert.Len(t, ui.calls, 2, "a failing UI action must not wedge the router")
}
