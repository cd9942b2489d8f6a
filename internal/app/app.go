// Package app wires the assistant core: the backend bridge, the chat
// relay, the memory client, and the shared session. The desktop shell
// (tray, windows, webviews) sits on top and talks to the core through
// App methods and the event sink; the core never touches presentation.
package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/pointerlabs/pointer/internal/ai"
	"github.com/pointerlabs/pointer/internal/bridge"
	"github.com/pointerlabs/pointer/internal/config"
	"github.com/pointerlabs/pointer/internal/events"
	"github.com/pointerlabs/pointer/internal/memory"
	"github.com/pointerlabs/pointer/internal/session"
)

// ShowOverlayFunc creates the overlay window at a screen position.
// Installed by the desktop shell; nil in headless mode.
type ShowOverlayFunc func(x, y float64, context json.RawMessage) error

// App is the assistant core. One instance per process.
type App struct {
	sink    events.Sink
	session *session.Session
	logger  *slog.Logger

	mu          sync.RWMutex
	settings    config.Settings
	showOverlay ShowOverlayFunc
}

// New creates the core with the given settings and event sink.
func New(settings config.Settings, sink events.Sink) *App {
	return &App{
		sink:     sink,
		session:  session.New(),
		settings: settings,
		logger:   slog.Default().With("component", "app"),
	}
}

// Session returns the shared session object.
func (a *App) Session() *session.Session {
	return a.session
}

// SetShowOverlay installs the shell's overlay window creator.
func (a *App) SetShowOverlay(fn ShowOverlayFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.showOverlay = fn
}

// UpdateSettings swaps in new settings. In-flight calls keep the
// snapshot they started with; new calls pick up the change.
func (a *App) UpdateSettings(s config.Settings) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.settings = s
}

func (a *App) snapshot() config.Settings {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.settings
}

// Run starts the backend bridge and the settings watcher and blocks
// until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	go func() {
		if err := config.Watch(ctx, a.UpdateSettings); err != nil {
			a.logger.Warn("settings watcher stopped", "error", err)
		}
	}()

	router := bridge.NewRouter(a)
	supervisor := bridge.NewSupervisor(a.snapshot().BackendURL, router, a.sink)
	return supervisor.Run(ctx)
}

// ShowOverlay implements bridge.UIActions: it stores the capture
// context on the session (the overlay fetches it after creation) and
// hands window placement to the shell.
func (a *App) ShowOverlay(x, y float64, context json.RawMessage) error {
	a.session.SetOverlayContext(context)

	a.mu.RLock()
	show := a.showOverlay
	a.mu.RUnlock()

	if show == nil {
		a.logger.Info("overlay requested (headless)", "x", x, "y", y)
		return nil
	}
	return show(x, y, context)
}

// StreamChat relays a chat request to the inference service, emitting
// token/done/error events to the sink. It blocks until the terminal
// event; the shell calls it from its own goroutine per request.
func (a *App) StreamChat(ctx context.Context, messages []ai.Message, system string) {
	s := a.snapshot()
	relay := ai.NewRelay(s.Endpoint, s.APIToken)
	relay.RelayTo(ctx, &ai.ChatRequest{Messages: messages, System: system}, a.sink)
}

// IngestMemory pushes text into the remote memory store.
func (a *App) IngestMemory(ctx context.Context, text string, metadata json.RawMessage) (json.RawMessage, error) {
	s := a.snapshot()
	client := memory.NewClient(s.Endpoint, s.APIToken, memory.WithTopK(s.RAGTopK))
	return client.Ingest(ctx, text, metadata)
}

// SearchMemory queries the remote memory store. topK <= 0 uses the
// configured default.
func (a *App) SearchMemory(ctx context.Context, query string, topK int) ([]memory.Match, error) {
	s := a.snapshot()
	client := memory.NewClient(s.Endpoint, s.APIToken, memory.WithTopK(s.RAGTopK))
	return client.Search(ctx, query, topK)
}
