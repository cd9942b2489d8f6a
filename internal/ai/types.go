package ai

// StreamEventType defines the type of streaming event.
type StreamEventType string

const (
	EventTypeToken StreamEventType = "token"
	EventTypeDone  StreamEventType = "done"
	EventTypeError StreamEventType = "error"
)

// StreamEvent is one event from a chat relay invocation. A stream
// carries zero or more Token events followed by exactly one terminal
// event (Done or Error), which is always last.
type StreamEvent struct {
	Type  StreamEventType
	Token string // set for EventTypeToken
	Err   error  // set for EventTypeError
}

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of a chat call to the inference service.
type ChatRequest struct {
	Messages []Message `json:"messages"`
	System   string    `json:"system,omitempty"`
}
