package events

import "time"

// Event enumerates topics inside the editor gateway.
type Event string

const (
	EventEditorConnected    Event = "editor.connected"
	EventEditorDisconnected Event = "editor.disconnected"
	EventValidationRequest  Event = "validation.requested"
	EventValidationResult   Event = "validation.result"
	EventValidationStale    Event = "validation.stale"
)

// Validation describes one backend validation of a condition field.
type Validation struct {
	ConnID string
	Field  string
	Seq    uint64
	State  string        // result events only
	Failed bool          // transport or server failure
	Took   time.Duration // result events only
}

// Connection describes an editor WebSocket session.
type Connection struct {
	ConnID string
	User   string
}
