// Package hub provides a websocket broadcast hub using the channel
// based fan-out pattern, carrying the diagnostic stream to observers.
package hub

import (
	"encoding/json"
	"time"
)

// Message is one frame queued for delivery. All frames go out as
// websocket text messages.
type Message struct {
	Data []byte
}

// Event types carried on the diagnostic stream.
const (
	// EventDiag carries one protocol line exactly as the device
	// emitted it on the link.
	EventDiag = "diag"
	// EventStatus carries a device status snapshot.
	EventStatus = "status"
)

// Event is one diagnostic stream frame.
type Event struct {
	Type   string          `json:"type"`
	Line   string          `json:"line,omitempty"`
	Status json.RawMessage `json:"status,omitempty"`
	At     time.Time       `json:"at"`
}

// DiagEvent wraps a protocol line as a stream frame.
func DiagEvent(line string, at time.Time) Event {
	return Event{Type: EventDiag, Line: line, At: at}
}

// StatusEvent wraps an encoded status snapshot as a stream frame.
func StatusEvent(status json.RawMessage, at time.Time) Event {
	return Event{Type: EventStatus, Status: status, At: at}
}
