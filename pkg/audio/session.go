// Package audio streams the fixed announcement file from the storage
// volume to the codec sink.
//
// Playback is a session state machine advanced one chunk per control-loop
// tick. The player never sleeps and never blocks on more than a single
// chunk write, so motion commands stay live while audio plays.
package audio

import (
	"time"

	"github.com/google/uuid"
)

// State is the playback session state.
type State int

const (
	// StateIdle means no session is active.
	StateIdle State = iota
	// StateOpening means the file is being located and opened.
	StateOpening
	// StateStreaming means chunks are being delivered to the codec.
	StateStreaming
	// StateCompleted means the last session delivered the whole file.
	StateCompleted
	// StateFailed means the last session ended with an error.
	StateFailed
)

// String returns the state name for logs and status reports.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOpening:
		return "opening"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Active reports whether the state is a live one.
func (s State) Active() bool {
	return s == StateOpening || s == StateStreaming
}

// Session describes one playback attempt.
type Session struct {
	ID      uuid.UUID
	File    string
	State   State
	Total   int64
	Sent    int64
	Cause   error
	Started time.Time
}

// Progress returns delivered progress as an integer percentage.
func (s Session) Progress() int {
	if s.Total <= 0 {
		if s.State == StateCompleted {
			return 100
		}
		return 0
	}
	return int(s.Sent * 100 / s.Total)
}
