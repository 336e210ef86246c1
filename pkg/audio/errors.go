package audio

import "errors"

var (
	// ErrBusy is returned when starting a session while one is live.
	ErrBusy = errors.New("playback already active")
)
