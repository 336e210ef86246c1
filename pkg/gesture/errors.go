package gesture

import "errors"

var (
	// ErrBusy is returned when starting a gesture while one is running.
	ErrBusy = errors.New("gesture already running")

	// ErrNotFound is returned when a gesture name is not in the registry.
	ErrNotFound = errors.New("gesture not found")

	// ErrEmptyGesture is returned for a gesture with no steps.
	ErrEmptyGesture = errors.New("gesture has no steps")
)
