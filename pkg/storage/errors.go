package storage

import "errors"

var (
	// ErrUnavailable is returned while the volume's unavailable latch is set.
	ErrUnavailable = errors.New("storage unavailable")
)
