package motion

import "errors"

var (
	// ErrUnknownChannel is returned for a channel name not in the table.
	ErrUnknownChannel = errors.New("unknown channel")
)
