package codec

import "errors"

var (
	// ErrUnknownBackend is returned for an unrecognized backend name.
	ErrUnknownBackend = errors.New("unknown codec backend")
)
