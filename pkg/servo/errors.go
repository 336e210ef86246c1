package servo

import "errors"

var (
	// ErrUnknownBackend is returned for an unrecognized backend name.
	ErrUnknownBackend = errors.New("unknown servo backend")
)
