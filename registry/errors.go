package registry

import "errors"

var (
	// ErrUnknownFile indicates the registry has no entry for a file ID.
	ErrUnknownFile = errors.New("registry: unknown file")
)
