package vault

import "errors"

var (
	// ErrNoIdentity indicates neither an identity nor a token was configured.
	ErrNoIdentity = errors.New("vault: no identity configured")

	// ErrNotAFile indicates an upload path names a directory or device.
	ErrNotAFile = errors.New("vault: not a regular file")
)
