package keyauth

import "errors"

var (
	// ErrAccessDenied indicates the caller may not obtain the requested key.
	// The decision is authoritative; callers must not retry.
	ErrAccessDenied = errors.New("keyauth: access denied")

	// ErrUnavailable indicates the authority could not be reached or failed.
	ErrUnavailable = errors.New("keyauth: authority unavailable")

	// ErrInvalidTransportKey indicates the supplied transport public key is malformed.
	ErrInvalidTransportKey = errors.New("keyauth: invalid transport public key")
)
