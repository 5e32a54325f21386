package transport

import "errors"

var (
	// ErrInvalidPublicKey indicates the transport public key cannot be parsed.
	ErrInvalidPublicKey = errors.New("transport: invalid public key")

	// ErrKeyZeroized indicates the key pair has already been wiped.
	ErrKeyZeroized = errors.New("transport: key pair already zeroized")

	// ErrInvalidWrapped indicates the wrapped key is too short or malformed.
	// Minimum length: 33 (ephemeral key) + 12 (nonce) + 16 (GCM tag) = 61 bytes.
	ErrInvalidWrapped = errors.New("transport: invalid wrapped key")

	// ErrUnwrapFailed indicates AES-GCM authentication failed while unwrapping.
	ErrUnwrapFailed = errors.New("transport: unwrap failed")

	// ErrHKDFFailure indicates HKDF key derivation failed.
	ErrHKDFFailure = errors.New("transport: HKDF key derivation failed")
)
