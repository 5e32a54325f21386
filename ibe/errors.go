package ibe

import "errors"

var (
	// ErrInvalidSeed indicates the encryption seed is not SeedLen bytes.
	ErrInvalidSeed = errors.New("ibe: seed must be 32 bytes")

	// ErrEmptyIdentity indicates an empty identity was supplied.
	ErrEmptyIdentity = errors.New("ibe: identity is empty")

	// ErrNilKey indicates a nil public, master or identity key was supplied.
	ErrNilKey = errors.New("ibe: key is nil")

	// ErrInvalidKey indicates key bytes do not decode to a valid group element.
	ErrInvalidKey = errors.New("ibe: invalid key encoding")

	// ErrKeyMismatch indicates an identity key does not belong to the claimed
	// identity under the given master public key.
	ErrKeyMismatch = errors.New("ibe: identity key does not match identity")

	// ErrMalformedCiphertext indicates the serialized ciphertext cannot be parsed.
	ErrMalformedCiphertext = errors.New("ibe: malformed ciphertext")

	// ErrDecryptionFailed indicates the key cannot open the ciphertext.
	ErrDecryptionFailed = errors.New("ibe: decryption failed")

	// ErrUnhashableGroup indicates the pairing suite cannot hash onto G1.
	ErrUnhashableGroup = errors.New("ibe: G1 does not support hashing to a point")
)
