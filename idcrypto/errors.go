package idcrypto

import "errors"

var (
	// ErrKeyUnavailable indicates the master public key or a decryption key
	// could not be obtained. The operation may be retried.
	ErrKeyUnavailable = errors.New("idcrypto: key unavailable")

	// ErrAccessDenied indicates the authority refused to issue a key.
	// The refusal is authoritative and must not be retried.
	ErrAccessDenied = errors.New("idcrypto: access denied")

	// ErrDecryptionFailed indicates the payload is malformed, was tampered
	// with, or the issued key does not open it.
	ErrDecryptionFailed = errors.New("idcrypto: decryption failed")

	// ErrEmptyCiphertext indicates Decrypt was called without a payload.
	ErrEmptyCiphertext = errors.New("idcrypto: empty ciphertext")
)
