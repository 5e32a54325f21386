package transfer

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput indicates the upload was rejected before any remote call.
	ErrInvalidInput = errors.New("transfer: invalid input")

	// ErrNotFound indicates the store reports no content for the file.
	ErrNotFound = errors.New("transfer: not found")

	// ErrNotUploaded indicates the file exists but is not fully uploaded.
	ErrNotUploaded = errors.New("transfer: file not uploaded")

	// ErrPartialTransfer indicates the file was created but not all chunks
	// were accepted. Match *PartialTransferError for the details.
	ErrPartialTransfer = errors.New("transfer: partial transfer")

	// ErrSessionUsed indicates a session was started twice.
	ErrSessionUsed = errors.New("transfer: session already used")

	// ErrEncryptionMismatch indicates the file metadata and the stored
	// chunks disagree on whether the content is encrypted.
	ErrEncryptionMismatch = errors.New("transfer: encryption flag mismatch")

	// ErrIntegrity indicates the reassembled payload does not match its
	// recorded content hash.
	ErrIntegrity = errors.New("transfer: content hash mismatch")

	// ErrUnsupportedProvider indicates the file lives with a storage
	// provider this client does not retrieve from.
	ErrUnsupportedProvider = errors.New("transfer: unsupported storage provider")

	// ErrNoCrypto indicates an encrypted transfer on a session without a
	// crypto service.
	ErrNoCrypto = errors.New("transfer: no crypto service configured")
)

// PartialTransferError reports an upload that created a file but stopped
// before its last chunk. The file stays PartiallyUploaded in the store.
type PartialTransferError struct {
	FileID     uint64
	ChunkIndex uint64 // first chunk not accepted
	Sent       uint64 // chunks accepted
	Total      uint64
	Err        error
}

func (e *PartialTransferError) Error() string {
	return fmt.Sprintf("transfer: partial upload of file %d: chunk %d of %d: %v", e.FileID, e.ChunkIndex, e.Total, e.Err)
}

// Unwrap exposes both ErrPartialTransfer and the underlying cause.
func (e *PartialTransferError) Unwrap() []error {
	return []error{ErrPartialTransfer, e.Err}
}
