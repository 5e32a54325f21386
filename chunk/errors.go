package chunk

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is the root of every caller-input rejection in this package.
	ErrInvalidInput = errors.New("chunk: invalid input")

	// ErrInvalidChunkSize indicates the chunk size is not a positive integer.
	ErrInvalidChunkSize = fmt.Errorf("%w: chunk size must be positive", ErrInvalidInput)

	// ErrTooLarge indicates the content exceeds the configured maximum file size.
	ErrTooLarge = fmt.Errorf("%w: content exceeds maximum file size", ErrInvalidInput)

	// ErrRecombinationHashMismatch indicates chunk recombination hash verification failed.
	ErrRecombinationHashMismatch = errors.New("chunk: recombination hash mismatch")
)
