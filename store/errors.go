package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates no file or chunk exists for the given ID.
	ErrNotFound = errors.New("store: not found")

	// ErrNotUploaded indicates the file exists but is not fully uploaded.
	ErrNotUploaded = errors.New("store: file not uploaded")

	// ErrPermissionDenied indicates the caller is neither owner nor grantee.
	ErrPermissionDenied = errors.New("store: permission denied")

	// ErrNotAuthenticated indicates the caller is anonymous.
	ErrNotAuthenticated = errors.New("store: not authenticated")

	// ErrUserNotFound indicates the grantee is not a known user.
	ErrUserNotFound = errors.New("store: user not found")

	// ErrInvalidInput indicates a malformed request.
	ErrInvalidInput = errors.New("store: invalid input")

	// ErrSelfShare indicates an owner tried to share a file with themselves.
	ErrSelfShare = fmt.Errorf("%w: cannot share a file with its owner", ErrInvalidInput)

	// ErrOutOfOrder indicates a continuation chunk is not the next expected
	// index. Duplicates are out of order too.
	ErrOutOfOrder = errors.New("store: chunk out of order")

	// ErrAlreadyUploaded indicates the file already has all of its chunks.
	ErrAlreadyUploaded = errors.New("store: file already uploaded")

	// ErrUsernameTaken indicates the username belongs to another identity.
	ErrUsernameTaken = errors.New("store: username taken")

	// ErrIOFailure indicates a chunk persistence read/write error.
	ErrIOFailure = errors.New("store: I/O failure")

	// ErrInvalidBaseDir indicates the base directory path is invalid.
	ErrInvalidBaseDir = errors.New("store: invalid base directory")
)
