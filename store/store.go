// Package store defines the remote file store contracts, the data model
// they exchange, and a reference backend that implements them.
package store

import (
	"context"

	"github.com/wetkeyorg/libwetkey-go/principal"
)

// FileStore is the caller's view of the remote chunked file store. The
// caller identity is fixed by the binding, never passed per call.
type FileStore interface {
	// OpenAtomic creates a file from its first chunk and returns its ID.
	// A single-chunk file is Uploaded on return.
	OpenAtomic(ctx context.Context, req OpenRequest) (uint64, error)

	// ContinueChunk appends chunk index to a PartiallyUploaded file.
	ContinueChunk(ctx context.Context, fileID, index uint64, content []byte) error

	// FetchChunk returns one chunk of an Uploaded file.
	FetchChunk(ctx context.Context, fileID, index uint64) (*Chunk, error)

	// ListFiles returns metadata for every file the caller owns.
	ListFiles(ctx context.Context) ([]FileMetadata, error)

	// FileInfo returns metadata for a file the caller owns or was granted.
	FileInfo(ctx context.Context, fileID uint64) (*FileMetadata, error)

	// DeleteFile removes a file the caller owns.
	DeleteFile(ctx context.Context, fileID uint64) error

	// RegisterFile records a Pending file and returns its ID.
	RegisterFile(ctx context.Context, req RegisterRequest) (uint64, error)
}

// SharingStore is the caller's view of the store's share records.
type SharingStore interface {
	Share(ctx context.Context, fileID uint64, grantee string) error
	Unshare(ctx context.Context, fileID uint64, grantee string) error
	GetSharedFiles(ctx context.Context) (*SharedFiles, error)
	ListGrantees(ctx context.Context, fileID uint64) ([]User, error)
}

// UserDirectory maps usernames to identities.
type UserDirectory interface {
	CreateProfile(ctx context.Context, username, displayName string) (*User, error)
	LookupUser(ctx context.Context, username string) (*User, error)
}

// ChunkStore persists chunk bytes for the backend.
type ChunkStore interface {
	PutChunk(ctx context.Context, fileID, index uint64, data []byte) error
	GetChunk(ctx context.Context, fileID, index uint64) ([]byte, error)
	DeleteChunks(ctx context.Context, fileID, count uint64) error
}

// StateStore persists backend metadata between restarts.
type StateStore interface {
	SaveState(ctx context.Context, st *State) error
	LoadState(ctx context.Context) (*State, error)
}

// State is the persisted form of the backend's metadata.
type State struct {
	NextFileID uint64
	Files      []FileMetadata
	Shares     map[uint64][]principal.Identity
	Users      []User
}
