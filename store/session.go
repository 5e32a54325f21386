package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/wetkeyorg/libwetkey-go/principal"
)

// aliasLen is the length of generated pending-file aliases.
const aliasLen = 8

// Session is one caller's view of a Backend.
type Session struct {
	b      *Backend
	caller principal.Identity
}

var (
	_ FileStore     = (*Session)(nil)
	_ SharingStore  = (*Session)(nil)
	_ UserDirectory = (*Session)(nil)
)

// Caller returns the identity this session acts as.
func (s *Session) Caller() principal.Identity {
	return s.caller
}

func (s *Session) OpenAtomic(ctx context.Context, req OpenRequest) (uint64, error) {
	if s.caller.IsAnonymous() {
		return 0, ErrNotAuthenticated
	}
	if strings.TrimSpace(req.Name) == "" {
		return 0, fmt.Errorf("%w: file name is empty", ErrInvalidInput)
	}
	if req.ChunkCount == 0 {
		return 0, fmt.Errorf("%w: chunk count must be positive", ErrInvalidInput)
	}
	if len(req.Content) == 0 && req.ChunkCount > 1 {
		return 0, fmt.Errorf("%w: first chunk is empty", ErrInvalidInput)
	}

	b := s.b
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	if err := b.chunks.PutChunk(ctx, id, 0, req.Content); err != nil {
		return 0, fmt.Errorf("store: put chunk 0 of file %d: %w", id, err)
	}
	b.nextID++

	now := b.now()
	f := &FileMetadata{
		FileID:              id,
		Name:                req.Name,
		Owner:               append(principal.Identity(nil), s.caller...),
		Status:              PartiallyUploaded(),
		Encrypted:           req.Encrypted,
		StorageProvider:     ProviderNative,
		ContentType:         req.ContentType,
		OriginalContentType: req.OriginalContentType,
		ChunkCount:          req.ChunkCount,
		ChunksReceived:      1,
		Size:                req.Size,
		ContentHash:         append([]byte(nil), req.ContentHash...),
		RequestedAt:         now,
	}
	if f.ChunkCount == 1 {
		f.Status = Uploaded(now)
	}
	b.files[id] = f
	b.log.Info(ctx, "file opened", "file_id", id, "owner", s.caller.String(), "chunks", req.ChunkCount, "encrypted", req.Encrypted)
	return id, b.persist(ctx)
}

func (s *Session) ContinueChunk(ctx context.Context, fileID, index uint64, content []byte) error {
	b := s.b
	b.mu.Lock()
	defer b.mu.Unlock()

	f, err := b.lookupOwned(s.caller, fileID)
	if err != nil {
		return err
	}
	switch f.Status.Kind {
	case StatusUploaded:
		return fmt.Errorf("%w: file %d", ErrAlreadyUploaded, fileID)
	case StatusPending:
		return fmt.Errorf("%w: file %d is pending", ErrInvalidInput, fileID)
	}
	if index >= f.ChunkCount {
		return fmt.Errorf("%w: chunk %d beyond declared count %d", ErrInvalidInput, index, f.ChunkCount)
	}
	if index != f.ChunksReceived {
		return fmt.Errorf("%w: file %d got chunk %d, want %d", ErrOutOfOrder, fileID, index, f.ChunksReceived)
	}
	if len(content) == 0 {
		return fmt.Errorf("%w: chunk %d is empty", ErrInvalidInput, index)
	}
	if err := b.chunks.PutChunk(ctx, fileID, index, content); err != nil {
		return fmt.Errorf("store: put chunk %d of file %d: %w", index, fileID, err)
	}

	f.ChunksReceived++
	if f.ChunksReceived == f.ChunkCount {
		f.Status = Uploaded(b.now())
		b.log.Info(ctx, "file uploaded", "file_id", fileID, "chunks", f.ChunkCount)
	}
	return b.persist(ctx)
}

func (s *Session) FetchChunk(ctx context.Context, fileID, index uint64) (*Chunk, error) {
	if s.caller.IsAnonymous() {
		return nil, ErrNotAuthenticated
	}
	b := s.b
	b.mu.Lock()
	defer b.mu.Unlock()

	f, ok := b.files[fileID]
	if !ok {
		return nil, fmt.Errorf("%w: file %d", ErrNotFound, fileID)
	}
	if !b.canRead(f, s.caller) {
		return nil, fmt.Errorf("%w: file %d", ErrPermissionDenied, fileID)
	}
	if f.Status.Kind != StatusUploaded {
		return nil, fmt.Errorf("%w: file %d is %s", ErrNotUploaded, fileID, f.Status.Kind)
	}
	if index >= f.ChunkCount {
		return nil, fmt.Errorf("%w: chunk %d of file %d", ErrNotFound, index, fileID)
	}
	data, err := b.chunks.GetChunk(ctx, fileID, index)
	if err != nil {
		return nil, fmt.Errorf("store: get chunk %d of file %d: %w", index, fileID, err)
	}
	return &Chunk{
		FileID:              fileID,
		Index:               index,
		Data:                data,
		ContentType:         f.ContentType,
		OriginalContentType: f.OriginalContentType,
		ChunkCount:          f.ChunkCount,
		Encrypted:           f.Encrypted,
		ContentHash:         f.ContentHash,
	}, nil
}

func (s *Session) ListFiles(_ context.Context) ([]FileMetadata, error) {
	if s.caller.IsAnonymous() {
		return nil, ErrNotAuthenticated
	}
	b := s.b
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sortedFiles(func(f *FileMetadata) bool { return f.Owner.Equal(s.caller) }), nil
}

func (s *Session) FileInfo(_ context.Context, fileID uint64) (*FileMetadata, error) {
	if s.caller.IsAnonymous() {
		return nil, ErrNotAuthenticated
	}
	b := s.b
	b.mu.Lock()
	defer b.mu.Unlock()
	f, ok := b.files[fileID]
	if !ok {
		return nil, fmt.Errorf("%w: file %d", ErrNotFound, fileID)
	}
	if !b.canRead(f, s.caller) {
		return nil, fmt.Errorf("%w: file %d", ErrPermissionDenied, fileID)
	}
	out := *f
	return &out, nil
}

func (s *Session) DeleteFile(ctx context.Context, fileID uint64) error {
	b := s.b
	b.mu.Lock()
	defer b.mu.Unlock()

	f, err := b.lookupOwned(s.caller, fileID)
	if err != nil {
		return err
	}
	if f.StorageProvider == ProviderNative && f.ChunksReceived > 0 {
		if err := b.chunks.DeleteChunks(ctx, fileID, f.ChunksReceived); err != nil {
			return fmt.Errorf("store: delete chunks of file %d: %w", fileID, err)
		}
	}
	delete(b.files, fileID)
	delete(b.shares, fileID)
	b.log.Info(ctx, "file deleted", "file_id", fileID)
	return b.persist(ctx)
}

func (s *Session) RegisterFile(ctx context.Context, req RegisterRequest) (uint64, error) {
	if s.caller.IsAnonymous() {
		return 0, ErrNotAuthenticated
	}
	if strings.TrimSpace(req.Name) == "" {
		return 0, fmt.Errorf("%w: file name is empty", ErrInvalidInput)
	}
	provider := req.StorageProvider
	if provider == "" {
		provider = ProviderNative
	}

	b := s.b
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	now := b.now()
	b.files[id] = &FileMetadata{
		FileID:          id,
		Name:            req.Name,
		Owner:           append(principal.Identity(nil), s.caller...),
		Status:          Pending(newAlias(), now),
		StorageProvider: provider,
		BlobID:          req.BlobID,
		RequestedAt:     now,
	}
	return id, b.persist(ctx)
}

func newAlias() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:aliasLen]
}
