package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// FSChunkStore stores chunks on the local filesystem at
// {baseDir}/{shard}/{fileID}/{index}, where fileID is 16 hex digits and
// shard is its last two.
type FSChunkStore struct {
	baseDir string
	mu      sync.RWMutex
}

var _ ChunkStore = (*FSChunkStore)(nil)

// NewFSChunkStore creates a filesystem chunk store rooted at baseDir,
// creating the directory if needed.
func NewFSChunkStore(baseDir string) (*FSChunkStore, error) {
	if baseDir == "" {
		return nil, ErrInvalidBaseDir
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return &FSChunkStore{baseDir: baseDir}, nil
}

// fileDir returns the directory holding all chunks of fileID.
func (fs *FSChunkStore) fileDir(fileID uint64) string {
	name := fmt.Sprintf("%016x", fileID)
	return filepath.Join(fs.baseDir, name[len(name)-2:], name)
}

func (fs *FSChunkStore) chunkPath(fileID, index uint64) string {
	return filepath.Join(fs.fileDir(fileID), strconv.FormatUint(index, 10))
}

func (fs *FSChunkStore) PutChunk(_ context.Context, fileID, index uint64, data []byte) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := os.MkdirAll(fs.fileDir(fileID), 0700); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	// Write to a temp file and rename so readers never see a partial chunk.
	path := fs.chunkPath(fileID, index)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return nil
}

func (fs *FSChunkStore) GetChunk(_ context.Context, fileID, index uint64) ([]byte, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	data, err := os.ReadFile(fs.chunkPath(fileID, index))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: chunk %d of file %d", ErrNotFound, index, fileID)
		}
		return nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return data, nil
}

// DeleteChunks removes the file's chunk directory. count is unused because
// all chunks share one directory.
func (fs *FSChunkStore) DeleteChunks(_ context.Context, fileID, _ uint64) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := os.RemoveAll(fs.fileDir(fileID)); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return nil
}
