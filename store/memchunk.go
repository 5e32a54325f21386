package store

import (
	"context"
	"fmt"
	"sync"
)

type chunkKey struct {
	file  uint64
	index uint64
}

// MemChunkStore keeps chunks in memory. Intended for tests and ephemeral servers.
type MemChunkStore struct {
	mu     sync.RWMutex
	chunks map[chunkKey][]byte
}

var _ ChunkStore = (*MemChunkStore)(nil)

// NewMemChunkStore creates an empty in-memory chunk store.
func NewMemChunkStore() *MemChunkStore {
	return &MemChunkStore{chunks: make(map[chunkKey][]byte)}
}

func (m *MemChunkStore) PutChunk(_ context.Context, fileID, index uint64, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks[chunkKey{fileID, index}] = append([]byte(nil), data...)
	return nil
}

func (m *MemChunkStore) GetChunk(_ context.Context, fileID, index uint64) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.chunks[chunkKey{fileID, index}]
	if !ok {
		return nil, fmt.Errorf("%w: chunk %d of file %d", ErrNotFound, index, fileID)
	}
	return append([]byte(nil), data...), nil
}

func (m *MemChunkStore) DeleteChunks(_ context.Context, fileID, count uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := uint64(0); i < count; i++ {
		delete(m.chunks, chunkKey{fileID, i})
	}
	return nil
}

// Len returns the number of stored chunks.
func (m *MemChunkStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks)
}
