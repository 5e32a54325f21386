// Package registry keeps the client's view of file metadata as reported by
// the remote store. It never decides a file's status on its own and never
// caches sharing state; every entry is a copy of the last store response.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/wetkeyorg/libwetkey-go/store"
)

// Strategy is how a file's content can be retrieved.
type Strategy int

const (
	// StrategyUnsupported marks content held by a provider this client cannot read.
	StrategyUnsupported Strategy = iota
	// StrategyNativePlain fetches chunks and returns them as-is.
	StrategyNativePlain
	// StrategyNativeEncrypted fetches chunks and decrypts the joined payload.
	StrategyNativeEncrypted
)

func (s Strategy) String() string {
	switch s {
	case StrategyNativePlain:
		return "native"
	case StrategyNativeEncrypted:
		return "native-encrypted"
	default:
		return "unsupported"
	}
}

// StrategyFor returns the retrieval strategy for meta.
func StrategyFor(meta store.FileMetadata) Strategy {
	if meta.StorageProvider != "" && meta.StorageProvider != store.ProviderNative {
		return StrategyUnsupported
	}
	if meta.Encrypted {
		return StrategyNativeEncrypted
	}
	return StrategyNativePlain
}

// Registry is a concurrency-safe cache of FileMetadata keyed by file ID.
type Registry struct {
	store store.FileStore

	mu    sync.RWMutex
	files map[uint64]store.FileMetadata
}

// New returns an empty registry reading from fs.
func New(fs store.FileStore) *Registry {
	return &Registry{store: fs, files: make(map[uint64]store.FileMetadata)}
}

// Refresh replaces the registry contents with the store's file listing.
func (r *Registry) Refresh(ctx context.Context) ([]store.FileMetadata, error) {
	files, err := r.store.ListFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("registry: list files: %w", err)
	}
	next := make(map[uint64]store.FileMetadata, len(files))
	for _, f := range files {
		next[f.FileID] = f
	}
	r.mu.Lock()
	r.files = next
	r.mu.Unlock()
	return files, nil
}

// Confirm asks the store for the current metadata of one file and records it.
// A file the store no longer knows is dropped from the registry; other
// failures leave the entry untouched.
func (r *Registry) Confirm(ctx context.Context, fileID uint64) (store.FileMetadata, error) {
	meta, err := r.store.FileInfo(ctx, fileID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			r.Forget(fileID)
		}
		return store.FileMetadata{}, fmt.Errorf("registry: file %d: %w", fileID, err)
	}
	r.Put(*meta)
	return *meta, nil
}

// Put records meta as reported by the store.
func (r *Registry) Put(meta store.FileMetadata) {
	r.mu.Lock()
	r.files[meta.FileID] = meta
	r.mu.Unlock()
}

// Get returns the recorded metadata for fileID.
func (r *Registry) Get(fileID uint64) (store.FileMetadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	meta, ok := r.files[fileID]
	if !ok {
		return store.FileMetadata{}, fmt.Errorf("%w: %d", ErrUnknownFile, fileID)
	}
	return meta, nil
}

// All returns every recorded entry ordered by file ID.
func (r *Registry) All() []store.FileMetadata {
	r.mu.RLock()
	out := make([]store.FileMetadata, 0, len(r.files))
	for _, f := range r.files {
		out = append(out, f)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].FileID < out[j].FileID })
	return out
}

// Forget drops fileID. It reports whether an entry existed.
func (r *Registry) Forget(fileID uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.files[fileID]
	delete(r.files, fileID)
	return ok
}

// Len returns the number of recorded entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.files)
}
