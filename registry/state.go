package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wetkeyorg/libwetkey-go/store"
)

// snapshot is the on-disk form of a registry, stored as JSON at
// {dataDir}/files.json.
type snapshot struct {
	Files []store.FileMetadata `json:"files"`
}

// Load replaces the registry contents with the snapshot at path.
// A missing file leaves the registry empty.
func (r *Registry) Load(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	lock, err := acquireLock(path + ".lock")
	if err != nil {
		return fmt.Errorf("registry: %w", err)
	}
	defer releaseLock(lock)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("registry: read %s: %w", path, err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("registry: parse %s: %w", path, err)
	}

	files := make(map[uint64]store.FileMetadata, len(snap.Files))
	for _, f := range snap.Files {
		files[f.FileID] = f
	}
	r.mu.Lock()
	r.files = files
	r.mu.Unlock()
	return nil
}

// Save writes the registry to path, creating its directory with 0700.
// The write goes through a temp file so readers never see a torn snapshot.
func (r *Registry) Save(path string) error {
	data, err := json.MarshalIndent(snapshot{Files: r.All()}, "", "  ")
	if err != nil {
		return fmt.Errorf("registry: marshal: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("registry: create directory: %w", err)
	}

	lock, err := acquireLock(path + ".lock")
	if err != nil {
		return fmt.Errorf("registry: %w", err)
	}
	defer releaseLock(lock)

	tmp, err := os.CreateTemp(dir, ".files-*.json")
	if err != nil {
		return fmt.Errorf("registry: create temp: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("registry: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("registry: close: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0600); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("registry: chmod: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("registry: rename: %w", err)
	}
	return nil
}
