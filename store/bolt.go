package store

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"
)

var (
	bucketChunks = []byte("chunks")
	bucketState  = []byte("state")

	stateKey = []byte("snapshot")
)

// BoltStore persists chunks and backend metadata in one bbolt database.
type BoltStore struct {
	db *bbolt.DB
}

var (
	_ ChunkStore = (*BoltStore)(nil)
	_ StateStore = (*BoltStore)(nil)
)

// OpenBoltStore opens or creates the bbolt database at dbPath.
// The parent directory is created if it does not exist.
func OpenBoltStore(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("store: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("store: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketChunks, bucketState} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: create buckets: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

// chunkDBKey encodes (fileID, index) as 16 big-endian bytes so a file's
// chunks are contiguous and ordered.
func chunkDBKey(fileID, index uint64) []byte {
	k := make([]byte, 16)
	binary.BigEndian.PutUint64(k[:8], fileID)
	binary.BigEndian.PutUint64(k[8:], index)
	return k
}

func (s *BoltStore) PutChunk(_ context.Context, fileID, index uint64, data []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketChunks).Put(chunkDBKey(fileID, index), data)
	})
}

func (s *BoltStore) GetChunk(_ context.Context, fileID, index uint64) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		key := chunkDBKey(fileID, index)
		// Seek rather than Get so an empty chunk is distinguishable from a missing one.
		k, v := tx.Bucket(bucketChunks).Cursor().Seek(key)
		if !bytes.Equal(k, key) {
			return fmt.Errorf("%w: chunk %d of file %d", ErrNotFound, index, fileID)
		}
		// v is only valid inside the transaction.
		out = append([]byte(nil), v...)
		return nil
	})
	return out, err
}

func (s *BoltStore) DeleteChunks(_ context.Context, fileID, _ uint64) error {
	prefix := chunkDBKey(fileID, 0)[:8]
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketChunks)
		var keys [][]byte
		c := b.Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			keys = append(keys, append([]byte(nil), k...))
		}
		for _, k := range keys {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) SaveState(_ context.Context, st *State) error {
	data, err := encodeGob(st)
	if err != nil {
		return fmt.Errorf("store: encode state: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketState).Put(stateKey, data)
	})
}

func (s *BoltStore) LoadState(_ context.Context) (*State, error) {
	var st State
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketState).Get(stateKey)
		if v == nil {
			return ErrNotFound
		}
		return decodeGob(v, &st)
	})
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// encodeGob serializes a value using gob encoding.
func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeGob deserializes gob-encoded data into a value.
func decodeGob(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
