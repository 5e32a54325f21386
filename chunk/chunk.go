// Package chunk splits payloads into fixed-size chunks for transfer and
// reassembles them on the way back.
package chunk

import (
	"bytes"
	"crypto/sha256"
)

const (
	// DefaultChunkSize is the default chunk size for content splitting (2 MiB).
	DefaultChunkSize = 2 << 20

	// DefaultMaxFileSize is the default upload limit (100 MiB).
	DefaultMaxFileSize = 100 << 20
)

// Split splits data into fixed-size chunks.
// The last chunk may be smaller than chunkSize; empty data yields no chunks.
// Returns ErrInvalidChunkSize if chunkSize is not positive.
func Split(data []byte, chunkSize int) ([][]byte, error) {
	if chunkSize <= 0 {
		return nil, ErrInvalidChunkSize
	}
	if len(data) == 0 {
		return nil, nil
	}
	chunks := make([][]byte, 0, Count(int64(len(data)), chunkSize))
	for i := 0; i < len(data); i += chunkSize {
		end := min(i+chunkSize, len(data))
		c := make([]byte, end-i)
		copy(c, data[i:end])
		chunks = append(chunks, c)
	}
	return chunks, nil
}

// Join concatenates chunks in order.
func Join(chunks [][]byte) []byte {
	n := 0
	for _, c := range chunks {
		n += len(c)
	}
	out := make([]byte, 0, n)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

// Count returns the number of chunks Split produces for size bytes.
func Count(size int64, chunkSize int) int {
	if size <= 0 || chunkSize <= 0 {
		return 0
	}
	cs := int64(chunkSize)
	return int((size + cs - 1) / cs)
}

// RecombinationHash computes SHA256(chunk0 || chunk1 || ...).
func RecombinationHash(chunks [][]byte) []byte {
	h := sha256.New()
	for _, c := range chunks {
		h.Write(c)
	}
	return h.Sum(nil)
}

// Recombine concatenates chunks and verifies the recombination hash.
func Recombine(chunks [][]byte, expectedHash []byte) ([]byte, error) {
	if !bytes.Equal(RecombinationHash(chunks), expectedHash) {
		return nil, ErrRecombinationHashMismatch
	}
	return Join(chunks), nil
}
