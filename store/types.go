package store

import (
	"time"

	"github.com/wetkeyorg/libwetkey-go/principal"
)

// ProviderNative names the chunked store described by this package.
const ProviderNative = "native"

// EncryptedContentType is declared for every encrypted upload.
const EncryptedContentType = "application/octet-stream"

// StatusKind enumerates the FileStatus variants.
type StatusKind int

const (
	StatusPending StatusKind = iota + 1
	StatusPartiallyUploaded
	StatusUploaded
)

// String returns the wire name of the status kind.
func (k StatusKind) String() string {
	switch k {
	case StatusPending:
		return "pending"
	case StatusPartiallyUploaded:
		return "partially_uploaded"
	case StatusUploaded:
		return "uploaded"
	default:
		return "unknown"
	}
}

// FileStatus is the store-owned lifecycle state of a file. Alias and
// RequestedAt are set for Pending, UploadedAt for Uploaded.
type FileStatus struct {
	Kind        StatusKind `json:"kind"`
	Alias       string     `json:"alias,omitempty"`
	RequestedAt time.Time  `json:"requested_at,omitzero"`
	UploadedAt  time.Time  `json:"uploaded_at,omitzero"`
}

// Pending returns a Pending status.
func Pending(alias string, requestedAt time.Time) FileStatus {
	return FileStatus{Kind: StatusPending, Alias: alias, RequestedAt: requestedAt}
}

// PartiallyUploaded returns a PartiallyUploaded status.
func PartiallyUploaded() FileStatus {
	return FileStatus{Kind: StatusPartiallyUploaded}
}

// Uploaded returns an Uploaded status.
func Uploaded(at time.Time) FileStatus {
	return FileStatus{Kind: StatusUploaded, UploadedAt: at}
}

// FileMetadata describes one stored file. It never carries sharing state.
type FileMetadata struct {
	FileID              uint64             `json:"file_id"`
	Name                string             `json:"name"`
	Owner               principal.Identity `json:"owner"`
	Status              FileStatus         `json:"status"`
	Encrypted           bool               `json:"encrypted"`
	StorageProvider     string             `json:"storage_provider"`
	BlobID              string             `json:"blob_id,omitempty"`
	ContentType         string             `json:"content_type,omitempty"`
	OriginalContentType string             `json:"original_content_type,omitempty"`
	ChunkCount          uint64             `json:"chunk_count"`
	ChunksReceived      uint64             `json:"chunks_received"`
	Size                int64              `json:"size"`
	ContentHash         []byte             `json:"content_hash,omitempty"`
	RequestedAt         time.Time          `json:"requested_at"`
}

// Chunk is one fetched chunk together with the file-level attributes the
// downloader needs to reassemble the payload.
type Chunk struct {
	FileID              uint64 `json:"file_id"`
	Index               uint64 `json:"index"`
	Data                []byte `json:"data"`
	ContentType         string `json:"content_type"`
	OriginalContentType string `json:"original_content_type,omitempty"`
	ChunkCount          uint64 `json:"chunk_count"`
	Encrypted           bool   `json:"encrypted"`
	ContentHash         []byte `json:"content_hash,omitempty"`
}

// OpenRequest creates a file and carries its first chunk.
type OpenRequest struct {
	Name                string `json:"name"`
	Content             []byte `json:"content"`
	ContentType         string `json:"content_type"`
	OriginalContentType string `json:"original_content_type,omitempty"`
	ChunkCount          uint64 `json:"chunk_count"`
	Encrypted           bool   `json:"encrypted"`
	Size                int64  `json:"size"`
	ContentHash         []byte `json:"content_hash,omitempty"`
}

// RegisterRequest records a file whose content arrives later or lives
// with another storage provider.
type RegisterRequest struct {
	Name            string `json:"name"`
	StorageProvider string `json:"storage_provider"`
	BlobID          string `json:"blob_id,omitempty"`
}

// User is a public user profile.
type User struct {
	Identity    principal.Identity `json:"identity"`
	Username    string             `json:"username"`
	DisplayName string             `json:"display_name,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// SharedFiles lists the files a caller owns and the files shared with them.
type SharedFiles struct {
	Owned        []FileMetadata `json:"owned"`
	SharedWithMe []FileMetadata `json:"shared_with_me"`
}
