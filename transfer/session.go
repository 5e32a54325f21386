// Package transfer moves one file between the caller and the remote store:
// chunking, optional identity-based encryption, atomic open followed by
// ordered continuation on upload, and ordered fetch, reassembly and
// decryption on download.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/wetkeyorg/libwetkey-go/chunk"
	"github.com/wetkeyorg/libwetkey-go/idcrypto"
	"github.com/wetkeyorg/libwetkey-go/logging"
	"github.com/wetkeyorg/libwetkey-go/principal"
	"github.com/wetkeyorg/libwetkey-go/registry"
	"github.com/wetkeyorg/libwetkey-go/store"
)

const (
	// payloadOverhead covers the IBE envelope around an encrypted payload.
	payloadOverhead = 64 << 10

	maxPrealloc = 1024
)

// Crypto encrypts and decrypts whole payloads for an identity.
// *idcrypto.Service satisfies it.
type Crypto interface {
	Encrypt(ctx context.Context, plaintext []byte, identity principal.Identity) ([]byte, error)
	Decrypt(ctx context.Context, payload []byte, identity principal.Identity, fileID *uint64) ([]byte, error)
}

var _ Crypto = (*idcrypto.Service)(nil)

// Config bounds uploads.
type Config struct {
	ChunkSize   int
	MaxFileSize int64
}

// DefaultConfig uses 2 MiB chunks and a 100 MiB limit.
func DefaultConfig() Config {
	return Config{ChunkSize: chunk.DefaultChunkSize, MaxFileSize: chunk.DefaultMaxFileSize}
}

// File is the plaintext handed to Upload.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Progress is reported after every accepted chunk.
type Progress struct {
	Chunks     uint64
	Total      uint64
	Bytes      int64
	TotalBytes int64
}

// ProgressFunc receives upload progress. It runs on the uploading goroutine.
type ProgressFunc func(Progress)

// UploadOptions selects encryption and progress reporting.
type UploadOptions struct {
	Encrypt  bool
	Progress ProgressFunc
}

// Download is the result of a completed download.
type Download struct {
	FileID      uint64
	Data        []byte
	ContentType string
	Encrypted   bool
}

// Session drives a single upload or download. It is single use and safe
// to query from other goroutines while it runs.
type Session struct {
	id     uuid.UUID
	store  store.FileStore
	crypto Crypto
	cfg    Config
	log    logging.Logger

	mu     sync.Mutex
	state  State
	fileID uint64
}

// Option configures a Session.
type Option func(*Session)

// WithConfig overrides the chunk size and file size limit.
func WithConfig(cfg Config) Option {
	return func(s *Session) { s.cfg = cfg }
}

// WithLogger sets the session logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Session) { s.log = l }
}

// NewSession returns an idle session. crypto may be nil for sessions that
// never encrypt.
func NewSession(fs store.FileStore, crypto Crypto, opts ...Option) *Session {
	s := &Session{
		id:     uuid.New(),
		store:  fs,
		crypto: crypto,
		cfg:    DefaultConfig(),
		log:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("session", s.id.String())
	return s
}

// ID returns the session's correlation ID.
func (s *Session) ID() uuid.UUID { return s.id }

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// FileID returns the file ID once the session knows it, or zero.
func (s *Session) FileID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fileID
}

func (s *Session) begin(next State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return fmt.Errorf("%w: state %s", ErrSessionUsed, s.state)
	}
	s.state = next
	return nil
}

func (s *Session) set(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Session) setFile(id uint64) {
	s.mu.Lock()
	s.fileID = id
	s.mu.Unlock()
}

// fail moves to Failed and returns err.
func (s *Session) fail(ctx context.Context, err error) error {
	s.set(StateFailed)
	s.log.Warn(ctx, "transfer failed", "err", err)
	return err
}

// Upload stores file for identity and returns its file ID.
//
// The size limit is enforced before any remote call. When encrypting, the
// payload is encrypted to identity and declared as application/octet-stream
// with the original content type carried alongside. An encryption failure
// aborts the upload; the content is never sent unencrypted instead. A
// failure after the atomic open returns *PartialTransferError.
func (s *Session) Upload(ctx context.Context, file File, identity principal.Identity, opts UploadOptions) (uint64, error) {
	if err := s.begin(StatePreparing); err != nil {
		return 0, err
	}
	guard := chunk.Guard{MaxSize: s.cfg.MaxFileSize}
	if err := guard.Check(int64(len(file.Data))); err != nil {
		return 0, s.fail(ctx, fmt.Errorf("%w: %w", ErrInvalidInput, err))
	}
	if s.cfg.ChunkSize <= 0 {
		return 0, s.fail(ctx, fmt.Errorf("%w: %w", ErrInvalidInput, chunk.ErrInvalidChunkSize))
	}

	payload := file.Data
	contentType := file.ContentType
	var originalType string
	if opts.Encrypt {
		if s.crypto == nil {
			return 0, s.fail(ctx, ErrNoCrypto)
		}
		s.set(StateEncrypting)
		enc, err := s.crypto.Encrypt(ctx, file.Data, identity)
		if err != nil {
			return 0, s.fail(ctx, err)
		}
		payload = enc
		originalType = file.ContentType
		contentType = store.EncryptedContentType
	}

	chunks, err := chunk.Split(payload, s.cfg.ChunkSize)
	if err != nil {
		return 0, s.fail(ctx, fmt.Errorf("%w: %w", ErrInvalidInput, err))
	}
	if len(chunks) == 0 {
		chunks = [][]byte{{}}
	}
	total := uint64(len(chunks))
	totalBytes := int64(len(payload))

	if err := ctx.Err(); err != nil {
		return 0, s.fail(ctx, err)
	}

	s.set(StateOpeningAtomic)
	fileID, err := s.store.OpenAtomic(ctx, store.OpenRequest{
		Name:                file.Name,
		Content:             chunks[0],
		ContentType:         contentType,
		OriginalContentType: originalType,
		ChunkCount:          total,
		Encrypted:           opts.Encrypt,
		Size:                totalBytes,
		ContentHash:         chunk.RecombinationHash(chunks),
	})
	if err != nil {
		return 0, s.fail(ctx, fmt.Errorf("transfer: open %q: %w", file.Name, err))
	}
	s.setFile(fileID)
	sent := int64(len(chunks[0]))
	report(opts.Progress, Progress{Chunks: 1, Total: total, Bytes: sent, TotalBytes: totalBytes})
	s.log.Info(ctx, "file opened", "file_id", fileID, "chunks", total, "encrypted", opts.Encrypt)

	if total > 1 {
		s.set(StateContinuing)
	}
	for i := uint64(1); i < total; i++ {
		if err := ctx.Err(); err != nil {
			return fileID, s.fail(ctx, &PartialTransferError{FileID: fileID, ChunkIndex: i, Sent: i, Total: total, Err: err})
		}
		if err := s.store.ContinueChunk(ctx, fileID, i, chunks[i]); err != nil {
			return fileID, s.fail(ctx, &PartialTransferError{FileID: fileID, ChunkIndex: i, Sent: i, Total: total, Err: err})
		}
		sent += int64(len(chunks[i]))
		report(opts.Progress, Progress{Chunks: i + 1, Total: total, Bytes: sent, TotalBytes: totalBytes})
		s.log.Debug(ctx, "chunk accepted", "file_id", fileID, "chunk", i)
	}

	s.set(StateCompleted)
	s.log.Info(ctx, "upload completed", "file_id", fileID)
	return fileID, nil
}

// Download fetches, reassembles and, when meta says so, decrypts a file.
// identity is the caller; the file ID is passed to the authority as the
// decryption context so grantees receive the owner's key.
func (s *Session) Download(ctx context.Context, meta store.FileMetadata, identity principal.Identity) (*Download, error) {
	if err := s.begin(StateFetching); err != nil {
		return nil, err
	}
	s.setFile(meta.FileID)
	strategy := registry.StrategyFor(meta)
	switch strategy {
	case registry.StrategyUnsupported:
		return nil, s.fail(ctx, fmt.Errorf("%w: %q", ErrUnsupportedProvider, meta.StorageProvider))
	case registry.StrategyNativeEncrypted:
		if s.crypto == nil {
			return nil, s.fail(ctx, ErrNoCrypto)
		}
	}

	first, err := s.store.FetchChunk(ctx, meta.FileID, 0)
	if err != nil {
		return nil, s.fail(ctx, classifyFetch(meta.FileID, 0, err))
	}
	if first.ChunkCount == 0 {
		return nil, s.fail(ctx, fmt.Errorf("%w: file %d has no chunks", ErrNotFound, meta.FileID))
	}
	if first.Encrypted != meta.Encrypted {
		return nil, s.fail(ctx, fmt.Errorf("%w: file %d", ErrEncryptionMismatch, meta.FileID))
	}
	if meta.ChunkCount != 0 && first.ChunkCount != meta.ChunkCount {
		return nil, s.fail(ctx, fmt.Errorf("%w: file %d reports %d chunks, metadata %d", ErrIntegrity, meta.FileID, first.ChunkCount, meta.ChunkCount))
	}
	limit := s.maxPayload()
	if limit > 0 && first.ChunkCount > uint64(limit)+1 {
		return nil, s.fail(ctx, fmt.Errorf("%w: file %d reports %d chunks", ErrIntegrity, meta.FileID, first.ChunkCount))
	}

	chunks := make([][]byte, 0, min(first.ChunkCount, maxPrealloc))
	chunks = append(chunks, first.Data)
	received := int64(len(first.Data))
	for i := uint64(1); i < first.ChunkCount; i++ {
		if err := ctx.Err(); err != nil {
			return nil, s.fail(ctx, err)
		}
		c, err := s.store.FetchChunk(ctx, meta.FileID, i)
		if err != nil {
			return nil, s.fail(ctx, classifyFetch(meta.FileID, i, err))
		}
		received += int64(len(c.Data))
		if limit > 0 && received > limit {
			return nil, s.fail(ctx, fmt.Errorf("%w: file %d exceeds %d bytes", ErrIntegrity, meta.FileID, limit))
		}
		chunks = append(chunks, c.Data)
	}

	var payload []byte
	if len(first.ContentHash) > 0 {
		payload, err = chunk.Recombine(chunks, first.ContentHash)
		if err != nil {
			return nil, s.fail(ctx, fmt.Errorf("%w: file %d: %w", ErrIntegrity, meta.FileID, err))
		}
	} else {
		payload = chunk.Join(chunks)
	}

	out := &Download{FileID: meta.FileID, Data: payload, ContentType: first.ContentType, Encrypted: meta.Encrypted}
	if strategy == registry.StrategyNativeEncrypted {
		s.set(StateDecrypting)
		fileID := meta.FileID
		plain, err := s.crypto.Decrypt(ctx, payload, identity, &fileID)
		if err != nil {
			return nil, s.fail(ctx, err)
		}
		out.Data = plain
		out.ContentType = first.OriginalContentType
		if out.ContentType == "" {
			out.ContentType = meta.OriginalContentType
		}
	}

	s.set(StateCompleted)
	s.log.Info(ctx, "download completed", "file_id", meta.FileID, "chunks", first.ChunkCount)
	return out, nil
}

// maxPayload bounds the bytes a download accepts from the store: the
// upload limit plus room for the encryption envelope. Zero means no bound.
func (s *Session) maxPayload() int64 {
	if s.cfg.MaxFileSize <= 0 {
		return 0
	}
	return s.cfg.MaxFileSize + payloadOverhead
}

// classifyFetch maps store fetch errors onto the transfer taxonomy.
func classifyFetch(fileID, index uint64, err error) error {
	switch {
	case errors.Is(err, store.ErrPermissionDenied):
		return fmt.Errorf("%w: file %d: %w", idcrypto.ErrAccessDenied, fileID, err)
	case errors.Is(err, store.ErrNotUploaded):
		return fmt.Errorf("%w: file %d: %w", ErrNotUploaded, fileID, err)
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%w: file %d chunk %d: %w", ErrNotFound, fileID, index, err)
	default:
		return fmt.Errorf("transfer: fetch chunk %d of file %d: %w", index, fileID, err)
	}
}

func report(fn ProgressFunc, p Progress) {
	if fn != nil {
		fn(p)
	}
}
