package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wetkeyorg/libwetkey-go/logging"
	"github.com/wetkeyorg/libwetkey-go/principal"
)

// Backend is the reference implementation of the remote store. All state
// changes are serialized behind one mutex, so each file has at most one
// writer and continuation chunks are applied strictly in order.
//
// File IDs start at 1, increase monotonically and are never reused.
type Backend struct {
	mu     sync.Mutex
	nextID uint64
	files  map[uint64]*FileMetadata
	shares map[uint64]map[string]principal.Identity
	users  map[string]*User
	byID   map[string]*User

	chunks ChunkStore
	state  StateStore
	now    func() time.Time
	log    logging.Logger
}

// BackendOption configures a Backend.
type BackendOption func(*Backend)

// WithStateStore persists metadata after every change and restores it on start.
func WithStateStore(s StateStore) BackendOption {
	return func(b *Backend) { b.state = s }
}

// WithClock overrides time.Now for status timestamps.
func WithClock(now func() time.Time) BackendOption {
	return func(b *Backend) { b.now = now }
}

// WithLogger sets the backend logger.
func WithLogger(l logging.Logger) BackendOption {
	return func(b *Backend) { b.log = l }
}

// NewBackend returns a backend storing chunk bytes in chunks.
func NewBackend(ctx context.Context, chunks ChunkStore, opts ...BackendOption) (*Backend, error) {
	if chunks == nil {
		chunks = NewMemChunkStore()
	}
	b := &Backend{
		nextID: 1,
		files:  make(map[uint64]*FileMetadata),
		shares: make(map[uint64]map[string]principal.Identity),
		users:  make(map[string]*User),
		byID:   make(map[string]*User),
		chunks: chunks,
		now:    time.Now,
		log:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.state != nil {
		st, err := b.state.LoadState(ctx)
		switch {
		case errors.Is(err, ErrNotFound):
		case err != nil:
			return nil, fmt.Errorf("store: load state: %w", err)
		default:
			b.restore(st)
		}
	}
	return b, nil
}

// Session returns the store as seen by caller.
func (b *Backend) Session(caller principal.Identity) *Session {
	return &Session{b: b, caller: caller}
}

// DerivationIdentity reports the owner of fileID when caller is its owner
// or a grantee. It reads live state, so revocation is immediate.
func (b *Backend) DerivationIdentity(_ context.Context, caller principal.Identity, fileID uint64) (principal.Identity, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	f, ok := b.files[fileID]
	if !ok {
		return nil, fmt.Errorf("%w: file %d", ErrNotFound, fileID)
	}
	if !b.canRead(f, caller) {
		return nil, fmt.Errorf("%w: file %d", ErrPermissionDenied, fileID)
	}
	return f.Owner, nil
}

func (b *Backend) canRead(f *FileMetadata, caller principal.Identity) bool {
	if f.Owner.Equal(caller) {
		return true
	}
	_, ok := b.shares[f.FileID][caller.Key()]
	return ok
}

// lookupOwned returns the file if caller owns it, checking existence first.
func (b *Backend) lookupOwned(caller principal.Identity, fileID uint64) (*FileMetadata, error) {
	if caller.IsAnonymous() {
		return nil, ErrNotAuthenticated
	}
	f, ok := b.files[fileID]
	if !ok {
		return nil, fmt.Errorf("%w: file %d", ErrNotFound, fileID)
	}
	if !f.Owner.Equal(caller) {
		return nil, fmt.Errorf("%w: file %d", ErrPermissionDenied, fileID)
	}
	return f, nil
}

// lookupShareable returns the file if caller owns it. A missing file is
// reported as not owned so non-owners cannot tell which IDs exist.
func (b *Backend) lookupShareable(caller principal.Identity, fileID uint64) (*FileMetadata, error) {
	if caller.IsAnonymous() {
		return nil, ErrNotAuthenticated
	}
	f, ok := b.files[fileID]
	if !ok || !f.Owner.Equal(caller) {
		return nil, fmt.Errorf("%w: file %d", ErrPermissionDenied, fileID)
	}
	return f, nil
}

// resolveUser finds a user by username, then by textual identity.
func (b *Backend) resolveUser(name string) (*User, error) {
	if u, ok := b.users[name]; ok {
		return u, nil
	}
	if id, err := principal.Parse(name); err == nil && !id.IsAnonymous() {
		if u, ok := b.byID[id.Key()]; ok {
			return u, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUserNotFound, name)
}

// persist writes a snapshot when a StateStore is configured. Callers hold mu.
func (b *Backend) persist(ctx context.Context) error {
	if b.state == nil {
		return nil
	}
	if err := b.state.SaveState(ctx, b.snapshot()); err != nil {
		b.log.Error(ctx, "persist state failed", "err", err)
		return fmt.Errorf("store: save state: %w", err)
	}
	return nil
}

func (b *Backend) snapshot() *State {
	st := &State{
		NextFileID: b.nextID,
		Shares:     make(map[uint64][]principal.Identity, len(b.shares)),
	}
	for _, f := range b.files {
		st.Files = append(st.Files, *f)
	}
	sort.Slice(st.Files, func(i, j int) bool { return st.Files[i].FileID < st.Files[j].FileID })
	for id, grantees := range b.shares {
		for _, g := range grantees {
			st.Shares[id] = append(st.Shares[id], g)
		}
	}
	for _, u := range b.users {
		st.Users = append(st.Users, *u)
	}
	sort.Slice(st.Users, func(i, j int) bool { return st.Users[i].Username < st.Users[j].Username })
	return st
}

func (b *Backend) restore(st *State) {
	if st.NextFileID > b.nextID {
		b.nextID = st.NextFileID
	}
	for i := range st.Files {
		f := st.Files[i]
		b.files[f.FileID] = &f
		if f.FileID >= b.nextID {
			b.nextID = f.FileID + 1
		}
	}
	for id, grantees := range st.Shares {
		m := make(map[string]principal.Identity, len(grantees))
		for _, g := range grantees {
			m[g.Key()] = g
		}
		b.shares[id] = m
	}
	for i := range st.Users {
		u := st.Users[i]
		b.users[u.Username] = &u
		b.byID[u.Identity.Key()] = &u
	}
}

// sortedFiles returns copies of the files matching keep, ordered by ID.
func (b *Backend) sortedFiles(keep func(*FileMetadata) bool) []FileMetadata {
	out := make([]FileMetadata, 0)
	for _, f := range b.files {
		if keep(f) {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FileID < out[j].FileID })
	return out
}
