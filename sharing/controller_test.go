package sharing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wetkeyorg/libwetkey-go/ibe"
	"github.com/wetkeyorg/libwetkey-go/idcrypto"
	"github.com/wetkeyorg/libwetkey-go/keyauth"
	"github.com/wetkeyorg/libwetkey-go/principal"
	"github.com/wetkeyorg/libwetkey-go/store"
)

var (
	alice = principal.Identity("alice")
	bob   = principal.Identity("bob")
)

type fixture struct {
	backend  *store.Backend
	uploaded uint64
	partial  uint64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	b, err := store.NewBackend(ctx, store.NewMemChunkStore())
	require.NoError(t, err)
	_, err = b.Session(alice).CreateProfile(ctx, "alice", "Alice")
	require.NoError(t, err)
	_, err = b.Session(bob).CreateProfile(ctx, "bob", "Bob")
	require.NoError(t, err)

	fs := b.Session(alice)
	up, err := fs.OpenAtomic(ctx, store.OpenRequest{Name: "done", Content: []byte("x"), ChunkCount: 1})
	require.NoError(t, err)
	part, err := fs.OpenAtomic(ctx, store.OpenRequest{Name: "half", Content: []byte("x"), ChunkCount: 2})
	require.NoError(t, err)
	return &fixture{backend: b, uploaded: up, partial: part}
}

func TestController_ShareErrors(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name    string
		caller  principal.Identity
		fileID  uint64
		grantee string
		want    Kind
		cause   error
	}{
		{"anonymous", principal.Anonymous, f.uploaded, "bob", NotAuthenticated, store.ErrNotAuthenticated},
		{"missing file", alice, 999, "bob", PermissionDenied, store.ErrPermissionDenied},
		{"not owner", bob, f.uploaded, "alice", PermissionDenied, store.ErrPermissionDenied},
		{"unknown user", alice, f.uploaded, "mallory", UserNotFound, store.ErrUserNotFound},
		{"self", alice, f.uploaded, "alice", InvalidInput, store.ErrSelfShare},
		{"empty grantee", alice, f.uploaded, "  ", InvalidInput, store.ErrInvalidInput},
		{"partial file", alice, f.partial, "bob", FileNotUploaded, store.ErrNotUploaded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewController(f.backend.Session(tt.caller))
			err := c.Share(context.Background(), tt.fileID, tt.grantee)

			var se *Error
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.want, se.Kind)
			assert.Equal(t, tt.fileID, se.FileID)
			assert.ErrorIs(t, err, tt.cause)
			assert.True(t, IsKind(err, tt.want))
		})
	}
}

func TestController_LifecycleDrivesKeyAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := NewController(f.backend.Session(alice))

	denied := func() bool {
		_, err := f.backend.DerivationIdentity(ctx, bob, f.uploaded)
		return errors.Is(err, store.ErrPermissionDenied)
	}
	assert.True(t, denied())

	require.NoError(t, c.Share(ctx, f.uploaded, "bob"))
	assert.False(t, denied())
	require.NoError(t, c.Share(ctx, f.uploaded, "bob"), "sharing twice is a no-op")

	grantees, err := c.ListGrantees(ctx, f.uploaded)
	require.NoError(t, err)
	require.Len(t, grantees, 1)
	assert.Equal(t, "bob", grantees[0].Username)

	shared, err := NewController(f.backend.Session(bob)).SharedFiles(ctx)
	require.NoError(t, err)
	require.Len(t, shared.SharedWithMe, 1)
	assert.Equal(t, f.uploaded, shared.SharedWithMe[0].FileID)
	assert.Empty(t, shared.Owned)

	require.NoError(t, c.Unshare(ctx, f.uploaded, "bob"))
	assert.True(t, denied())
	require.NoError(t, c.Unshare(ctx, f.uploaded, "bob"), "unsharing twice succeeds")

	grantees, err = c.ListGrantees(ctx, f.uploaded)
	require.NoError(t, err)
	assert.Empty(t, grantees)
}

func TestController_ShareGrantsDecryptionImmediately(t *testing.T) {
	ctx := context.Background()
	b, err := store.NewBackend(ctx, store.NewMemChunkStore())
	require.NoError(t, err)
	_, err = b.Session(bob).CreateProfile(ctx, "bob", "")
	require.NoError(t, err)

	master, err := ibe.GenerateMasterKey(nil)
	require.NoError(t, err)
	svc := idcrypto.NewService(keyauth.NewAuthority(master, b))

	payload, err := svc.Encrypt(ctx, []byte("hello"), alice)
	require.NoError(t, err)
	id, err := b.Session(alice).OpenAtomic(ctx, store.OpenRequest{Name: "h", Content: payload, ChunkCount: 1, Encrypted: true})
	require.NoError(t, err)

	_, err = svc.Decrypt(ctx, payload, bob, &id)
	assert.ErrorIs(t, err, idcrypto.ErrAccessDenied)

	c := NewController(b.Session(alice))
	require.NoError(t, c.Share(ctx, id, "bob"))
	plain, err := svc.Decrypt(ctx, payload, bob, &id)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), plain)

	require.NoError(t, c.Unshare(ctx, id, "bob"))
	_, err = svc.Decrypt(ctx, payload, bob, &id)
	assert.ErrorIs(t, err, idcrypto.ErrAccessDenied)
}

type brokenStore struct{ store.SharingStore }

var errOffline = errors.New("connection refused")

func (brokenStore) Share(context.Context, uint64, string) error { return errOffline }

func TestController_TransportErrorsAreNotSharingErrors(t *testing.T) {
	err := NewController(brokenStore{}).Share(context.Background(), 1, "bob")
	assert.ErrorIs(t, err, errOffline)
	var se *Error
	assert.False(t, errors.As(err, &se))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "File not uploaded", FileNotUploaded.String())
	assert.Equal(t, "Unknown error", Kind(0).String())

	err := &Error{Kind: UserNotFound, FileID: 7, Grantee: "mallory", Err: store.ErrUserNotFound}
	assert.Equal(t, `sharing: file 7, grantee "mallory": User not found`, err.Error())
}
