package network

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wetkeyorg/libwetkey-go/ibe"
	"github.com/wetkeyorg/libwetkey-go/idcrypto"
	"github.com/wetkeyorg/libwetkey-go/keyauth"
	"github.com/wetkeyorg/libwetkey-go/principal"
	"github.com/wetkeyorg/libwetkey-go/store"
	"github.com/wetkeyorg/libwetkey-go/transfer"
	"github.com/wetkeyorg/libwetkey-go/transport"
)

var (
	secret = []byte("test-signing-secret")
	alice  = principal.Identity("alice")
	bob    = principal.Identity("bob")
)

type testServer struct {
	url     string
	backend *store.Backend
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	b, err := store.NewBackend(context.Background(), store.NewMemChunkStore())
	require.NoError(t, err)
	master, err := ibe.GenerateMasterKey(nil)
	require.NoError(t, err)

	srv := httptest.NewServer(NewServer(b, keyauth.NewAuthority(master, b), secret))
	t.Cleanup(srv.Close)
	return &testServer{url: srv.URL, backend: b}
}

func (ts *testServer) client(t *testing.T, who principal.Identity) *RPCClient {
	t.Helper()
	cfg := ClientConfig{Endpoint: ts.url}
	if !who.IsAnonymous() {
		tok, err := IssueToken(who, secret, time.Hour)
		require.NoError(t, err)
		cfg.Token = tok
	}
	return NewRPCClient(cfg)
}

func TestServer_EncryptedTransferOverRPC(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t)

	aliceRPC, bobRPC := ts.client(t, alice), ts.client(t, bob)
	aliceStore, bobStore := NewRemoteStore(aliceRPC), NewRemoteStore(bobRPC)
	_, err := bobStore.CreateProfile(ctx, "bob", "Bob")
	require.NoError(t, err)

	aliceCrypto := idcrypto.NewService(NewRemoteAuthority(aliceRPC))
	bobCrypto := idcrypto.NewService(NewRemoteAuthority(bobRPC))

	data := bytes.Repeat([]byte("wetkey"), 1000)
	up := transfer.NewSession(aliceStore, aliceCrypto, transfer.WithConfig(transfer.Config{ChunkSize: 1024}))
	id, err := up.Upload(ctx, transfer.File{Name: "w.txt", ContentType: "text/plain", Data: data}, alice, transfer.UploadOptions{Encrypt: true})
	require.NoError(t, err)

	meta, err := aliceStore.FileInfo(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, store.StatusUploaded, meta.Status.Kind)
	assert.Greater(t, meta.ChunkCount, uint64(1))

	got, err := transfer.NewSession(aliceStore, aliceCrypto).Download(ctx, *meta, alice)
	require.NoError(t, err)
	assert.Equal(t, data, got.Data)
	assert.Equal(t, "text/plain", got.ContentType)

	_, err = transfer.NewSession(bobStore, bobCrypto).Download(ctx, *meta, bob)
	assert.ErrorIs(t, err, idcrypto.ErrAccessDenied)

	require.NoError(t, aliceStore.Share(ctx, id, "bob"))
	got, err = transfer.NewSession(bobStore, bobCrypto).Download(ctx, *meta, bob)
	require.NoError(t, err)
	assert.Equal(t, data, got.Data)

	grantees, err := aliceStore.ListGrantees(ctx, id)
	require.NoError(t, err)
	require.Len(t, grantees, 1)
	assert.Equal(t, bob, grantees[0].Identity)

	require.NoError(t, aliceStore.Unshare(ctx, id, "bob"))
	_, err = transfer.NewSession(bobStore, bobCrypto).Download(ctx, *meta, bob)
	assert.ErrorIs(t, err, idcrypto.ErrAccessDenied)
}

func TestServer_StoreErrorsKeepTheirIdentity(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t)
	fs := NewRemoteStore(ts.client(t, alice))

	_, err := fs.FetchChunk(ctx, 99, 0)
	assert.ErrorIs(t, err, store.ErrNotFound)

	id, err := fs.OpenAtomic(ctx, store.OpenRequest{Name: "two", Content: []byte("a"), ChunkCount: 2})
	require.NoError(t, err)
	err = fs.ContinueChunk(ctx, id, 5, []byte("b"))
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	_, err = fs.CreateProfile(ctx, "alice", "")
	require.NoError(t, err)
	err = fs.Share(ctx, id, "alice")
	assert.ErrorIs(t, err, store.ErrSelfShare)
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	anon := NewRemoteStore(ts.client(t, principal.Anonymous))
	_, err = anon.ListFiles(ctx)
	assert.ErrorIs(t, err, store.ErrNotAuthenticated)
}

func TestServer_KeyRequestMustMatchSubject(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t)
	auth := NewRemoteAuthority(ts.client(t, bob))

	kp, err := transport.NewKeyPair()
	require.NoError(t, err)
	defer kp.Zeroize()

	_, err = auth.GetEncryptedDecryptionKey(ctx, kp.PublicKey(), alice, nil)
	assert.ErrorIs(t, err, keyauth.ErrAccessDenied)

	wrapped, err := auth.GetEncryptedDecryptionKey(ctx, kp.PublicKey(), bob, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, wrapped)

	anon := NewRemoteAuthority(ts.client(t, principal.Anonymous))
	_, err = anon.GetEncryptedDecryptionKey(ctx, kp.PublicKey(), bob, nil)
	assert.ErrorIs(t, err, keyauth.ErrAccessDenied)

	pk, err := anon.GetPublicKey(ctx)
	require.NoError(t, err)
	_, err = ibe.ParsePublicKey(pk)
	assert.NoError(t, err)
}

func TestServer_RejectsBadRequests(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.url)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	bad := NewRPCClient(ClientConfig{Endpoint: ts.url, Token: "not-a-jwt"})
	err = bad.Call(context.Background(), MethodListFiles, nil, nil)
	assert.ErrorIs(t, err, ErrAuthFailed)

	err = ts.client(t, alice).Call(context.Background(), "store.format", nil, nil)
	assert.ErrorIs(t, err, ErrUnknownMethod)

	err = ts.client(t, alice).Call(context.Background(), MethodFileInfo, []int{1, 2}, nil)
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestTokens(t *testing.T) {
	tok, err := IssueToken(alice, secret, time.Hour)
	require.NoError(t, err)
	id, err := ParseToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, alice, id)

	binary := principal.Identity{0x00, 0xff}
	tok, err = IssueToken(binary, secret, time.Hour)
	require.NoError(t, err)
	id, err = ParseToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, binary, id)

	_, err = ParseToken(tok, []byte("other-secret"))
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := IssueToken(alice, secret, -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(expired, secret)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = IssueToken(principal.Anonymous, secret, time.Hour)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenSubject(t *testing.T) {
	tok, err := IssueToken(alice, secret, time.Hour)
	require.NoError(t, err)
	id, err := TokenSubject(tok)
	require.NoError(t, err)
	assert.Equal(t, alice, id)

	_, err = TokenSubject("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
