package idcrypto

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wetkeyorg/libwetkey-go/ibe"
	"github.com/wetkeyorg/libwetkey-go/keyauth"
	"github.com/wetkeyorg/libwetkey-go/principal"
	"github.com/wetkeyorg/libwetkey-go/transport"
)

var (
	alice = principal.Identity("alice")
	bob   = principal.Identity("bob")
)

// --- Helper ---

type sharePolicy struct {
	sharedWithBob bool
}

func (p *sharePolicy) DerivationIdentity(_ context.Context, caller principal.Identity, _ uint64) (principal.Identity, error) {
	if caller.Equal(alice) || (caller.Equal(bob) && p.sharedWithBob) {
		return alice, nil
	}
	return nil, errors.New("not a grantee")
}

// countingAuthority forwards to a real authority and counts calls.
func countingAuthority(t *testing.T, policy keyauth.AccessPolicy) (*keyauth.MockKeyAuthority, *ibe.MasterKey) {
	t.Helper()
	master, err := ibe.GenerateMasterKey(nil)
	require.NoError(t, err)
	inner := keyauth.NewAuthority(master, policy)
	return &keyauth.MockKeyAuthority{
		GetPublicKeyFn:              inner.GetPublicKey,
		GetEncryptedDecryptionKeyFn: inner.GetEncryptedDecryptionKey,
	}, master
}

// --- Tests ---

func TestService_EncryptDecrypt_Owner(t *testing.T) {
	auth, _ := countingAuthority(t, &sharePolicy{})
	svc := NewService(auth)
	ctx := context.Background()

	payload, err := svc.Encrypt(ctx, []byte("hello"), alice)
	require.NoError(t, err)
	assert.NotContains(t, string(payload), "hello")

	plain, err := svc.Decrypt(ctx, payload, alice, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), plain)

	fileID := uint64(7)
	plain, err = svc.Decrypt(ctx, payload, alice, &fileID)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), plain)
}

func TestService_ShareLifecycle(t *testing.T) {
	policy := &sharePolicy{}
	auth, _ := countingAuthority(t, policy)
	svc := NewService(auth)
	ctx := context.Background()
	fileID := uint64(1)

	payload, err := svc.Encrypt(ctx, []byte("hello"), alice)
	require.NoError(t, err)

	_, err = svc.Decrypt(ctx, payload, bob, &fileID)
	assert.ErrorIs(t, err, ErrAccessDenied)

	policy.sharedWithBob = true
	plain, err := svc.Decrypt(ctx, payload, bob, &fileID)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), plain)

	policy.sharedWithBob = false
	_, err = svc.Decrypt(ctx, payload, bob, &fileID)
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.ErrorIs(t, err, keyauth.ErrAccessDenied)
}

func TestService_DecryptWithoutFileContextUsesCallerKey(t *testing.T) {
	auth, _ := countingAuthority(t, &sharePolicy{sharedWithBob: true})
	svc := NewService(auth)
	ctx := context.Background()

	payload, err := svc.Encrypt(ctx, []byte("hello"), alice)
	require.NoError(t, err)

	// Bob's own key cannot open a payload for alice.
	_, err = svc.Decrypt(ctx, payload, bob, nil)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestService_PublicKeyCache(t *testing.T) {
	auth, _ := countingAuthority(t, &sharePolicy{})
	now := time.Unix(1000, 0)
	svc := NewService(auth, WithPublicKeyTTL(time.Minute), WithClock(func() time.Time { return now }))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Encrypt(ctx, []byte("x"), alice)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, auth.PublicKeyCalls)

	now = now.Add(2 * time.Minute)
	_, err := svc.Encrypt(ctx, []byte("x"), alice)
	require.NoError(t, err)
	assert.Equal(t, 2, auth.PublicKeyCalls)
}

func TestService_RotatedAuthorityDropsCachedKey(t *testing.T) {
	auth, _ := countingAuthority(t, &sharePolicy{})
	svc := NewService(auth, WithPublicKeyTTL(time.Hour))
	ctx := context.Background()

	payload, err := svc.Encrypt(ctx, []byte("hello"), alice)
	require.NoError(t, err)
	assert.Equal(t, 1, auth.PublicKeyCalls)

	rotated, err := ibe.GenerateMasterKey(nil)
	require.NoError(t, err)
	next := keyauth.NewAuthority(rotated, &sharePolicy{})
	auth.GetPublicKeyFn = next.GetPublicKey
	auth.GetEncryptedDecryptionKeyFn = next.GetEncryptedDecryptionKey

	_, err = svc.Decrypt(ctx, payload, alice, nil)
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	// The stale key was dropped, so the next payload uses the rotated key.
	payload, err = svc.Encrypt(ctx, []byte("hello"), alice)
	require.NoError(t, err)
	assert.Equal(t, 2, auth.PublicKeyCalls)
	plain, err := svc.Decrypt(ctx, payload, alice, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), plain)
}

func TestService_EncryptIsNonDeterministic(t *testing.T) {
	auth, _ := countingAuthority(t, &sharePolicy{})
	svc := NewService(auth)
	ctx := context.Background()

	first, err := svc.Encrypt(ctx, []byte("hello"), alice)
	require.NoError(t, err)
	second, err := svc.Encrypt(ctx, []byte("hello"), alice)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	for _, payload := range [][]byte{first, second} {
		plain, err := svc.Decrypt(ctx, payload, alice, nil)
		require.NoError(t, err)
		assert.Equal(t, []byte("hello"), plain)
	}
}

func TestService_ZeroTTLAlwaysFetches(t *testing.T) {
	auth, _ := countingAuthority(t, &sharePolicy{})
	svc := NewService(auth, WithPublicKeyTTL(0))
	for i := 0; i < 2; i++ {
		_, err := svc.Encrypt(context.Background(), []byte("x"), alice)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, auth.PublicKeyCalls)
}

func TestService_KeyUnavailable(t *testing.T) {
	svc := NewService(&keyauth.MockKeyAuthority{})
	_, err := svc.Encrypt(context.Background(), []byte("hello"), alice)
	assert.ErrorIs(t, err, ErrKeyUnavailable)

	_, err = svc.Encrypt(context.Background(), []byte("hello"), principal.Anonymous)
	assert.ErrorIs(t, err, ErrKeyUnavailable)
}

func TestService_PinnedKeyMismatch(t *testing.T) {
	auth, _ := countingAuthority(t, &sharePolicy{})
	other, err := ibe.GenerateMasterKey(nil)
	require.NoError(t, err)

	svc := NewService(auth, WithPinnedPublicKey(other.PublicKey()))
	_, err = svc.Encrypt(context.Background(), []byte("hello"), alice)
	assert.ErrorIs(t, err, ErrKeyUnavailable)
}

func TestService_RejectsKeyForWrongIdentity(t *testing.T) {
	auth, master := countingAuthority(t, &sharePolicy{})
	svc := NewService(auth)
	ctx := context.Background()
	payload, err := svc.Encrypt(ctx, []byte("hello"), alice)
	require.NoError(t, err)

	// A misbehaving authority wraps bob's key under alice's context.
	auth.GetEncryptedDecryptionKeyFn = func(_ context.Context, tpk []byte, _ principal.Identity, _ *uint64) ([]byte, error) {
		dk, err := master.Derive(bob)
		require.NoError(t, err)
		return transport.Wrap(tpk, dk.Bytes(), alice)
	}
	_, err = svc.Decrypt(ctx, payload, alice, nil)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
	assert.ErrorIs(t, err, ibe.ErrKeyMismatch)
}

func TestService_DecryptMalformed(t *testing.T) {
	auth, _ := countingAuthority(t, &sharePolicy{})
	svc := NewService(auth)

	_, err := svc.Decrypt(context.Background(), nil, alice, nil)
	assert.ErrorIs(t, err, ErrEmptyCiphertext)

	_, err = svc.Decrypt(context.Background(), []byte("not a ciphertext"), alice, nil)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
	assert.Equal(t, 0, auth.KeyCalls)
}

func TestService_AuthorityUnavailableOnDecrypt(t *testing.T) {
	auth, _ := countingAuthority(t, &sharePolicy{})
	svc := NewService(auth)
	payload, err := svc.Encrypt(context.Background(), []byte("hello"), alice)
	require.NoError(t, err)

	auth.GetEncryptedDecryptionKeyFn = nil
	_, err = svc.Decrypt(context.Background(), payload, alice, nil)
	assert.ErrorIs(t, err, ErrKeyUnavailable)
}
