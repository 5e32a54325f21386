package transport

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapUnwrap_RoundTrip(t *testing.T) {
	kp, err := NewKeyPair()
	require.NoError(t, err)
	defer kp.Zeroize()

	assert.Len(t, kp.PublicKey(), PublicKeyLen)

	secret := bytes.Repeat([]byte{0x42}, 64)
	wrapped, err := Wrap(kp.PublicKey(), secret, []byte("alice"))
	require.NoError(t, err)
	assert.Len(t, wrapped, MinWrappedLen+len(secret))

	got, err := kp.Unwrap(wrapped, []byte("alice"))
	require.NoError(t, err)
	assert.Equal(t, secret, got)
}

func TestUnwrap_WrongContext(t *testing.T) {
	kp, err := NewKeyPair()
	require.NoError(t, err)

	wrapped, err := Wrap(kp.PublicKey(), []byte("secret"), []byte("alice"))
	require.NoError(t, err)

	_, err = kp.Unwrap(wrapped, []byte("bob"))
	assert.ErrorIs(t, err, ErrUnwrapFailed)
}

func TestUnwrap_WrongKeyPair(t *testing.T) {
	kp, err := NewKeyPair()
	require.NoError(t, err)
	other, err := NewKeyPair()
	require.NoError(t, err)

	wrapped, err := Wrap(kp.PublicKey(), []byte("secret"), nil)
	require.NoError(t, err)

	_, err = other.Unwrap(wrapped, nil)
	assert.ErrorIs(t, err, ErrUnwrapFailed)
}

func TestUnwrap_Tampered(t *testing.T) {
	kp, err := NewKeyPair()
	require.NoError(t, err)
	wrapped, err := Wrap(kp.PublicKey(), []byte("secret"), nil)
	require.NoError(t, err)

	wrapped[len(wrapped)-1] ^= 0xff
	_, err = kp.Unwrap(wrapped, nil)
	assert.ErrorIs(t, err, ErrUnwrapFailed)
}

func TestUnwrap_TooShort(t *testing.T) {
	kp, err := NewKeyPair()
	require.NoError(t, err)
	_, err = kp.Unwrap(make([]byte, MinWrappedLen-1), nil)
	assert.ErrorIs(t, err, ErrInvalidWrapped)
}

func TestZeroize(t *testing.T) {
	kp, err := NewKeyPair()
	require.NoError(t, err)
	wrapped, err := Wrap(kp.PublicKey(), []byte("secret"), nil)
	require.NoError(t, err)

	kp.Zeroize()
	kp.Zeroize()
	_, err = kp.Unwrap(wrapped, nil)
	assert.ErrorIs(t, err, ErrKeyZeroized)
}

func TestWrap_InvalidPublicKey(t *testing.T) {
	_, err := Wrap([]byte{0x02, 0x01}, []byte("secret"), nil)
	assert.ErrorIs(t, err, ErrInvalidPublicKey)
}

func TestZero(t *testing.T) {
	b := []byte{1, 2, 3}
	Zero(b)
	assert.Equal(t, []byte{0, 0, 0}, b)
}
