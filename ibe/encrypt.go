package ibe

import (
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// Encrypt encrypts msg to identity under the master public key pk.
//
// seed must be SeedLen fresh random bytes; it is the only randomness in the
// construction, so reusing a seed for two messages to the same identity
// reuses the content key.
func Encrypt(pk *PublicKey, identity, msg, seed []byte) (*Ciphertext, error) {
	if pk == nil {
		return nil, ErrNilKey
	}
	if len(seed) != SeedLen {
		return nil, ErrInvalidSeed
	}
	q, err := hashIdentity(identity)
	if err != nil {
		return nil, err
	}
	t, err := deriveScalar(seed, identity)
	if err != nil {
		return nil, err
	}
	defer t.Zero()

	ct := &Ciphertext{
		identity: append([]byte(nil), identity...),
		u:        suite.G2().Point().Mul(t, nil),
	}

	gt := suite.GT().Point().Mul(t, suite.Pair(q, pk.point))
	mask, err := gtMask(gt)
	if err != nil {
		return nil, err
	}
	xorBytes(ct.masked[:], seed, mask)

	header, err := ct.header()
	if err != nil {
		return nil, err
	}
	aead, nonce, err := contentCipher(seed, identity)
	if err != nil {
		return nil, err
	}
	ct.sealed = aead.Seal(nil, nonce, msg, header)
	return ct, nil
}

// EncryptRandom draws a seed from r (crypto/rand when nil) and encrypts.
func EncryptRandom(pk *PublicKey, identity, msg []byte, r io.Reader) (*Ciphertext, error) {
	if r == nil {
		r = rand.Reader
	}
	seed := make([]byte, SeedLen)
	if _, err := io.ReadFull(r, seed); err != nil {
		return nil, fmt.Errorf("ibe: read seed: %w", err)
	}
	defer clear(seed)
	return Encrypt(pk, identity, msg, seed)
}

// Decrypt opens the ciphertext with the identity key for its recipient.
// Every failure, including a key for a different identity, is
// ErrDecryptionFailed.
func (c *Ciphertext) Decrypt(key *IdentityKey) ([]byte, error) {
	if key == nil {
		return nil, ErrNilKey
	}
	mask, err := gtMask(suite.Pair(key.point, c.u))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}
	seed := make([]byte, SeedLen)
	defer clear(seed)
	xorBytes(seed, c.masked[:], mask)

	t, err := deriveScalar(seed, c.identity)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}
	defer t.Zero()
	if !suite.G2().Point().Mul(t, nil).Equal(c.u) {
		return nil, ErrDecryptionFailed
	}

	header, err := c.header()
	if err != nil {
		return nil, err
	}
	aead, nonce, err := contentCipher(seed, c.identity)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}
	plaintext, err := aead.Open(nil, nonce, c.sealed, header)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

// contentCipher derives the content AEAD and its nonce from the seed.
// The key is unique per seed, so a derived nonce is never reused.
func contentCipher(seed, identity []byte) (cipher.AEAD, []byte, error) {
	material, err := expand(seed, identity, infoData, chacha20poly1305.KeySize+chacha20poly1305.NonceSize)
	if err != nil {
		return nil, nil, err
	}
	aead, err := chacha20poly1305.New(material[:chacha20poly1305.KeySize])
	if err != nil {
		return nil, nil, fmt.Errorf("ibe: content cipher: %w", err)
	}
	return aead, material[chacha20poly1305.KeySize:], nil
}
