package transport

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"golang.org/x/crypto/hkdf"
)

const (
	// HKDFInfo is the info string for wrap-key derivation.
	HKDFInfo = "wetkey-transport-key"

	// NonceLen is the length of the AES-GCM nonce in bytes.
	NonceLen = 12

	// GCMTagLen is the length of the GCM authentication tag in bytes.
	GCMTagLen = 16

	// MinWrappedLen is the minimum valid wrapped key length.
	MinWrappedLen = PublicKeyLen + NonceLen + GCMTagLen

	wrapKeyLen = 32
)

// Wrap encrypts secret to the transport public key. It is the authority
// side of Unwrap.
func Wrap(transportPub, secret, context []byte) ([]byte, error) {
	recipient, err := ec.PublicKeyFromBytes(transportPub)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPublicKey, err)
	}
	eph, err := ec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("transport: generate ephemeral key: %w", err)
	}
	defer eph.D.SetInt64(0)

	sharedX, err := ecdh(eph, recipient)
	if err != nil {
		return nil, err
	}
	defer Zero(sharedX)

	ephPub := eph.PubKey().Compressed()
	key, err := deriveWrapKey(sharedX, ephPub, recipient.Compressed())
	if err != nil {
		return nil, err
	}
	defer Zero(key)

	sealed, err := aesGCMSeal(secret, key, context)
	if err != nil {
		return nil, err
	}
	return append(ephPub, sealed...), nil
}

// ecdh returns the x-coordinate of priv*pub, zero-padded to 32 bytes.
func ecdh(priv *ec.PrivateKey, pub *ec.PublicKey) ([]byte, error) {
	shared, err := priv.DeriveSharedSecret(pub)
	if err != nil {
		return nil, fmt.Errorf("transport: ECDH failed: %w", err)
	}
	out := make([]byte, 32)
	shared.X.FillBytes(out)
	return out, nil
}

// deriveWrapKey binds the wrap key to both public keys through the salt.
func deriveWrapKey(sharedX, ephPub, transportPub []byte) ([]byte, error) {
	h := sha256.New()
	h.Write(ephPub)
	h.Write(transportPub)
	salt := h.Sum(nil)

	r := hkdf.New(sha256.New, sharedX, salt, []byte(HKDFInfo))
	key := make([]byte, wrapKeyLen)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHKDFFailure, err)
	}
	return key, nil
}

// aesGCMSeal returns nonce(12B) || ciphertext || tag(16B).
func aesGCMSeal(plaintext, key, ad []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("transport: random nonce generation failed: %w", err)
	}
	return gcm.Seal(nonce, nonce, plaintext, ad), nil
}

func aesGCMOpen(sealed, key, ad []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < gcm.NonceSize()+GCMTagLen {
		return nil, ErrInvalidWrapped
	}
	plaintext, err := gcm.Open(nil, sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():], ad)
	if err != nil {
		return nil, ErrUnwrapFailed
	}
	if plaintext == nil {
		plaintext = []byte{}
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("transport: AES cipher creation failed: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("transport: GCM creation failed: %w", err)
	}
	return gcm, nil
}
