package daemon

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters for sealing the master key.
const (
	Argon2Time        = 3
	Argon2Memory      = 64 * 1024 // 64 MB
	Argon2Parallelism = 4
	Argon2KeyLen      = 32

	SaltLen  = 16
	NonceLen = 12
)

// sealMagic marks a passphrase-sealed master key file.
var sealMagic = []byte("WKSEAL1\n")

var (
	// ErrSealed indicates the master key file is sealed and no passphrase was given.
	ErrSealed = errors.New("daemon: master key is sealed, passphrase required")

	// ErrUnsealFailed indicates a wrong passphrase or a corrupted key file.
	ErrUnsealFailed = errors.New("daemon: master key unseal failed (wrong passphrase or corrupted data)")
)

// isSealed reports whether data was produced by seal.
func isSealed(data []byte) bool {
	return bytes.HasPrefix(data, sealMagic)
}

// seal encrypts raw with Argon2id + AES-256-GCM.
//
// Output format: magic || salt(16B) || nonce(12B) || AES-GCM(argon2id(passphrase,salt), nonce, raw)
func seal(raw []byte, passphrase string) ([]byte, error) {
	salt := make([]byte, SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("daemon: generate salt: %w", err)
	}
	gcm, err := sealCipher(passphrase, salt)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("daemon: generate nonce: %w", err)
	}

	header := make([]byte, 0, len(sealMagic)+SaltLen+NonceLen)
	header = append(header, sealMagic...)
	header = append(header, salt...)
	header = append(header, nonce...)

	out := make([]byte, len(header), len(header)+len(raw)+gcm.Overhead())
	copy(out, header)
	// The header is authenticated so a swapped salt fails to open.
	return gcm.Seal(out, nonce, raw, header), nil
}

// unseal reverses seal.
func unseal(data []byte, passphrase string) ([]byte, error) {
	header := len(sealMagic) + SaltLen + NonceLen
	if !isSealed(data) || len(data) < header {
		return nil, ErrUnsealFailed
	}
	salt := data[len(sealMagic) : len(sealMagic)+SaltLen]
	nonce := data[len(sealMagic)+SaltLen : header]

	gcm, err := sealCipher(passphrase, salt)
	if err != nil {
		return nil, ErrUnsealFailed
	}
	raw, err := gcm.Open(nil, nonce, data[header:], data[:header])
	if err != nil {
		return nil, ErrUnsealFailed
	}
	return raw, nil
}

func sealCipher(passphrase string, salt []byte) (cipher.AEAD, error) {
	key := argon2.IDKey([]byte(passphrase), salt, Argon2Time, Argon2Memory, Argon2Parallelism, Argon2KeyLen)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("daemon: AES cipher creation failed: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("daemon: GCM creation failed: %w", err)
	}
	return gcm, nil
}
