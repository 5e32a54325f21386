// Package transport implements the one-time key pair used to receive an
// identity decryption key from the key authority.
//
// The authority never returns a decryption key in the clear. It wraps the
// key to the caller's transport public key:
//
//	eph          = fresh secp256k1 key pair
//	shared_x     = ECDH(eph, P_transport).x
//	wrap_key     = HKDF-SHA256(shared_x, SHA256(P_eph || P_transport), "wetkey-transport-key")
//	wrapped      = P_eph(33B) || nonce(12B) || AES-256-GCM(secret, ad = context) || tag(16B)
//
// where context is the identity the wrapped key was derived for. Only the
// holder of the transport private key can unwrap, and a wrapped key cannot
// be replayed under a different context.
package transport

import (
	"fmt"
	"sync"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
)

// PublicKeyLen is the length of a compressed secp256k1 public key.
const PublicKeyLen = 33

// KeyPair is an ephemeral transport key pair. It is single use: call
// Zeroize once the wrapped key has been unwrapped or the request failed.
type KeyPair struct {
	mu   sync.Mutex
	priv *ec.PrivateKey
	pub  []byte
}

// NewKeyPair generates a fresh transport key pair.
func NewKeyPair() (*KeyPair, error) {
	priv, err := ec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("transport: generate key: %w", err)
	}
	return &KeyPair{priv: priv, pub: priv.PubKey().Compressed()}, nil
}

// PublicKey returns the compressed public key to send to the authority.
func (kp *KeyPair) PublicKey() []byte {
	return append([]byte(nil), kp.pub...)
}

// Unwrap recovers the secret the authority wrapped to this key pair.
// context must equal the one the authority used.
func (kp *KeyPair) Unwrap(wrapped, context []byte) ([]byte, error) {
	kp.mu.Lock()
	defer kp.mu.Unlock()
	if kp.priv == nil {
		return nil, ErrKeyZeroized
	}
	if len(wrapped) < MinWrappedLen {
		return nil, ErrInvalidWrapped
	}
	ephPub, err := ec.PublicKeyFromBytes(wrapped[:PublicKeyLen])
	if err != nil {
		return nil, fmt.Errorf("%w: ephemeral key: %w", ErrInvalidWrapped, err)
	}
	sharedX, err := ecdh(kp.priv, ephPub)
	if err != nil {
		return nil, err
	}
	defer Zero(sharedX)

	key, err := deriveWrapKey(sharedX, wrapped[:PublicKeyLen], kp.pub)
	if err != nil {
		return nil, err
	}
	defer Zero(key)
	return aesGCMOpen(wrapped[PublicKeyLen:], key, context)
}

// Zeroize wipes the private scalar. It is safe to call more than once.
func (kp *KeyPair) Zeroize() {
	kp.mu.Lock()
	defer kp.mu.Unlock()
	if kp.priv == nil {
		return
	}
	kp.priv.D.SetInt64(0)
	kp.priv = nil
}

// Zero overwrites b with zeros.
func Zero(b []byte) {
	clear(b)
}
