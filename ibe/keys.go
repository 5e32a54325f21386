package ibe

import (
	"crypto/rand"
	"fmt"
	"io"

	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/util/random"
)

// MasterKey is the key authority's master secret s with its public key s*g2.
type MasterKey struct {
	secret kyber.Scalar
	public kyber.Point
}

// PublicKey is the master public key, a point on G2.
type PublicKey struct {
	point kyber.Point
}

// IdentityKey is the decryption key extracted for one identity, a point on G1.
type IdentityKey struct {
	point kyber.Point
}

// GenerateMasterKey draws a new master secret from r (crypto/rand when nil).
func GenerateMasterKey(r io.Reader) (*MasterKey, error) {
	if r == nil {
		r = rand.Reader
	}
	s := suite.G2().Scalar().Pick(random.New(r))
	return &MasterKey{
		secret: s,
		public: suite.G2().Point().Mul(s, nil),
	}, nil
}

// ParseMasterKey decodes a master secret produced by MarshalBinary.
func ParseMasterKey(b []byte) (*MasterKey, error) {
	s := suite.G2().Scalar()
	if err := s.UnmarshalBinary(b); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	return &MasterKey{secret: s, public: suite.G2().Point().Mul(s, nil)}, nil
}

// MarshalBinary encodes the master secret.
func (m *MasterKey) MarshalBinary() ([]byte, error) {
	return m.secret.MarshalBinary()
}

// PublicKey returns the master public key.
func (m *MasterKey) PublicKey() *PublicKey {
	return &PublicKey{point: m.public.Clone()}
}

// Derive extracts the identity key s*H1(identity).
func (m *MasterKey) Derive(identity []byte) (*IdentityKey, error) {
	q, err := hashIdentity(identity)
	if err != nil {
		return nil, err
	}
	return &IdentityKey{point: suite.G1().Point().Mul(m.secret, q)}, nil
}

// Zeroize overwrites the master secret in memory.
func (m *MasterKey) Zeroize() {
	m.secret.Zero()
}

// ParsePublicKey decodes a master public key.
func ParsePublicKey(b []byte) (*PublicKey, error) {
	p := suite.G2().Point()
	if err := p.UnmarshalBinary(b); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	return &PublicKey{point: p}, nil
}

// Bytes returns the canonical encoding of the public key.
func (pk *PublicKey) Bytes() []byte {
	b, _ := pk.point.MarshalBinary()
	return b
}

// Equal reports whether two public keys are the same point.
func (pk *PublicKey) Equal(other *PublicKey) bool {
	if pk == nil || other == nil {
		return pk == other
	}
	return pk.point.Equal(other.point)
}

// ParseIdentityKey decodes an identity key.
func ParseIdentityKey(b []byte) (*IdentityKey, error) {
	p := suite.G1().Point()
	if err := p.UnmarshalBinary(b); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	return &IdentityKey{point: p}, nil
}

// Bytes returns the canonical encoding of the identity key.
// Callers own the returned slice and should wipe it when done.
func (k *IdentityKey) Bytes() []byte {
	b, _ := k.point.MarshalBinary()
	return b
}

// Zeroize resets the key to the neutral element.
func (k *IdentityKey) Zeroize() {
	k.point.Null()
}

// VerifyIdentityKey checks e(key, g2) == e(H1(identity), pk).
func VerifyIdentityKey(pk *PublicKey, identity []byte, key *IdentityKey) error {
	if pk == nil || key == nil {
		return ErrNilKey
	}
	q, err := hashIdentity(identity)
	if err != nil {
		return err
	}
	if key.point.Equal(suite.G1().Point().Null()) {
		return ErrKeyMismatch
	}
	left := suite.Pair(key.point, suite.G2().Point().Base())
	right := suite.Pair(q, pk.point)
	if !left.Equal(right) {
		return ErrKeyMismatch
	}
	return nil
}
