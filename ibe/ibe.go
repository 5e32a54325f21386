// Package ibe implements identity-based encryption over the BN256 pairing.
//
// The scheme follows Boneh-Franklin with a Fujisaki-Okamoto style
// re-encryption check. Identity keys are BLS-style extractions, so an
// identity key doubles as a signature on the identity and can be verified
// against the master public key before use:
//
//	mpk    = s * g2
//	Q_id   = H1(identity)               (G1)
//	dk_id  = s * Q_id                   (G1)
//	check  = e(dk_id, g2) == e(Q_id, mpk)
//
// Encryption of msg to identity under mpk with a fresh 32-byte seed:
//
//	t   = H3(seed, identity)            (scalar)
//	C1  = t * g2
//	C2  = seed XOR H2(e(Q_id, mpk)^t)
//	C3  = ChaCha20-Poly1305(H4(seed), msg, ad = identity || C1 || C2)
//
// Decryption recovers e(dk_id, C1) = e(Q_id, mpk)^t, unmasks the seed,
// recomputes t and rejects unless C1 == t * g2 before opening C3.
package ibe

import (
	"crypto/sha256"
	"fmt"
	"io"

	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/pairing/bn256"
	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/hkdf"
)

const (
	// SeedLen is the length of the per-message random seed.
	SeedLen = 32

	// identityDomain separates identity hashing from other uses of H1.
	identityDomain = "wetkey-ibe-identity:"

	// HKDF info strings for the derived values.
	infoMask   = "wetkey-ibe-mask"
	infoScalar = "wetkey-ibe-scalar"
	infoData   = "wetkey-ibe-data"
)

var suite = bn256.NewSuite()

// hashablePoint is implemented by curve points that support hashing a
// message directly onto the group.
type hashablePoint interface {
	Hash([]byte) kyber.Point
}

// hashIdentity maps an identity to Q_id on G1.
func hashIdentity(identity []byte) (kyber.Point, error) {
	if len(identity) == 0 {
		return nil, ErrEmptyIdentity
	}
	hp, ok := suite.G1().Point().(hashablePoint)
	if !ok {
		return nil, ErrUnhashableGroup
	}
	msg := make([]byte, 0, len(identityDomain)+len(identity))
	msg = append(msg, identityDomain...)
	msg = append(msg, identity...)
	return hp.Hash(msg), nil
}

// deriveScalar computes t = H3(seed, identity) by seeding a ChaCha20 stream
// from HKDF and picking a scalar from it.
func deriveScalar(seed, identity []byte) (kyber.Scalar, error) {
	material, err := expand(seed, identity, infoScalar, chacha20.KeySize+chacha20.NonceSize)
	if err != nil {
		return nil, err
	}
	stream, err := chacha20.NewUnauthenticatedCipher(material[:chacha20.KeySize], material[chacha20.KeySize:])
	if err != nil {
		return nil, fmt.Errorf("ibe: scalar stream: %w", err)
	}
	return suite.G2().Scalar().Pick(stream), nil
}

// gtMask computes H2(gt) for a target-group element.
func gtMask(gt kyber.Point) ([]byte, error) {
	raw, err := gt.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("ibe: marshal GT: %w", err)
	}
	return expand(raw, nil, infoMask, SeedLen)
}

// expand runs HKDF-SHA256 over ikm with the given salt and info.
func expand(ikm, salt []byte, info string, n int) ([]byte, error) {
	r := hkdf.New(sha256.New, ikm, salt, []byte(info))
	out := make([]byte, n)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("ibe: hkdf: %w", err)
	}
	return out, nil
}

func xorBytes(dst, a, b []byte) {
	for i := range dst {
		dst[i] = a[i] ^ b[i]
	}
}
