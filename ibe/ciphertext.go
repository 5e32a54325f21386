package ibe

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"go.dedis.ch/kyber/v3"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// Magic prefixes every serialized ciphertext.
	Magic = "WKIBE"

	// Version is the current serialization version.
	Version byte = 1

	// maxIdentityLen bounds the identity field when parsing.
	maxIdentityLen = 1 << 12
)

// Ciphertext is an IBE ciphertext bound to one recipient identity.
type Ciphertext struct {
	identity []byte
	u        kyber.Point
	masked   [SeedLen]byte
	sealed   []byte
}

// Identity returns the recipient identity the ciphertext was encrypted to.
func (c *Ciphertext) Identity() []byte {
	return append([]byte(nil), c.identity...)
}

// header encodes everything except the sealed content. It is also the AEAD
// associated data, so tampering with any header field fails decryption.
func (c *Ciphertext) header() ([]byte, error) {
	u, err := c.u.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("ibe: marshal header: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString(Magic)
	buf.WriteByte(Version)
	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(c.identity)))
	buf.Write(lenBuf[:n])
	buf.Write(c.identity)
	buf.Write(u)
	buf.Write(c.masked[:])
	return buf.Bytes(), nil
}

// Serialize encodes the ciphertext as
// magic | version | uvarint(len id) | id | C1 | C2 | sealed content.
func (c *Ciphertext) Serialize() ([]byte, error) {
	h, err := c.header()
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(h)+len(c.sealed))
	out = append(out, h...)
	return append(out, c.sealed...), nil
}

// Deserialize parses a ciphertext produced by Serialize.
func Deserialize(b []byte) (*Ciphertext, error) {
	if len(b) < len(Magic)+1 || string(b[:len(Magic)]) != Magic {
		return nil, fmt.Errorf("%w: bad magic", ErrMalformedCiphertext)
	}
	b = b[len(Magic):]
	if b[0] != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformedCiphertext, b[0])
	}
	b = b[1:]

	idLen, n := binary.Uvarint(b)
	if n <= 0 || idLen == 0 || idLen > maxIdentityLen || uint64(len(b)-n) < idLen {
		return nil, fmt.Errorf("%w: bad identity length", ErrMalformedCiphertext)
	}
	b = b[n:]
	c := &Ciphertext{identity: append([]byte(nil), b[:idLen]...)}
	b = b[idLen:]

	pointLen := suite.G2().PointLen()
	if len(b) < pointLen+SeedLen+chacha20poly1305.Overhead {
		return nil, fmt.Errorf("%w: truncated", ErrMalformedCiphertext)
	}
	c.u = suite.G2().Point()
	if err := c.u.UnmarshalBinary(b[:pointLen]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedCiphertext, err)
	}
	b = b[pointLen:]
	copy(c.masked[:], b[:SeedLen])
	c.sealed = append([]byte(nil), b[SeedLen:]...)
	return c, nil
}
