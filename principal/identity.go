// Package principal defines the opaque identity used to address encryption
// keys, file ownership and sharing.
package principal

import (
	"bytes"
	"encoding/hex"
	"strings"
	"unicode/utf8"
)

// hexPrefix marks identities that are not printable text.
const hexPrefix = "0x"

// Identity is an opaque principal identifier. The empty identity is the
// anonymous principal.
type Identity []byte

// Anonymous is the unauthenticated principal.
var Anonymous = Identity(nil)

// Parse converts the textual form produced by String back to an Identity.
func Parse(s string) (Identity, error) {
	if strings.HasPrefix(s, hexPrefix) {
		b, err := hex.DecodeString(s[len(hexPrefix):])
		if err != nil {
			return nil, err
		}
		return Identity(b), nil
	}
	return Identity(s), nil
}

// IsAnonymous reports whether id is the anonymous principal.
func (id Identity) IsAnonymous() bool {
	return len(id) == 0
}

// Equal reports whether two identities are byte-identical.
func (id Identity) Equal(other Identity) bool {
	return bytes.Equal(id, other)
}

// Key returns a comparable form usable as a map key.
func (id Identity) Key() string {
	return string(id)
}

// String renders printable identities verbatim and everything else as hex.
func (id Identity) String() string {
	if id.IsAnonymous() {
		return ""
	}
	if utf8.Valid(id) && !strings.HasPrefix(string(id), hexPrefix) && printable(id) {
		return string(id)
	}
	return hexPrefix + hex.EncodeToString(id)
}

func printable(b []byte) bool {
	for _, r := range string(b) {
		if r < 0x20 || r == 0x7f {
			return false
		}
	}
	return true
}
