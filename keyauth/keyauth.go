// Package keyauth defines the key authority contract and a local authority
// that holds the IBE master secret.
package keyauth

import (
	"context"

	"github.com/wetkeyorg/libwetkey-go/principal"
)

// KeyAuthority issues the IBE master public key and wrapped identity keys.
type KeyAuthority interface {
	// GetPublicKey returns the serialized master public key.
	GetPublicKey(ctx context.Context) ([]byte, error)

	// GetEncryptedDecryptionKey returns an identity key wrapped to
	// transportPublicKey. identity is the caller; fileID, when non-nil,
	// names the file whose key is requested.
	GetEncryptedDecryptionKey(ctx context.Context, transportPublicKey []byte, identity principal.Identity, fileID *uint64) ([]byte, error)
}

// AccessPolicy decides which identity's key a caller may obtain for a file.
type AccessPolicy interface {
	// DerivationIdentity returns the file owner's identity when caller is
	// the owner or a grantee of fileID, and an error otherwise.
	DerivationIdentity(ctx context.Context, caller principal.Identity, fileID uint64) (principal.Identity, error)
}

// AccessPolicyFunc adapts a function to AccessPolicy.
type AccessPolicyFunc func(ctx context.Context, caller principal.Identity, fileID uint64) (principal.Identity, error)

// DerivationIdentity calls f.
func (f AccessPolicyFunc) DerivationIdentity(ctx context.Context, caller principal.Identity, fileID uint64) (principal.Identity, error) {
	return f(ctx, caller, fileID)
}
