package keyauth

import (
	"context"

	"github.com/wetkeyorg/libwetkey-go/principal"
)

// MockKeyAuthority is a test double whose behavior is set per field.
// Unset fields return ErrUnavailable.
type MockKeyAuthority struct {
	GetPublicKeyFn              func(ctx context.Context) ([]byte, error)
	GetEncryptedDecryptionKeyFn func(ctx context.Context, tpk []byte, identity principal.Identity, fileID *uint64) ([]byte, error)

	PublicKeyCalls int
	KeyCalls       int
}

var _ KeyAuthority = (*MockKeyAuthority)(nil)

func (m *MockKeyAuthority) GetPublicKey(ctx context.Context) ([]byte, error) {
	m.PublicKeyCalls++
	if m.GetPublicKeyFn != nil {
		return m.GetPublicKeyFn(ctx)
	}
	return nil, ErrUnavailable
}

func (m *MockKeyAuthority) GetEncryptedDecryptionKey(ctx context.Context, tpk []byte, identity principal.Identity, fileID *uint64) ([]byte, error) {
	m.KeyCalls++
	if m.GetEncryptedDecryptionKeyFn != nil {
		return m.GetEncryptedDecryptionKeyFn(ctx, tpk, identity, fileID)
	}
	return nil, ErrUnavailable
}
