package keyauth

import (
	"context"
	"fmt"

	"github.com/wetkeyorg/libwetkey-go/ibe"
	"github.com/wetkeyorg/libwetkey-go/logging"
	"github.com/wetkeyorg/libwetkey-go/principal"
	"github.com/wetkeyorg/libwetkey-go/transport"
)

// Authority is an in-process key authority.
//
// Without a file context the key is derived for the caller. With a file
// context the key is derived for the file owner, after the policy confirms
// the caller is the owner or a grantee. The policy is consulted on every
// request, so share and unshare take effect immediately.
type Authority struct {
	master *ibe.MasterKey
	policy AccessPolicy
	log    logging.Logger
}

var _ KeyAuthority = (*Authority)(nil)

// AuthorityOption configures an Authority.
type AuthorityOption func(*Authority)

// WithLogger sets the authority logger.
func WithLogger(l logging.Logger) AuthorityOption {
	return func(a *Authority) { a.log = l }
}

// NewAuthority returns an authority over master. A nil policy denies every
// request that carries a file context.
func NewAuthority(master *ibe.MasterKey, policy AccessPolicy, opts ...AuthorityOption) *Authority {
	a := &Authority{master: master, policy: policy, log: logging.Nop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// GetPublicKey returns the master public key.
func (a *Authority) GetPublicKey(_ context.Context) ([]byte, error) {
	return a.master.PublicKey().Bytes(), nil
}

// GetEncryptedDecryptionKey derives and wraps the identity key.
func (a *Authority) GetEncryptedDecryptionKey(ctx context.Context, transportPublicKey []byte, identity principal.Identity, fileID *uint64) ([]byte, error) {
	if identity.IsAnonymous() {
		return nil, fmt.Errorf("%w: anonymous caller", ErrAccessDenied)
	}
	if len(transportPublicKey) != transport.PublicKeyLen {
		return nil, ErrInvalidTransportKey
	}

	derivation := identity
	if fileID != nil {
		if a.policy == nil {
			return nil, fmt.Errorf("%w: no access policy", ErrAccessDenied)
		}
		owner, err := a.policy.DerivationIdentity(ctx, identity, *fileID)
		if err != nil {
			a.log.Warn(ctx, "key request denied", "caller", identity.String(), "file_id", *fileID, "err", err)
			return nil, fmt.Errorf("%w: %w", ErrAccessDenied, err)
		}
		derivation = owner
	}

	dk, err := a.master.Derive(derivation)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer dk.Zeroize()
	raw := dk.Bytes()
	defer transport.Zero(raw)

	wrapped, err := transport.Wrap(transportPublicKey, raw, derivation)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTransportKey, err)
	}
	a.log.Debug(ctx, "issued wrapped key", "caller", identity.String(), "derivation", derivation.String())
	return wrapped, nil
}
