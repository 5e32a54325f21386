package vault

import (
	"context"

	"github.com/wetkeyorg/libwetkey-go/store"
)

// Share grants grantee read access to one of the caller's files.
func (v *Vault) Share(ctx context.Context, fileID uint64, grantee string) error {
	return v.Sharing.Share(ctx, fileID, grantee)
}

// Unshare revokes a grant. Content already downloaded stays readable.
func (v *Vault) Unshare(ctx context.Context, fileID uint64, grantee string) error {
	return v.Sharing.Unshare(ctx, fileID, grantee)
}

// Grantees lists the users a file is shared with.
func (v *Vault) Grantees(ctx context.Context, fileID uint64) ([]store.User, error) {
	return v.Sharing.ListGrantees(ctx, fileID)
}

// SharedFiles returns the caller's owned files and the files shared with it.
func (v *Vault) SharedFiles(ctx context.Context) (*store.SharedFiles, error) {
	return v.Sharing.SharedFiles(ctx)
}

// CreateProfile registers the caller under username so others can share
// files with it.
func (v *Vault) CreateProfile(ctx context.Context, username, displayName string) (*store.User, error) {
	return v.Store.CreateProfile(ctx, username, displayName)
}

// LookupUser resolves a username.
func (v *Vault) LookupUser(ctx context.Context, username string) (*store.User, error) {
	return v.Store.LookupUser(ctx, username)
}
