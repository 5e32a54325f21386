// Package sharing issues share and unshare requests against the store and
// turns its responses into a typed error taxonomy.
package sharing

import (
	"context"
	"fmt"
	"strings"

	"github.com/wetkeyorg/libwetkey-go/logging"
	"github.com/wetkeyorg/libwetkey-go/store"
)

// Controller wraps a store.SharingStore. It holds no sharing state of its
// own; every answer comes from the store at call time.
type Controller struct {
	store store.SharingStore
	log   logging.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// NewController returns a Controller over s.
func NewController(s store.SharingStore, opts ...Option) *Controller {
	c := &Controller{store: s, log: logging.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Share grants grantee, a username or textual identity, access to fileID.
// Access is effective for the next key request.
func (c *Controller) Share(ctx context.Context, fileID uint64, grantee string) error {
	grantee = strings.TrimSpace(grantee)
	if grantee == "" {
		return &Error{Kind: InvalidInput, FileID: fileID, Err: store.ErrInvalidInput}
	}
	if err := c.store.Share(ctx, fileID, grantee); err != nil {
		return c.wrap(ctx, "share", fileID, grantee, err)
	}
	c.log.Info(ctx, "file shared", "file_id", fileID, "grantee", grantee)
	return nil
}

// Unshare revokes grantee's access to fileID.
func (c *Controller) Unshare(ctx context.Context, fileID uint64, grantee string) error {
	grantee = strings.TrimSpace(grantee)
	if grantee == "" {
		return &Error{Kind: InvalidInput, FileID: fileID, Err: store.ErrInvalidInput}
	}
	if err := c.store.Unshare(ctx, fileID, grantee); err != nil {
		return c.wrap(ctx, "unshare", fileID, grantee, err)
	}
	c.log.Info(ctx, "file unshared", "file_id", fileID, "grantee", grantee)
	return nil
}

// ListGrantees returns the users fileID is currently shared with.
func (c *Controller) ListGrantees(ctx context.Context, fileID uint64) ([]store.User, error) {
	users, err := c.store.ListGrantees(ctx, fileID)
	if err != nil {
		return nil, c.wrap(ctx, "list grantees", fileID, "", err)
	}
	return users, nil
}

// SharedFiles returns the caller's owned files and the files shared with it.
func (c *Controller) SharedFiles(ctx context.Context) (*store.SharedFiles, error) {
	files, err := c.store.GetSharedFiles(ctx)
	if err != nil {
		return nil, c.wrap(ctx, "shared files", 0, "", err)
	}
	return files, nil
}

func (c *Controller) wrap(ctx context.Context, op string, fileID uint64, grantee string, err error) error {
	kind, ok := kindOf(err)
	if !ok {
		return fmt.Errorf("sharing: %s file %d: %w", op, fileID, err)
	}
	c.log.Warn(ctx, "sharing request rejected", "op", op, "file_id", fileID, "kind", kind.String())
	return &Error{Kind: kind, FileID: fileID, Grantee: grantee, Err: err}
}
