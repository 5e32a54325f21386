package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/wetkeyorg/libwetkey-go/principal"
)

// Share grants grantee read access to fileID.
//
// Checks run in this order: authentication, ownership, grantee lookup,
// self-share, upload status. A file that does not exist fails the
// ownership check. Sharing twice is a no-op.
func (s *Session) Share(ctx context.Context, fileID uint64, grantee string) error {
	b := s.b
	b.mu.Lock()
	defer b.mu.Unlock()

	f, target, err := s.checkShare(fileID, grantee)
	if err != nil {
		return err
	}
	if f.Status.Kind != StatusUploaded {
		return fmt.Errorf("%w: file %d is %s", ErrNotUploaded, fileID, f.Status.Kind)
	}
	m, ok := b.shares[fileID]
	if !ok {
		m = make(map[string]principal.Identity)
		b.shares[fileID] = m
	}
	m[target.Identity.Key()] = target.Identity
	b.log.Info(ctx, "file shared", "file_id", fileID, "grantee", target.Username)
	return b.persist(ctx)
}

// Unshare revokes grantee's access to fileID. Revoking a grant that does
// not exist succeeds.
func (s *Session) Unshare(ctx context.Context, fileID uint64, grantee string) error {
	b := s.b
	b.mu.Lock()
	defer b.mu.Unlock()

	_, target, err := s.checkShare(fileID, grantee)
	if err != nil {
		return err
	}
	if m, ok := b.shares[fileID]; ok {
		delete(m, target.Identity.Key())
		if len(m) == 0 {
			delete(b.shares, fileID)
		}
	}
	b.log.Info(ctx, "file unshared", "file_id", fileID, "grantee", target.Username)
	return b.persist(ctx)
}

// checkShare runs the checks common to Share and Unshare. Callers hold mu.
func (s *Session) checkShare(fileID uint64, grantee string) (*FileMetadata, *User, error) {
	b := s.b
	f, err := b.lookupShareable(s.caller, fileID)
	if err != nil {
		return nil, nil, err
	}
	target, err := b.resolveUser(grantee)
	if err != nil {
		return nil, nil, err
	}
	if target.Identity.Equal(s.caller) {
		return nil, nil, ErrSelfShare
	}
	return f, target, nil
}

func (s *Session) GetSharedFiles(_ context.Context) (*SharedFiles, error) {
	if s.caller.IsAnonymous() {
		return nil, ErrNotAuthenticated
	}
	b := s.b
	b.mu.Lock()
	defer b.mu.Unlock()

	return &SharedFiles{
		Owned: b.sortedFiles(func(f *FileMetadata) bool { return f.Owner.Equal(s.caller) }),
		SharedWithMe: b.sortedFiles(func(f *FileMetadata) bool {
			_, ok := b.shares[f.FileID][s.caller.Key()]
			return ok
		}),
	}, nil
}

// ListGrantees returns the users fileID is shared with. Owner only.
func (s *Session) ListGrantees(_ context.Context, fileID uint64) ([]User, error) {
	b := s.b
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.lookupShareable(s.caller, fileID); err != nil {
		return nil, err
	}
	out := make([]User, 0, len(b.shares[fileID]))
	for key, id := range b.shares[fileID] {
		if u, ok := b.byID[key]; ok {
			out = append(out, *u)
			continue
		}
		out = append(out, User{Identity: id})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// CreateProfile registers or renames the caller's username.
func (s *Session) CreateProfile(ctx context.Context, username, displayName string) (*User, error) {
	if s.caller.IsAnonymous() {
		return nil, ErrNotAuthenticated
	}
	username = strings.TrimSpace(username)
	if username == "" || strings.ContainsAny(username, " \t\n") {
		return nil, fmt.Errorf("%w: invalid username %q", ErrInvalidInput, username)
	}

	b := s.b
	b.mu.Lock()
	defer b.mu.Unlock()

	if u, ok := b.users[username]; ok && !u.Identity.Equal(s.caller) {
		return nil, fmt.Errorf("%w: %q", ErrUsernameTaken, username)
	}
	u, ok := b.byID[s.caller.Key()]
	if ok {
		delete(b.users, u.Username)
		u.Username = username
		u.DisplayName = displayName
	} else {
		u = &User{
			Identity:    append(principal.Identity(nil), s.caller...),
			Username:    username,
			DisplayName: displayName,
			CreatedAt:   b.now(),
		}
		b.byID[s.caller.Key()] = u
	}
	b.users[username] = u
	out := *u
	return &out, b.persist(ctx)
}

// LookupUser resolves a username or textual identity to a profile.
func (s *Session) LookupUser(_ context.Context, username string) (*User, error) {
	b := s.b
	b.mu.Lock()
	defer b.mu.Unlock()
	u, err := b.resolveUser(username)
	if err != nil {
		return nil, err
	}
	out := *u
	return &out, nil
}
