package sharing

import (
	"errors"
	"fmt"

	"github.com/wetkeyorg/libwetkey-go/store"
)

// Kind classifies a sharing failure.
type Kind int

const (
	PermissionDenied Kind = iota + 1
	NotAuthenticated
	UserNotFound
	FileNotFound
	FileNotUploaded
	InvalidInput
)

func (k Kind) String() string {
	switch k {
	case PermissionDenied:
		return "Permission denied"
	case NotAuthenticated:
		return "Not authenticated"
	case UserNotFound:
		return "User not found"
	case FileNotFound:
		return "File not found"
	case FileNotUploaded:
		return "File not uploaded"
	case InvalidInput:
		return "Invalid input"
	default:
		return "Unknown error"
	}
}

// Error is returned by every Controller operation that the store rejects
// for a sharing reason. Callers branch on Kind or use errors.Is with the
// underlying store sentinel.
type Error struct {
	Kind    Kind
	FileID  uint64
	Grantee string
	Err     error
}

func (e *Error) Error() string {
	if e.Grantee != "" {
		return fmt.Sprintf("sharing: file %d, grantee %q: %s", e.FileID, e.Grantee, e.Kind)
	}
	return fmt.Sprintf("sharing: file %d: %s", e.FileID, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a sharing *Error of kind k.
func IsKind(err error, k Kind) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == k
}

// kindOf maps a store error onto a Kind. ok is false for errors that are
// not sharing outcomes, such as transport failures.
func kindOf(err error) (k Kind, ok bool) {
	switch {
	case errors.Is(err, store.ErrNotAuthenticated):
		return NotAuthenticated, true
	case errors.Is(err, store.ErrPermissionDenied):
		return PermissionDenied, true
	case errors.Is(err, store.ErrUserNotFound):
		return UserNotFound, true
	case errors.Is(err, store.ErrNotUploaded):
		return FileNotUploaded, true
	case errors.Is(err, store.ErrNotFound):
		return FileNotFound, true
	case errors.Is(err, store.ErrInvalidInput):
		return InvalidInput, true
	}
	return 0, false
}
