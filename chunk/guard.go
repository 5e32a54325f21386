package chunk

import "fmt"

// Guard rejects payloads above MaxSize before any remote call is made.
type Guard struct {
	MaxSize int64
}

// DefaultGuard returns a Guard enforcing DefaultMaxFileSize.
func DefaultGuard() Guard {
	return Guard{MaxSize: DefaultMaxFileSize}
}

// Check returns ErrTooLarge when size exceeds the limit. A non-positive
// MaxSize disables the check.
func (g Guard) Check(size int64) error {
	if size < 0 {
		return fmt.Errorf("%w: negative size %d", ErrInvalidInput, size)
	}
	if g.MaxSize > 0 && size > g.MaxSize {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, size, g.MaxSize)
	}
	return nil
}
