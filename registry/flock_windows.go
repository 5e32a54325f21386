//go:build windows

package registry

import (
	"fmt"
	"os"
)

// Windows has no syscall.Flock. The registry is safe within one process
// through its mutex but not across processes.

func acquireLock(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	return f, nil
}

func releaseLock(f *os.File) {
	if f == nil {
		return
	}
	_ = f.Close()
}
