// Package lock guards against two serve processes sharing one data directory,
// which would race on the sqlite ledger and double-fire deploy hooks.
package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// PIDLock is a single-instance lock implemented via a PID file + flock(2).
// The lock stays held for as long as the file descriptor is open.
type PIDLock struct {
	path string
	f    *os.File
}

// Acquire takes an exclusive non-blocking lock at lockPath and writes the
// current PID into the file. Returns an error if another process holds it.
func Acquire(lockPath string) (*PIDLock, error) {
	if lockPath == "" {
		return nil, fmt.Errorf("lock path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("another instance holds %s: %w", lockPath, err)
	}

	if err := writePID(f); err != nil {
		_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		_ = f.Close()
		return nil, err
	}

	return &PIDLock{path: lockPath, f: f}, nil
}

func writePID(f *os.File) error {
	if err := f.Truncate(0); err != nil {
		return fmt.Errorf("truncate lock file: %w", err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		return fmt.Errorf("seek lock file: %w", err)
	}
	if _, err := fmt.Fprintf(f, "%d\n", os.Getpid()); err != nil {
		return fmt.Errorf("write pid: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync lock file: %w", err)
	}
	return nil
}

// Path returns the lock file location.
func (l *PIDLock) Path() string { return l.path }

// Release unlocks and closes the lock file. Safe on a nil or released lock.
func (l *PIDLock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	_ = syscall.Flock(int(l.f.Fd()), syscall.LOCK_UN)
	err := l.f.Close()
	l.f = nil
	return err
}
