package statefile

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// flock wraps an advisory exclusive lock on a single file, created (with its
// parent directories) group-writable under umask 0 so it can be shared across
// uids. Modeled on the teacher's umask/flock pairing in the original
// implementation's utils/os_.py.
type flock struct {
	path string
	fd   int
}

func newFlock(path string) (*flock, error) {
	restore := unix.Umask(0)
	defer unix.Umask(restore)

	if err := os.MkdirAll(filepath.Dir(path), 0o777); err != nil {
		return nil, fmt.Errorf("statefile: creating lock directory for %s: %w", path, err)
	}

	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT, 0o666)
	if err != nil {
		return nil, fmt.Errorf("%w: creating lock file %s: %v", ErrLockUnavailable, path, err)
	}

	return &flock{path: path, fd: fd}, nil
}

// lock blocks until the exclusive lock is acquired.
func (l *flock) lock() error {
	if err := unix.Flock(l.fd, unix.LOCK_EX); err != nil {
		unix.Close(l.fd)
		return fmt.Errorf("statefile: locking %s: %w", l.path, err)
	}
	return nil
}

func (l *flock) unlock() error {
	defer unix.Close(l.fd)
	return unix.Flock(l.fd, unix.LOCK_UN)
}

// withLock acquires the exclusive advisory lock on path for the duration of fn.
func withLock(path string, fn func() error) error {
	l, err := newFlock(path)
	if err != nil {
		return err
	}
	if err := l.lock(); err != nil {
		return err
	}
	defer l.unlock()

	return fn()
}

// Lock is a closer-returning form of the same exclusive advisory lock, used
// by callers (e.g. the per-device lock manager) that need to hold several
// locks concurrently in one scope rather than via a single callback.
type Lock struct {
	f *flock
}

// AcquireLock opens, creates if missing, and locks the file at path.
func AcquireLock(path string) (*Lock, error) {
	l, err := newFlock(path)
	if err != nil {
		return nil, err
	}
	if err := l.lock(); err != nil {
		return nil, err
	}
	return &Lock{f: l}, nil
}

// Close releases the lock.
func (l *Lock) Close() error {
	return l.f.unlock()
}
