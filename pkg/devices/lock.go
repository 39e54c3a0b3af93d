package devices

import (
	"fmt"
	"sort"

	"github.com/genv-io/genv/internal/statefile"
)

// LockPath returns the advisory lock file path for a single device
// (spec §4.H), independent of the state-file locks.
func LockPath(index int) string {
	return statefile.Path("devices", fmt.Sprintf("%d.lock", index))
}

// Locks holds the locks acquired by Lock, released together by Close.
type Locks struct {
	locks []*statefile.Lock
}

// Close releases every held lock, in acquisition order.
func (l *Locks) Close() error {
	var err error
	for _, lock := range l.locks {
		if e := lock.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

// Lock obtains exclusive access to the given device indices. Indices are
// sorted ascending and locked in that order within a single scope, to
// avoid A/B deadlocks between callers locking the same devices in a
// different order (spec §4.H, §5).
func Lock(indices []int) (*Locks, error) {
	sorted := append([]int(nil), indices...)
	sort.Ints(sorted)

	locks := &Locks{}
	for _, index := range sorted {
		lock, err := statefile.AcquireLock(LockPath(index))
		if err != nil {
			locks.Close()
			return nil, fmt.Errorf("devices: locking device %d: %w", index, err)
		}
		locks.locks = append(locks.locks, lock)
	}
	return locks, nil
}
