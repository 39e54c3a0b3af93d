package statefile

import (
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// State guards atomic read-modify-write access to a single JSON-backed state
// file (spec §4.A, component A). T is the decoded value type.
//
// The zero value is not usable; construct with New.
type State[T any] struct {
	path    string
	create  func() (T, error)
	convert func(raw json.RawMessage, cleanShape T) (T, error)
	clean   func(T) T
}

// New constructs a State for the file at path.
//
//   - create builds a fresh value by probing the live system, used when the
//     file does not exist or reset is requested.
//   - convert migrates an on-disk shape (including legacy shapes) into the
//     current value type; it receives the raw decoded JSON so it can detect
//     legacy dict-keyed shapes before falling back to direct unmarshaling.
//   - clean is optional; when non-nil it drops stale entries on every load
//     that requests cleanup.
func New[T any](
	path string,
	create func() (T, error),
	convert func(raw json.RawMessage, cleanShape T) (T, error),
	clean func(T) T,
) *State[T] {
	return &State[T]{path: path, create: create, convert: convert, clean: clean}
}

// Load reads the file, migrating legacy shapes and pruning stale entries. If
// reset is true, or the file does not exist, the value is rebuilt from
// scratch via create.
func (s *State[T]) Load(cleanup, reset bool) (T, error) {
	var zero T

	if !reset {
		if raw, err := os.ReadFile(s.path); err == nil {
			var shape T
			value, err := s.convert(raw, shape)
			if err != nil {
				return zero, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.path, err)
			}
			if cleanup && s.clean != nil {
				value = s.clean(value)
			}
			return value, nil
		} else if !os.IsNotExist(err) {
			return zero, fmt.Errorf("statefile: reading %s: %w", s.path, err)
		}
	}

	value, err := s.create()
	if err != nil {
		return zero, fmt.Errorf("statefile: creating %s: %w", s.path, err)
	}
	return value, nil
}

// Commit serializes value back to the file, mode 0666, under umask 0.
func (s *State[T]) Commit(value T) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("statefile: encoding %s: %w", s.path, err)
	}

	restore := unix.Umask(0)
	defer unix.Umask(restore)

	if err := os.WriteFile(s.path, data, 0o666); err != nil {
		return fmt.Errorf("statefile: writing %s: %w", s.path, err)
	}
	return nil
}

// With acquires the file's own exclusive lock, loads the value, runs fn
// (which may mutate the pointer fn receives), and commits the result only if
// fn returns without error. A panic or early error return does not commit —
// matching the "commit only on clean scope completion" guarantee of spec §5.
func With[T any](s *State[T], cleanup, reset bool, fn func(*T) error) error {
	lockPath := s.path + ".lock"

	return withLock(lockPath, func() error {
		value, err := s.Load(cleanup, reset)
		if err != nil {
			return err
		}

		if err := fn(&value); err != nil {
			return err
		}

		return s.Commit(value)
	})
}

// WithResult is like With but additionally threads out a return value from fn.
func WithResult[T any, R any](s *State[T], cleanup, reset bool, fn func(*T) (R, error)) (R, error) {
	var result R

	err := With(s, cleanup, reset, func(value *T) error {
		r, err := fn(value)
		if err != nil {
			return err
		}
		result = r
		return nil
	})

	return result, err
}
