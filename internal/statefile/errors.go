package statefile

import "errors"

var (
	// ErrLockUnavailable is returned when the lock file itself could not be
	// created or opened (spec §4.A: "fails with lock-unavailable only if file
	// creation itself fails; otherwise waits").
	ErrLockUnavailable = errors.New("genv: lock unavailable")

	// ErrCorrupt indicates a state file exists but could not be decoded as
	// either the current or a recognized legacy shape.
	ErrCorrupt = errors.New("genv: corrupt state file")
)
