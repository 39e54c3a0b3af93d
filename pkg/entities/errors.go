package entities

import "errors"

var (
	// ErrInsufficientDevices is returned by FindAvailableDevices when fewer
	// than the requested number of devices can be admitted (spec §4.E, §8.3).
	ErrInsufficientDevices = errors.New("genv: insufficient available devices")

	// ErrDeviceUnavailable is returned when a specifically-indexed device
	// cannot admit the requested memory and over-subscription isn't allowed.
	ErrDeviceUnavailable = errors.New("genv: device is not available")

	// ErrMutuallyExclusive is returned when a caller supplies both "index"
	// and "gpus" to an admission call (spec §4.E step 1).
	ErrMutuallyExclusive = errors.New("genv: index and gpus are mutually exclusive")

	// ErrNotFound is returned when a named eid, device index, or host has no
	// matching record.
	ErrNotFound = errors.New("genv: not found")

	// ErrNotActive is returned by SDK operations that require an active
	// environment in the current process (spec §7 kind 1: contract
	// violations).
	ErrNotActive = errors.New("genv: no active environment")

	// ErrAlreadyActive is returned by activate when the current process has
	// already activated an environment (spec §7 kind 1).
	ErrAlreadyActive = errors.New("genv: environment already active")
)
