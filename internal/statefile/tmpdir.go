package statefile

import (
	"os"
	"path/filepath"
)

const defaultTmpDir = "/var/tmp/genv"

// TmpDir returns the root directory for genv's state, honoring GENV_TMPDIR.
func TmpDir() string {
	if dir := os.Getenv("GENV_TMPDIR"); dir != "" {
		return dir
	}
	return defaultTmpDir
}

// Path joins the given relative elements onto the state root, e.g.
// Path("envs.json") or Path("devices", "0.lock").
func Path(elem ...string) string {
	return filepath.Join(append([]string{TmpDir()}, elem...)...)
}

// GlobalLockPath is the single cross-file transaction lock (spec §4.A).
func GlobalLockPath() string {
	return Path("genv.lock")
}

// WithGlobalLock runs fn while holding genv's single global lock, which MUST
// wrap any transaction that touches more than one state file.
func WithGlobalLock(fn func() error) error {
	return withLock(GlobalLockPath(), fn)
}
