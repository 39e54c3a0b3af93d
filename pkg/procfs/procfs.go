// Package procfs implements genv's process probe (spec.md component C):
// recovering a compute process's environment id from /proc/<pid>/environ,
// polling pids and Jupyter kernels for liveness, and terminating processes.
// Modeled on the original implementation's utils/os_.py.
package procfs

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"
)

// ErrPlatformUnsupported is returned by EID on any platform other than
// Linux, since /proc is Linux-specific (spec §9 "Subprocess + environ for
// eid discovery").
var ErrPlatformUnsupported = errors.New("procfs: not supported on this platform")

const environmentIDVar = "GENV_ENVIRONMENT_ID"

// EID reads /proc/<pid>/environ and returns the value of GENV_ENVIRONMENT_ID,
// or "", false if the variable is absent. Errors are ErrPlatformUnsupported
// on non-Linux, or the underlying os error (permission-denied, not-found)
// which callers should treat as non-fatal (spec §4.C).
func EID(pid int) (string, bool, error) {
	if runtime.GOOS != "linux" {
		return "", false, ErrPlatformUnsupported
	}

	data, err := os.ReadFile(filepath.Join("/proc", strconv.Itoa(pid), "environ"))
	if err != nil {
		return "", false, err
	}

	for _, kv := range strings.Split(string(data), "\x00") {
		if kv == "" {
			continue
		}
		k, v, ok := strings.Cut(kv, "=")
		if ok && k == environmentIDVar {
			return v, true, nil
		}
	}
	return "", false, nil
}

// PollPID reports whether a process is still alive. A zero-signal send that
// fails with "operation not permitted" still indicates the process exists
// (spec §4.C).
func PollPID(pid int) bool {
	err := syscall.Kill(pid, 0)
	if err == nil {
		return true
	}
	return errors.Is(err, syscall.EPERM)
}

// PollKernel reports whether a Jupyter kernel's runtime file still exists.
func PollKernel(runtimeDir, kernelID string) bool {
	path := filepath.Join(runtimeDir, fmt.Sprintf("kernel-%s.json", kernelID))
	_, err := os.Stat(path)
	return err == nil
}

// terminateProcessesEnv, when set to "0", puts Terminate in dry-run mode
// (spec §4.C, GENV_TERMINATE_PROCESSES).
const terminateProcessesEnv = "GENV_TERMINATE_PROCESSES"

// Terminate sends SIGTERM to pid, unless GENV_TERMINATE_PROCESSES=0 is set,
// in which case it is a no-op. Returns syscall.ESRCH-wrapping errors when
// the process is already gone; callers should tolerate that (spec §7 kind
// 3: transient/partial-failure).
func Terminate(pid int) error {
	if os.Getenv(terminateProcessesEnv) == "0" {
		return nil
	}
	return syscall.Kill(pid, syscall.SIGTERM)
}

// JupyterRuntimeDir shells out to `jupyter --runtime-dir` the way the
// original implementation does, falling back to Jupyter's default runtime
// directory under the user's home if jupyter isn't installed (or "" if the
// home directory is unknown). The caller should cache the result across a
// single snapshot/enforcement pass.
func JupyterRuntimeDir() string {
	if out, err := exec.Command("jupyter", "--runtime-dir").Output(); err == nil {
		if dir := strings.TrimSpace(string(out)); dir != "" {
			return dir
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	// Matches Jupyter's own default when the `jupyter` CLI isn't on PATH to
	// ask it directly; good enough for liveness polling.
	return filepath.Join(home, ".local", "share", "jupyter", "runtime")
}
