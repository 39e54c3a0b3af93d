// Package sdk implements genv's local SDK (spec.md component I): the
// activation context for the current process, its environment-variable
// contract, and the per-device lock convenience built on top of the
// device registry and lock manager.
package sdk

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment variable names making up the activation contract (spec
// §4.I).
const (
	EnvEnvironmentID   = "GENV_ENVIRONMENT_ID"
	EnvEnvironmentName = "GENV_ENVIRONMENT_NAME"
	EnvGPUMemory       = "GENV_GPU_MEMORY"
	EnvGPUs            = "GENV_GPUS"
	EnvShell           = "GENV_SHELL"
	EnvPython          = "GENV_PYTHON"
	EnvContainer       = "GENV_CONTAINER"
	EnvCUDAVisible     = "CUDA_VISIBLE_DEVICES"
	EnvEnvs            = "GENV_ENVS"
	envBackupPrefix    = "GENV_BACKUP_ENV_"
)

// EID returns the current process's environment id, and whether one is
// active (spec §4.I: "absence ⇒ inactive").
func EID() (string, bool) {
	eid := os.Getenv(EnvEnvironmentID)
	return eid, eid != ""
}

// cudaVisibleDevices renders attached device indices as the
// CUDA_VISIBLE_DEVICES value, "-1" meaning none (spec §4.E "edge cases").
func cudaVisibleDevices(indices []int) string {
	if len(indices) == 0 {
		return "-1"
	}
	strs := make([]string, len(indices))
	for i, idx := range indices {
		strs[i] = strconv.Itoa(idx)
	}
	return strings.Join(strs, ",")
}

// publish sets the activation-contract env vars for the current process,
// backing up the pre-activation value of each var the first time it is
// overwritten under GENV_BACKUP_ENV_<X> and recording every name it touched
// in GENV_ENVS so a later clear() call (or the shell helper) can restore the
// pre-activation environment (spec §4.I).
func publish(vars map[string]string) {
	var names []string
	tracked := map[string]bool{}
	if existing := os.Getenv(EnvEnvs); existing != "" {
		names = strings.Split(existing, ":")
		for _, name := range names {
			tracked[name] = true
		}
	}

	for name, value := range vars {
		if !tracked[name] {
			if prev, ok := os.LookupEnv(name); ok {
				os.Setenv(envBackupPrefix+name, prev)
			}
			names = append(names, name)
			tracked[name] = true
		}
		os.Setenv(name, value)
	}
	os.Setenv(EnvEnvs, strings.Join(names, ":"))
}

// clear restores every env var named in GENV_ENVS from its
// GENV_BACKUP_ENV_<X> value (or unsets it if there was none), then removes
// the bookkeeping vars themselves.
func clear() {
	existing := os.Getenv(EnvEnvs)
	if existing == "" {
		return
	}

	for _, name := range strings.Split(existing, ":") {
		backupKey := envBackupPrefix + name
		if prev, ok := os.LookupEnv(backupKey); ok {
			os.Setenv(name, prev)
			os.Unsetenv(backupKey)
		} else {
			os.Unsetenv(name)
		}
	}
	os.Unsetenv(EnvEnvs)
}

func formatInt(n *int) string {
	if n == nil {
		return ""
	}
	return fmt.Sprintf("%d", *n)
}

func formatString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
