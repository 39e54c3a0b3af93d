// Package entities implements genv's core data model: environments,
// devices, processes, reports, and the snapshot that ties them together
// (spec.md §3).
package entities

import "time"

// DateTimeFormat is the on-disk creation-timestamp format, matching the
// original implementation's "dd/mm/yyyy HH:MM:SS".
const DateTimeFormat = "02/01/2006 15:04:05"

// Config is an environment's user-declared configuration. Fields are
// pointers so that an unset field serializes as JSON null and is
// distinguishable from an explicitly empty value (spec §3.1).
type Config struct {
	Name       *string `json:"name"`
	GPUMemory  *string `json:"gpu_memory"`
	GPUs       *int    `json:"gpus"`
}

// Clone returns a deep copy of the configuration.
func (c Config) Clone() Config {
	clone := Config{}
	if c.Name != nil {
		v := *c.Name
		clone.Name = &v
	}
	if c.GPUMemory != nil {
		v := *c.GPUMemory
		clone.GPUMemory = &v
	}
	if c.GPUs != nil {
		v := *c.GPUs
		clone.GPUs = &v
	}
	return clone
}

// Env is a logical GPU user: a shell, container, notebook kernel, or SDK
// process. Its identity is an opaque, caller-supplied eid.
type Env struct {
	EID       string    `json:"eid"`
	UID       int       `json:"uid"`
	Username  *string   `json:"username"`
	Creation  string    `json:"creation"`
	Config    Config    `json:"config"`
	PIDs      []int     `json:"pids"`
	KernelIDs []string  `json:"kernel_ids"`
}

// Active reports whether the environment still has a live holder. An
// environment with no pids and no kernel ids is inactive and must be
// removed on cleanup (spec §3.1 invariant).
func (e *Env) Active() bool {
	return len(e.PIDs) > 0 || len(e.KernelIDs) > 0
}

// TimeSince returns how long ago the environment was created, suitable for
// "genv envs ps" when a relative duration is requested instead of a raw
// timestamp.
func (e *Env) TimeSince() time.Duration {
	t, err := time.Parse(DateTimeFormat, e.Creation)
	if err != nil {
		return 0
	}
	return time.Since(t)
}

// Attach appends a process or kernel holder. The open question recorded in
// spec §9 ("duplicate attach of pid to an env") is resolved here by keeping
// the source's behavior: duplicates are allowed, not deduplicated. Cleanup
// is still correct because poll_pid/poll_kernel filtering treats repeats
// independently, and a dead pid removes every occurrence of itself.
func (e *Env) Attach(pid *int, kernelID *string) {
	if pid != nil {
		e.PIDs = append(e.PIDs, *pid)
	}
	if kernelID != nil {
		e.KernelIDs = append(e.KernelIDs, *kernelID)
	}
}

// Cleanup prunes non-live pids and kernel ids in place, using the supplied
// liveness predicates. A nil predicate leaves that collection untouched.
func (e *Env) Cleanup(pollPID func(int) bool, pollKernel func(string) bool) {
	if pollPID != nil {
		live := e.PIDs[:0:0]
		for _, pid := range e.PIDs {
			if pollPID(pid) {
				live = append(live, pid)
			}
		}
		e.PIDs = live
	}

	if pollKernel != nil {
		live := e.KernelIDs[:0:0]
		for _, id := range e.KernelIDs {
			if pollKernel(id) {
				live = append(live, id)
			}
		}
		e.KernelIDs = live
	}
}
