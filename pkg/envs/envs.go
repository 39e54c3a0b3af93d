// Package envs implements genv's environment registry (spec.md component D):
// the on-disk Envs collection and its activate/attach/configure/deactivate/
// cleanup lifecycle.
package envs

import (
	"encoding/json"
	"time"

	"github.com/genv-io/genv/internal/statefile"
	"github.com/genv-io/genv/pkg/entities"
	"github.com/genv-io/genv/pkg/procfs"
)

// filename is the on-disk state file for the environment registry
// (spec §6.2).
const filename = "envs.json"

func state() *statefile.State[entities.Envs] {
	return statefile.New(
		statefile.Path(filename),
		func() (entities.Envs, error) {
			return entities.Envs{}, nil
		},
		convert,
		clean,
	)
}

// convert migrates the pre-0.8.0 on-disk shape — the whole file a dict
// keyed by eid, rather than the current {"envs": [...]} list — into the
// current shape (spec §6.2 "legacy migration").
func convert(raw json.RawMessage, _ entities.Envs) (entities.Envs, error) {
	var current entities.Envs
	if err := json.Unmarshal(raw, &current); err == nil && current.Envs != nil {
		return current, nil
	}

	var legacy map[string]*entities.Env
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return entities.Envs{}, err
	}

	out := entities.Envs{}
	for eid, env := range legacy {
		if env == nil {
			continue
		}
		env.EID = eid
		out.Envs = append(out.Envs, env)
	}
	return out, nil
}

func clean(e entities.Envs) entities.Envs {
	runtimeDir := procfs.JupyterRuntimeDir()

	e.Cleanup(entities.Filter{}, procfs.PollPID, func(id string) bool {
		return procfs.PollKernel(runtimeDir, id)
	})
	return e
}

// With runs fn against the loaded+cleaned registry and commits the result
// (spec §4.A "with_state").
func With(cleanup, reset bool, fn func(*entities.Envs) error) error {
	return statefile.With(state(), cleanup, reset, fn)
}

// WithResult is like With but also returns a value computed by fn.
func WithResult[R any](cleanup, reset bool, fn func(*entities.Envs) (R, error)) (R, error) {
	return statefile.WithResult(state(), cleanup, reset, fn)
}

// Snapshot returns a read-only copy of the registry, cleaning up stale
// entries first.
func Snapshot() (entities.Envs, error) {
	return state().Load(true, false)
}

// Cleanup removes dead holders and empty environments and commits the result.
func Cleanup() error {
	return With(true, false, func(*entities.Envs) error { return nil })
}

// Activate creates eid if absent and attaches the given pid or kernel id
// (spec §4.D "activate": idempotent w.r.t. repeated holders).
func Activate(eid string, uid int, username *string, pid *int, kernelID *string) error {
	return With(true, false, func(envs *entities.Envs) error {
		env := envs.Get(eid)
		if env == nil {
			env = envs.Activate(eid, uid, username, time.Now().Format(entities.DateTimeFormat))
		}
		env.Attach(pid, kernelID)
		return nil
	})
}

// Configure replaces eid's configuration in full. Missing fields become null
// (spec §4.D "configure").
func Configure(eid string, config entities.Config) error {
	return With(true, false, func(envs *entities.Envs) error {
		if env := envs.Get(eid); env != nil {
			env.Config = config
		}
		return nil
	})
}

// Configuration returns eid's current configuration.
func Configuration(eid string) (entities.Config, error) {
	return WithResult(false, false, func(envs *entities.Envs) (entities.Config, error) {
		if env := envs.Get(eid); env != nil {
			return env.Config, nil
		}
		return entities.Config{}, nil
	})
}

// Deactivate removes the given pid and/or kernel id from every environment
// that holds it, dropping environments that become inactive (spec §4.D
// "deactivate").
func Deactivate(pid *int, kernelID *string) error {
	return With(true, false, func(envs *entities.Envs) error {
		envs.Deactivate(pid, kernelID)
		return nil
	})
}

// Find returns the eids of environments holding the given pid and/or
// kernel id.
func Find(pid *int, kernelID *string) ([]string, error) {
	return WithResult(true, false, func(envs *entities.Envs) ([]string, error) {
		var eids []string
		for _, env := range envs.Find(pid, kernelID) {
			eids = append(eids, env.EID)
		}
		return eids, nil
	})
}
