package sdk

import (
	"fmt"
	"os"
	"os/user"
	"strconv"

	"github.com/genv-io/genv/pkg/devices"
	"github.com/genv-io/genv/pkg/entities"
	"github.com/genv-io/genv/pkg/envs"
)

// Mode discriminates how an environment was activated, mirroring the
// GENV_SHELL / GENV_PYTHON / GENV_CONTAINER env vars (spec §4.I).
type Mode int

const (
	ModeShell Mode = iota
	ModePython
	ModeContainer
)

func (m Mode) envVar() string {
	switch m {
	case ModePython:
		return EnvPython
	case ModeContainer:
		return EnvContainer
	default:
		return EnvShell
	}
}

// ActivateOptions configures Activate.
type ActivateOptions struct {
	EID       string // defaults to the current pid
	Mode      Mode
	Config    entities.Config
	AllowOverSubscription bool
}

// Activation is a live, scoped activation of the current process as a GPU
// environment. Deactivate releases the pid's hold and republishes (or
// clears) the env var contract.
type Activation struct {
	EID string
}

// Activate creates (or joins) an environment for the caller's pid, applies
// config, attaches devices per config.GPUs/config.GPUMemory, and publishes
// the full env var contract. It fails with ErrAlreadyActive if the current
// process already has an active eid (spec §4.I "activate", §7 kind 1).
func Activate(opts ActivateOptions) (*Activation, error) {
	if _, active := EID(); active {
		return nil, entities.ErrAlreadyActive
	}

	pid := os.Getpid()
	eid := opts.EID
	if eid == "" {
		eid = fmt.Sprintf("%d", pid)
	}

	var username *string
	if u, err := user.Current(); err == nil {
		username = &u.Username
	}

	if err := envs.Activate(eid, os.Getuid(), username, &pid, nil); err != nil {
		return nil, fmt.Errorf("sdk: activating %s: %w", eid, err)
	}
	if err := envs.Configure(eid, opts.Config); err != nil {
		return nil, fmt.Errorf("sdk: configuring %s: %w", eid, err)
	}

	if opts.Config.GPUs != nil {
		if _, err := devices.Attach(eid, devices.Options{
			GPUs:                  opts.Config.GPUs,
			GPUMemory:             opts.Config.GPUMemory,
			AllowOverSubscription: opts.AllowOverSubscription,
		}); err != nil {
			return nil, fmt.Errorf("sdk: attaching for %s: %w", eid, err)
		}
	}

	a := &Activation{EID: eid}
	os.Setenv(EnvEnvironmentID, eid)
	if err := a.RefreshConfiguration(); err != nil {
		return nil, err
	}
	if err := a.RefreshAttached(); err != nil {
		return nil, err
	}
	publish(map[string]string{opts.Mode.envVar(): "1"})

	return a, nil
}

// Deactivate removes the caller's pid from eid (dropping it entirely once
// inactive, spec §3.1 invariant) and restores the pre-activation
// environment.
func (a *Activation) Deactivate() error {
	pid := os.Getpid()
	if err := envs.Deactivate(&pid, nil); err != nil {
		return fmt.Errorf("sdk: deactivating %s: %w", a.EID, err)
	}
	clear()
	os.Unsetenv(EnvEnvironmentID)
	return nil
}

// RefreshConfiguration re-reads eid's configuration from the envs registry
// and republishes GENV_ENVIRONMENT_NAME / GENV_GPU_MEMORY / GENV_GPUS
// (spec §4.I "refresh_configuration").
func (a *Activation) RefreshConfiguration() error {
	config, err := envs.Configuration(a.EID)
	if err != nil {
		return fmt.Errorf("sdk: reading configuration for %s: %w", a.EID, err)
	}

	publish(map[string]string{
		EnvEnvironmentName: formatString(config.Name),
		EnvGPUMemory:       formatString(config.GPUMemory),
		EnvGPUs:            formatInt(config.GPUs),
	})
	return nil
}

// Configuration reads the current environment's configuration straight
// from the published env vars, without touching the state store (spec
// §4.I, grounded on the original implementation's sdk.configuration()).
func (a *Activation) Configuration() entities.Config {
	config := entities.Config{}
	if v := os.Getenv(EnvEnvironmentName); v != "" {
		config.Name = &v
	}
	if v := os.Getenv(EnvGPUMemory); v != "" {
		config.GPUMemory = &v
	}
	if v := os.Getenv(EnvGPUs); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.GPUs = &n
		}
	}
	return config
}

// RefreshAttached re-reads eid's attached device indices and republishes
// CUDA_VISIBLE_DEVICES (spec §4.I "refresh_attached").
func (a *Activation) RefreshAttached() error {
	indices, err := devices.Attached(a.EID)
	if err != nil {
		return fmt.Errorf("sdk: reading attached devices for %s: %w", a.EID, err)
	}

	publish(map[string]string{EnvCUDAVisible: cudaVisibleDevices(indices)})
	return nil
}

// Lock enters the per-device advisory locks for every index currently
// attached to eid (spec §4.I "lock": "enters per-device advisory locks for
// the indices in attached()").
func (a *Activation) Lock() (*devices.Locks, error) {
	indices, err := devices.Attached(a.EID)
	if err != nil {
		return nil, fmt.Errorf("sdk: reading attached devices for %s: %w", a.EID, err)
	}
	return devices.Lock(indices)
}
