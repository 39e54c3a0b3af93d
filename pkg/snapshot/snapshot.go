// Package snapshot implements genv's snapshot assembler (spec.md
// component F): a coherent (processes, envs, devices) triple taken under
// the global lock, with processes joined in from a live nvidia-smi probe.
package snapshot

import (
	"context"
	"fmt"

	"github.com/genv-io/genv/internal/statefile"
	"github.com/genv-io/genv/pkg/devices"
	"github.com/genv-io/genv/pkg/entities"
	"github.com/genv-io/genv/pkg/envs"
	"github.com/genv-io/genv/pkg/nvidiasmi"
	"github.com/genv-io/genv/pkg/procfs"
)

// Processes takes a fresh snapshot of all running compute processes by
// joining nvidia-smi's compute-apps query against its uuid->index map, and
// recovering each process's eid from /proc (spec §4.B/§4.C).
func Processes(ctx context.Context) (*entities.Processes, error) {
	uuidIndex, err := nvidiasmi.UUIDIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	apps, err := nvidiasmi.ComputeApps(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	byPID := map[int][]nvidiasmi.ComputeApp{}
	for _, app := range apps {
		byPID[app.PID] = append(byPID[app.PID], app)
	}

	out := &entities.Processes{}
	for pid, pidApps := range byPID {
		proc := &entities.Process{PID: pid}
		for _, app := range pidApps {
			index, ok := uuidIndex[app.GPUUUID]
			if !ok {
				continue
			}
			proc.UsedGPUMemory = append(proc.UsedGPUMemory, entities.Usage{
				Index:     index,
				GPUMemory: app.UsedGPUMemory,
			})
		}

		if eid, ok, err := procfs.EID(pid); err == nil && ok {
			proc.EID = &eid
		}

		out.Processes = append(out.Processes, proc)
	}
	return out, nil
}

// Snapshot takes a full system snapshot: envs and devices under the global
// lock, processes from a live nvidia-smi probe joined in outside it (spec
// §4.F).
func Snapshot(ctx context.Context) (*entities.Snapshot, error) {
	var envsSnap entities.Envs
	var devicesSnap entities.Devices

	err := statefile.WithGlobalLock(func() error {
		e, err := envs.Snapshot()
		if err != nil {
			return fmt.Errorf("snapshot: loading envs: %w", err)
		}
		d, err := devices.Snapshot()
		if err != nil {
			return fmt.Errorf("snapshot: loading devices: %w", err)
		}
		envsSnap, devicesSnap = e, d
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Processes come from a live nvidia-smi probe outside the global lock,
	// but still within this single Snapshot() call (spec §4.F).
	p, err := Processes(ctx)
	if err != nil {
		return nil, err
	}

	return &entities.Snapshot{Processes: p, Envs: &envsSnap, Devices: &devicesSnap}, nil
}
