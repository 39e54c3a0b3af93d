// Package devices implements genv's device registry and admission
// (spec.md component E) plus the per-device advisory lock manager
// (component H).
package devices

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/genv-io/genv/internal/statefile"
	"github.com/genv-io/genv/pkg/entities"
	"github.com/genv-io/genv/pkg/envs"
	"github.com/genv-io/genv/pkg/nvidiasmi"
)

const filename = "devices.json"

func state() *statefile.State[entities.Devices] {
	return statefile.New(
		statefile.Path(filename),
		create,
		convert,
		clean,
	)
}

func create() (entities.Devices, error) {
	sizes, err := nvidiasmi.TotalMemory(context.Background())
	if err != nil {
		return entities.Devices{}, fmt.Errorf("devices: probing nvidia-smi: %w", err)
	}

	out := entities.Devices{}
	for index, total := range sizes {
		out.Devices = append(out.Devices, &entities.Device{Index: index, TotalMemory: total})
	}
	return out, nil
}

// legacyDevice is the pre-0.8.0 per-device shape, where attachments were
// keyed by eid under an "eids" map and the reserved-memory timestamp field
// was named "attached" (spec §6.2).
type legacyDevice struct {
	TotalMemory string `json:"total_memory"`
	EIDs        map[string]struct {
		EID       string    `json:"eid"`
		GPUMemory *string   `json:"gpu_memory"`
		Attached  time.Time `json:"attached"`
	} `json:"eids"`
}

type legacyShape struct {
	Devices map[string]legacyDevice `json:"devices"`
}

func convert(raw json.RawMessage, _ entities.Devices) (entities.Devices, error) {
	var current entities.Devices
	if err := json.Unmarshal(raw, &current); err == nil && current.Devices != nil {
		return current, nil
	}

	var legacy legacyShape
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return entities.Devices{}, err
	}

	out := entities.Devices{}
	for indexStr, dev := range legacy.Devices {
		var index int
		fmt.Sscanf(indexStr, "%d", &index)

		d := &entities.Device{Index: index, TotalMemory: dev.TotalMemory}
		for _, a := range dev.EIDs {
			d.Attachments = append(d.Attachments, entities.Attachment{
				EID:       a.EID,
				GPUMemory: a.GPUMemory,
				Time:      a.Attached,
			})
		}
		out.Devices = append(out.Devices, d)
	}
	sort.Slice(out.Devices, func(i, j int) bool { return out.Devices[i].Index < out.Devices[j].Index })
	return out, nil
}

func clean(d entities.Devices) entities.Devices {
	snapshot, err := envs.Snapshot()
	if err != nil {
		return d
	}

	live := map[string]bool{}
	for _, eid := range snapshot.EIDs() {
		live[eid] = true
	}

	d.Cleanup(live)
	return d
}

// With runs fn against the loaded+cleaned device registry and commits the
// result (spec §4.A "with_state"). Callers that also touch the envs
// registry in the same logical step MUST wrap this in statefile.WithGlobalLock.
func With(cleanup, reset bool, fn func(*entities.Devices) error) error {
	return statefile.With(state(), cleanup, reset, fn)
}

// WithResult is like With but also returns a value computed by fn.
func WithResult[R any](cleanup, reset bool, fn func(*entities.Devices) (R, error)) (R, error) {
	return statefile.WithResult(state(), cleanup, reset, fn)
}

// Snapshot returns a read-only copy of the device registry.
func Snapshot() (entities.Devices, error) {
	return state().Load(true, false)
}

// Options configures an Attach call. At most one of Index or GPUs is set
// (spec §4.E step 1); with neither set, Attach changes nothing and returns
// eid's current indices.
type Options struct {
	Index                 *int
	GPUs                  *int
	GPUMemory             *string
	AllowOverSubscription bool
}

// Attach admits eid to one or more devices and returns the post-mutation
// attached indices for eid, in ascending order (spec §4.E "admission").
// It never detaches to reduce a surplus when GPUs names a smaller target
// than the environment already holds (§3.2, §9 open question).
func Attach(eid string, opts Options) ([]int, error) {
	if opts.Index != nil && opts.GPUs != nil {
		return nil, entities.ErrMutuallyExclusive
	}

	return WithResult(true, false, func(d *entities.Devices) ([]int, error) {
		envDevices := d.Filter(false, entities.DeviceFilter{EID: eid})

		switch {
		case opts.Index != nil:
			if !containsInt(envDevices.Indices(), *opts.Index) {
				dev := d.Get(*opts.Index)
				if dev == nil {
					return nil, fmt.Errorf("devices: no device with index %d", *opts.Index)
				}
				if !opts.AllowOverSubscription && !dev.Available(opts.GPUMemory) {
					return nil, fmt.Errorf("%w: device %d", entities.ErrDeviceUnavailable, *opts.Index)
				}
				d.Attach(eid, *opts.Index, opts.GPUMemory, time.Now())
			}

		case opts.GPUs != nil:
			diff := *opts.GPUs - len(envDevices.Devices)
			if diff > 0 {
				notEnv := d.Filter(false, entities.DeviceFilter{NotIndices: envDevices.Indices()})

				indices, err := notEnv.FindAvailableDevices(diff, opts.GPUMemory, opts.AllowOverSubscription)
				if err != nil {
					return nil, err
				}
				for _, index := range indices {
					d.Attach(eid, index, opts.GPUMemory, time.Now())
				}
			}
			// diff <= 0: no-op, per spec §4.E step 3 / §9 "shrink-attach".
		}

		return d.Filter(false, entities.DeviceFilter{EID: eid}).Indices(), nil
	})
}

// Detach removes eid's attachments from the device at index, or from every
// device when index is nil, returning eid's remaining attached indices.
func Detach(eid string, index *int) ([]int, error) {
	return WithResult(true, false, func(d *entities.Devices) ([]int, error) {
		d.Detach(eid, index)
		return d.Filter(false, entities.DeviceFilter{EID: eid}).Indices(), nil
	})
}

// Attached returns the indices of devices attached to eid.
func Attached(eid string) ([]int, error) {
	return WithResult(true, false, func(d *entities.Devices) ([]int, error) {
		return d.Filter(false, entities.DeviceFilter{EID: eid}).Indices(), nil
	})
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
