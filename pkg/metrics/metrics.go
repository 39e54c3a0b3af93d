// Package metrics implements genv's metric publisher (spec.md component K):
// per-host, per-env, per-device, per-process, and per-user gauges, plus the
// stale-label cleanup contract that keeps a long-lived exporter process
// from leaking label series for environments/devices that no longer exist.
package metrics

import (
	"github.com/genv-io/genv/pkg/entities"
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds the gauge vectors published by a single exporter process,
// scoped to one hostname.
type Registry struct {
	Hostname string

	envActive     *prometheus.GaugeVec
	deviceTotal   *prometheus.GaugeVec
	deviceUsed    *prometheus.GaugeVec
	processMemory *prometheus.GaugeVec
	userDevices   *prometheus.GaugeVec
}

// NewRegistry builds and registers a fresh set of gauge vectors on reg.
func NewRegistry(reg prometheus.Registerer, hostname string) (*Registry, error) {
	r := &Registry{
		Hostname: hostname,
		envActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "genv",
			Name:      "env_active",
			Help:      "Whether a GPU environment is currently active (1) or not (0).",
		}, []string{"host", "eid", "username"}),
		deviceTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "genv",
			Name:      "device_total_bytes",
			Help:      "Total memory of a GPU device, in bytes.",
		}, []string{"host", "index"}),
		deviceUsed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "genv",
			Name:      "device_attached_bytes",
			Help:      "Memory reserved by attachments on a GPU device, in bytes.",
		}, []string{"host", "index", "eid"}),
		processMemory: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "genv",
			Name:      "process_memory_bytes",
			Help:      "Memory used by a single compute process on a device, in bytes.",
		}, []string{"host", "pid", "index", "eid"}),
		userDevices: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "genv",
			Name:      "user_attached_devices",
			Help:      "Number of devices currently attached to a user.",
		}, []string{"host", "username"}),
	}

	for _, c := range []prometheus.Collector{r.envActive, r.deviceTotal, r.deviceUsed, r.processMemory, r.userDevices} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// labelSet is one fully-qualified metric label combination, used as the
// cache key for stale-label cleanup.
type labelSet = map[string]string

// Publish sets every gauge from a fresh snapshot and returns the full set of
// label combinations it just published, for Cleanup's use on the next
// round (spec §4.K "cleanup contract against stale labels").
func (r *Registry) Publish(snap *entities.Snapshot) []labelSet {
	var seen []labelSet

	for _, env := range snap.Envs.Envs {
		username := ""
		if env.Username != nil {
			username = *env.Username
		}
		active := 0.0
		if env.Active() {
			active = 1.0
		}
		labels := prometheus.Labels{"host": r.Hostname, "eid": env.EID, "username": username}
		r.envActive.With(labels).Set(active)
		seen = append(seen, labelSet(labels))
	}

	for _, dev := range snap.Devices.Devices {
		index := itoa(dev.Index)
		labels := prometheus.Labels{"host": r.Hostname, "index": index}
		total, _ := toBytes(dev.TotalMemory)
		r.deviceTotal.With(labels).Set(float64(total))
		seen = append(seen, labelSet(labels))

		for _, a := range dev.Attachments {
			aLabels := prometheus.Labels{"host": r.Hostname, "index": index, "eid": a.EID}
			bytes := 0.0
			if a.GPUMemory != nil {
				if n, err := toBytes(*a.GPUMemory); err == nil {
					bytes = float64(n)
				}
			} else {
				bytes = float64(total)
			}
			r.deviceUsed.With(aLabels).Set(bytes)
			seen = append(seen, labelSet(aLabels))
		}
	}

	for _, proc := range snap.Processes.Processes {
		eid := ""
		if proc.EID != nil {
			eid = *proc.EID
		}
		for _, u := range proc.UsedGPUMemory {
			labels := prometheus.Labels{
				"host": r.Hostname, "pid": itoa(proc.PID), "index": itoa(u.Index), "eid": eid,
			}
			bytes, _ := toBytes(u.GPUMemory)
			r.processMemory.With(labels).Set(float64(bytes))
			seen = append(seen, labelSet(labels))
		}
	}

	userCount := map[string]int{}
	for _, dev := range snap.Devices.Devices {
		for _, a := range dev.Attachments {
			if env := snap.Envs.Get(a.EID); env != nil && env.Username != nil {
				userCount[*env.Username]++
			}
		}
	}
	for username, count := range userCount {
		labels := prometheus.Labels{"host": r.Hostname, "username": username}
		r.userDevices.With(labels).Set(float64(count))
		seen = append(seen, labelSet(labels))
	}

	return seen
}

// Cleanup deletes every previously-published label combination absent from
// current (spec §4.K). It is safe to call with a nil current on first run.
func (r *Registry) Cleanup(previous, current []labelSet) {
	currentSet := map[string]bool{}
	for _, labels := range current {
		currentSet[key(labels)] = true
	}

	for _, labels := range previous {
		if currentSet[key(labels)] {
			continue
		}
		deleteFrom(r.envActive, labels)
		deleteFrom(r.deviceTotal, labels)
		deleteFrom(r.deviceUsed, labels)
		deleteFrom(r.processMemory, labels)
		deleteFrom(r.userDevices, labels)
	}
}

func deleteFrom(v *prometheus.GaugeVec, labels labelSet) {
	v.Delete(prometheus.Labels(labels))
}
