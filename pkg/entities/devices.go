package entities

import "time"

// Devices is the collection of physical devices and their attachments
// (spec §3.1/§4.E).
type Devices struct {
	Devices []*Device `json:"devices"`
}

// Get returns the device at the given index, or nil.
func (d *Devices) Get(index int) *Device {
	for _, dev := range d.Devices {
		if dev.Index == index {
			return dev
		}
	}
	return nil
}

// Indices returns the ascending indices of every device in the collection.
func (d *Devices) Indices() []int {
	indices := make([]int, len(d.Devices))
	for i, dev := range d.Devices {
		indices[i] = dev.Index
	}
	return indices
}

// DeviceFilter selects devices for Devices.Filter.
type DeviceFilter struct {
	EID        string
	EIDs       []string
	NotIndices []int
}

// Filter returns devices with at least one attachment matching eid/eids. When
// deep is true, attachments not matching the filter are also stripped from
// each retained device (spec §4.F "filter contract").
func (d *Devices) Filter(deep bool, f DeviceFilter) *Devices {
	eids := (Filter{EID: f.EID, EIDs: f.EIDs}).eidSet()

	excluded := map[int]bool{}
	for _, idx := range f.NotIndices {
		excluded[idx] = true
	}

	var out []*Device
	for _, dev := range d.Devices {
		if excluded[dev.Index] {
			continue
		}

		if eids == nil {
			out = append(out, dev)
			continue
		}

		matched := false
		var kept []Attachment
		for _, a := range dev.Attachments {
			if eids[a.EID] {
				matched = true
				kept = append(kept, a)
			} else if !deep {
				kept = append(kept, a)
			}
		}

		if !matched {
			continue
		}

		if deep {
			clone := *dev
			clone.Attachments = kept
			out = append(out, &clone)
		} else {
			out = append(out, dev)
		}
	}

	return &Devices{Devices: out}
}

// Attach appends an attachment for eid on the device at index. The caller is
// responsible for the admission decision (spec §4.E).
func (d *Devices) Attach(eid string, index int, gpuMemory *string, at time.Time) {
	if dev := d.Get(index); dev != nil {
		dev.attach(eid, gpuMemory, at)
	}
}

// Detach removes eid's attachments from the device at index, or from every
// device when index is nil.
func (d *Devices) Detach(eid string, index *int) {
	for _, dev := range d.Devices {
		if index != nil && dev.Index != *index {
			continue
		}
		dev.detach(eid)
	}
}

// FindAvailableDevices selects n devices able to admit gpuMemory, by
// ascending index. If fewer than n are free and over is true, it continues
// taking over-subscribed devices, again by ascending index (spec §4.E,
// deterministic tie-break per §9 open question). Returns
// ErrInsufficientDevices if n devices still cannot be found.
func (d *Devices) FindAvailableDevices(n int, gpuMemory *string, over bool) ([]int, error) {
	if n <= 0 {
		return nil, nil
	}

	var indices []int

	for _, dev := range d.Devices {
		if dev.Available(gpuMemory) {
			indices = append(indices, dev.Index)
			if len(indices) == n {
				return indices, nil
			}
		}
	}

	if over {
		for _, dev := range d.Devices {
			if dev.Available(gpuMemory) {
				continue // already taken above
			}
			indices = append(indices, dev.Index)
			if len(indices) == n {
				return indices, nil
			}
		}
	}

	return nil, ErrInsufficientDevices
}

// Cleanup drops attachments whose eid is not present in liveEIDs (spec §4.E
// "cleanup": "after loading the envs collection, prune attachments whose
// eid is not in the envs set").
func (d *Devices) Cleanup(liveEIDs map[string]bool) {
	for _, dev := range d.Devices {
		live := dev.Attachments[:0:0]
		for _, a := range dev.Attachments {
			if liveEIDs[a.EID] {
				live = append(live, a)
			}
		}
		dev.Attachments = live
	}
}
