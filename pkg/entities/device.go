package entities

import (
	"time"

	"github.com/genv-io/genv/internal/memsize"
)

// Attachment binds an eid to a device, with an optional reserved memory
// amount. A nil GPUMemory means the attachment reserves the whole device
// (spec §3.1).
type Attachment struct {
	EID       string    `json:"eid"`
	GPUMemory *string   `json:"gpu_memory"`
	Time      time.Time `json:"time"`
}

// Device is a physical GPU, identified by its 0-based, per-boot-stable index.
type Device struct {
	Index        int          `json:"index"`
	TotalMemory  string       `json:"total_memory"`
	Attachments  []Attachment `json:"attachments"`
}

// EIDs returns the multiset of attachment eids on this device.
func (d *Device) EIDs() []string {
	eids := make([]string, len(d.Attachments))
	for i, a := range d.Attachments {
		eids[i] = a.EID
	}
	return eids
}

func (d *Device) totalBytes() int64 {
	n, err := memsize.ToBytes(d.TotalMemory)
	if err != nil {
		return 0
	}
	return n
}

// AvailableBytes is total bytes minus the sum of each attachment's reserved
// memory (or the whole device, for attachments with no reservation),
// clamped at 0 (spec §3.1).
func (d *Device) AvailableBytes() int64 {
	total := d.totalBytes()
	used := int64(0)

	for _, a := range d.Attachments {
		if a.GPUMemory != nil {
			if n, err := memsize.ToBytes(*a.GPUMemory); err == nil {
				used += n
			}
		} else {
			used += total
		}
	}

	available := total - used
	if available < 0 {
		return 0
	}
	return available
}

// Available reports whether the device can admit an attachment requesting
// gpuMemory (nil meaning "a whole device"): available iff there's enough
// free memory when a size is given, or iff the device has zero attachments
// when it isn't (spec §3.1).
func (d *Device) Available(gpuMemory *string) bool {
	if gpuMemory == nil {
		return len(d.Attachments) == 0
	}

	n, err := memsize.ToBytes(*gpuMemory)
	if err != nil {
		return false
	}
	return d.AvailableBytes() >= n
}

// attach appends a new attachment for eid, unconditionally (admission
// checks happen in the caller).
func (d *Device) attach(eid string, gpuMemory *string, at time.Time) {
	d.Attachments = append(d.Attachments, Attachment{EID: eid, GPUMemory: gpuMemory, Time: at})
}

// detach removes every attachment belonging to eid.
func (d *Device) detach(eid string) {
	live := d.Attachments[:0:0]
	for _, a := range d.Attachments {
		if a.EID != eid {
			live = append(live, a)
		}
	}
	d.Attachments = live
}
