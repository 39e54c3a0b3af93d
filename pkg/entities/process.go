package entities

import "github.com/genv-io/genv/internal/memsize"

// Usage records a compute process's memory footprint on a single device.
type Usage struct {
	Index     int    `json:"index"`
	GPUMemory string `json:"gpu_memory"`
}

// Process is a running compute process as observed via nvidia-smi, joined
// with its recovered environment id (spec §3.1).
type Process struct {
	PID          int     `json:"pid"`
	UsedGPUMemory []Usage `json:"used_gpu_memory"`
	EID          *string `json:"eid"`
}

// Indices returns the distinct device indices this process uses.
func (p *Process) Indices() []int {
	seen := map[int]bool{}
	var out []int
	for _, u := range p.UsedGPUMemory {
		if !seen[u.Index] {
			seen[u.Index] = true
			out = append(out, u.Index)
		}
	}
	return out
}

// TotalBytes sums the process's memory usage across all devices.
func (p *Process) TotalBytes() int64 {
	var total int64
	for _, u := range p.UsedGPUMemory {
		if n, err := memsize.ToBytes(u.GPUMemory); err == nil {
			total += n
		}
	}
	return total
}

// BytesOnDevice sums this process's memory usage on a single device index.
func (p *Process) BytesOnDevice(index int) int64 {
	var total int64
	for _, u := range p.UsedGPUMemory {
		if u.Index != index {
			continue
		}
		if n, err := memsize.ToBytes(u.GPUMemory); err == nil {
			total += n
		}
	}
	return total
}

// Processes is the collection of currently-running compute processes.
type Processes struct {
	Processes []*Process `json:"processes"`
}

// ProcessFilter selects processes for Processes.Filter.
type ProcessFilter struct {
	EID   string
	EIDs  []string
	Index *int
	PIDs  map[int]bool
}

// Filter returns the processes matching f. When deep is false, PID-based
// filtering still applies, but eid/index predicates are ignored.
func (p *Processes) Filter(deep bool, f ProcessFilter) *Processes {
	eids := (Filter{EID: f.EID, EIDs: f.EIDs}).eidSet()

	var out []*Process
	for _, proc := range p.Processes {
		if f.PIDs != nil && !f.PIDs[proc.PID] {
			continue
		}
		if deep {
			if eids != nil {
				if proc.EID == nil || !eids[*proc.EID] {
					continue
				}
			}
			if f.Index != nil && !containsInt(proc.Indices(), *f.Index) {
				continue
			}
		}
		out = append(out, proc)
	}
	return &Processes{Processes: out}
}
