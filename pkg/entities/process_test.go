package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessIndicesAndBytes(t *testing.T) {
	eid := "e1"
	proc := &Process{
		PID: 100,
		EID: &eid,
		UsedGPUMemory: []Usage{
			{Index: 0, GPUMemory: "1gi"},
			{Index: 0, GPUMemory: "1gi"},
			{Index: 1, GPUMemory: "2gi"},
		},
	}

	assert.ElementsMatch(t, []int{0, 1}, proc.Indices())
	assert.EqualValues(t, 4*1024*1024*1024, proc.TotalBytes())
	assert.EqualValues(t, 2*1024*1024*1024, proc.BytesOnDevice(0))
	assert.EqualValues(t, 2*1024*1024*1024, proc.BytesOnDevice(1))
}

func TestProcessesFilterShallowIgnoresEIDAndIndex(t *testing.T) {
	eid := "e1"
	procs := &Processes{Processes: []*Process{
		{PID: 1, EID: &eid, UsedGPUMemory: []Usage{{Index: 0, GPUMemory: "1gi"}}},
		{PID: 2, EID: nil, UsedGPUMemory: []Usage{{Index: 1, GPUMemory: "1gi"}}},
	}}

	filtered := procs.Filter(false, ProcessFilter{EID: "e1"})
	assert.Len(t, filtered.Processes, 2)
}

func TestProcessesFilterDeepByEIDAndIndex(t *testing.T) {
	eid1 := "e1"
	eid2 := "e2"
	procs := &Processes{Processes: []*Process{
		{PID: 1, EID: &eid1, UsedGPUMemory: []Usage{{Index: 0, GPUMemory: "1gi"}}},
		{PID: 2, EID: &eid2, UsedGPUMemory: []Usage{{Index: 1, GPUMemory: "1gi"}}},
		{PID: 3, EID: nil, UsedGPUMemory: []Usage{{Index: 0, GPUMemory: "1gi"}}},
	}}

	filtered := procs.Filter(true, ProcessFilter{EID: "e1"})
	require.Len(t, filtered.Processes, 1)
	assert.Equal(t, 1, filtered.Processes[0].PID)

	index := 1
	filtered = procs.Filter(true, ProcessFilter{Index: &index})
	require.Len(t, filtered.Processes, 1)
	assert.Equal(t, 2, filtered.Processes[0].PID)
}

func TestProcessesFilterByPIDs(t *testing.T) {
	procs := &Processes{Processes: []*Process{
		{PID: 1}, {PID: 2}, {PID: 3},
	}}

	filtered := procs.Filter(false, ProcessFilter{PIDs: map[int]bool{2: true}})
	require.Len(t, filtered.Processes, 1)
	assert.Equal(t, 2, filtered.Processes[0].PID)
}
