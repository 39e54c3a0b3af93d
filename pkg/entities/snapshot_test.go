package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotFilterNarrowsAllThreeCollections(t *testing.T) {
	eid := "e1"
	other := "e2"

	envs := &Envs{}
	envs.Activate("e1", 1000, nil, "01/01/2026 00:00:00")
	envs.Activate("e2", 1000, nil, "01/01/2026 00:00:00")

	devices := threeDevices()
	devices.Attach("e1", 0, nil, time.Now())
	devices.Attach("e2", 1, nil, time.Now())

	processes := &Processes{Processes: []*Process{
		{PID: 1, EID: &eid},
		{PID: 2, EID: &other},
	}}

	snap := &Snapshot{Processes: processes, Envs: envs, Devices: devices}

	filtered := snap.Filter(true, SnapshotFilter{EID: "e1"})

	require.Len(t, filtered.Envs.Envs, 1)
	assert.Equal(t, "e1", filtered.Envs.Envs[0].EID)

	require.Len(t, filtered.Processes.Processes, 1)
	assert.Equal(t, 1, filtered.Processes.Processes[0].PID)

	// Only device 0 has an attachment belonging to e1.
	require.Len(t, filtered.Devices.Devices, 1)
	assert.Equal(t, 0, filtered.Devices.Devices[0].Index)

	// Original snapshot is untouched.
	assert.Len(t, snap.Envs.Envs, 2)
}
