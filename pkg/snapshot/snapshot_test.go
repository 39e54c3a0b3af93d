package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNvidiaSMI installs a dispatcher script on PATH that answers each
// nvidia-smi query flavor genv actually issues, so Processes/Snapshot never
// touch a real GPU.
func fakeNvidiaSMI(t *testing.T) {
	t.Helper()
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		t.Skip("requires a POSIX shell")
	}

	dir := t.TempDir()
	script := `#!/bin/sh
case "$*" in
  *query-gpu=memory.total*) echo "8192" ;;
  *query-gpu=uuid,index*) echo "GPU-aaa, 0" ;;
  *query-compute-apps*) echo "GPU-aaa, 4242, 1024" ;;
  *) echo "" ;;
esac
`
	path := filepath.Join(dir, "nvidia-smi")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func TestProcessesJoinsUUIDAndEnviron(t *testing.T) {
	fakeNvidiaSMI(t)

	procs, err := Processes(context.Background())
	require.NoError(t, err)
	require.Len(t, procs.Processes, 1)

	proc := procs.Processes[0]
	assert.Equal(t, 4242, proc.PID)
	require.Len(t, proc.UsedGPUMemory, 1)
	assert.Equal(t, 0, proc.UsedGPUMemory[0].Index)
	assert.Equal(t, "1024mi", proc.UsedGPUMemory[0].GPUMemory)
}

func TestSnapshotAssemblesAllThreeCollections(t *testing.T) {
	fakeNvidiaSMI(t)
	t.Setenv("GENV_TMPDIR", t.TempDir())

	snap, err := Snapshot(context.Background())
	require.NoError(t, err)

	require.NotNil(t, snap.Envs)
	require.NotNil(t, snap.Devices)
	require.NotNil(t, snap.Processes)
	require.Len(t, snap.Processes.Processes, 1)
}
