package nvidiasmi

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitCSVLinesTrimsAndSkipsBlank(t *testing.T) {
	rows := splitCSVLines("0, uuid-a, 100\n\n1, uuid-b, 200\n")
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"0", "uuid-a", "100"}, rows[0])
	assert.Equal(t, []string{"1", "uuid-b", "200"}, rows[1])
}

// fakeNvidiaSMI installs a shell script named nvidia-smi on PATH that echoes
// the given csv body regardless of its arguments, so run()'s exec.Command
// call resolves to it instead of the real binary.
func fakeNvidiaSMI(t *testing.T, body string) {
	t.Helper()
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		t.Skip("requires a POSIX shell")
	}

	dir := t.TempDir()
	script := "#!/bin/sh\ncat <<'EOF'\n" + body + "EOF\n"
	path := filepath.Join(dir, "nvidia-smi")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))

	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func TestTotalMemoryParsesRows(t *testing.T) {
	fakeNvidiaSMI(t, "24576\n16384\n")

	sizes, err := TotalMemory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"24576mi", "16384mi"}, sizes)
}

func TestUUIDIndexParsesRows(t *testing.T) {
	fakeNvidiaSMI(t, "GPU-aaa, 0\nGPU-bbb, 1\n")

	mapping, err := UUIDIndex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"GPU-aaa": 0, "GPU-bbb": 1}, mapping)
}

func TestComputeAppsParsesRows(t *testing.T) {
	fakeNvidiaSMI(t, "GPU-aaa, 123, 1024\n")

	apps, err := ComputeApps(context.Background())
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, ComputeApp{GPUUUID: "GPU-aaa", PID: 123, UsedGPUMemory: "1024mi"}, apps[0])
}
