package procfs

import (
	"os"
	"os/exec"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEIDReadsChildEnviron(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("/proc is Linux-specific")
	}

	cmd := exec.Command("sleep", "5")
	cmd.Env = append(os.Environ(), "GENV_ENVIRONMENT_ID=e-test")
	require.NoError(t, cmd.Start())
	defer cmd.Process.Kill()

	eid, ok, err := EID(cmd.Process.Pid)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "e-test", eid)
}

func TestEIDAbsentVar(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("/proc is Linux-specific")
	}

	_, ok, err := EID(os.Getpid())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPollPIDSelfIsAlive(t *testing.T) {
	assert.True(t, PollPID(os.Getpid()))
}

func TestPollPIDUnlikelyPIDIsDead(t *testing.T) {
	// PID 1 always exists (init), but a very high, almost certainly unused
	// pid should report dead.
	assert.False(t, PollPID(1<<30))
}

func TestPollKernelMissingFile(t *testing.T) {
	assert.False(t, PollKernel(t.TempDir(), "does-not-exist"))
}

func TestPollKernelExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/kernel-abc.json"
	require := func(err error) {
		if err != nil {
			t.Fatal(err)
		}
	}
	require(os.WriteFile(path, []byte("{}"), 0o644))

	assert.True(t, PollKernel(dir, "abc"))
}

func TestTerminateDryRun(t *testing.T) {
	t.Setenv("GENV_TERMINATE_PROCESSES", "0")
	assert.NoError(t, Terminate(1<<30))
}
