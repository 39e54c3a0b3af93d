package enforce

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/genv-io/genv/pkg/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedDevicesFile(t *testing.T, devs *entities.Devices) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("GENV_TMPDIR", dir)

	data := `{"devices":[`
	for i, dev := range devs.Devices {
		if i > 0 {
			data += ","
		}
		data += fmt.Sprintf(`{"index":%d,"total_memory":%q,"attachments":null}`, dev.Index, dev.TotalMemory)
	}
	data += `]}`

	require.NoError(t, os.WriteFile(filepath.Join(dir, "devices.json"), []byte(data), 0o666))
}

func TestApplyTerminatesLiveProcess(t *testing.T) {
	seedDevicesFile(t, &entities.Devices{Devices: []*entities.Device{{Index: 0, TotalMemory: "8gi"}}})

	cmd := exec.Command("sleep", "30")
	require.NoError(t, cmd.Start())
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	report := entities.NewReport()
	report.Terminate[cmd.Process.Pid] = true

	require.NoError(t, Apply(report))

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		cmd.Process.Kill()
		t.Fatal("process was not terminated within the timeout")
	}
}

func TestApplyToleratesAlreadyDeadProcess(t *testing.T) {
	seedDevicesFile(t, &entities.Devices{Devices: []*entities.Device{{Index: 0, TotalMemory: "8gi"}}})

	cmd := exec.Command("true")
	require.NoError(t, cmd.Run())

	report := entities.NewReport()
	report.Terminate[cmd.Process.Pid] = true

	assert.NoError(t, Apply(report))
}

func TestApplyDetachesFromDeviceRegistry(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GENV_TMPDIR", dir)

	data := `{"devices":[{"index":0,"total_memory":"8gi","attachments":[{"eid":"e1","gpu_memory":null,"time":"2026-01-01T00:00:00Z"}]}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "devices.json"), []byte(data), 0o666))

	report := entities.NewReport()
	report.Detach[0] = []string{"e1"}

	require.NoError(t, Apply(report))

	raw, err := os.ReadFile(filepath.Join(dir, "devices.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "e1")
}
