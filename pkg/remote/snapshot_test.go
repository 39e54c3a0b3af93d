package remote

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/genv-io/genv/pkg/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotDecodesPerHostJSON(t *testing.T) {
	fakeSSH(t, `cat <<'EOF'
{"Processes":{"processes":null},"Envs":{"envs":null},"Devices":{"devices":[{"index":0,"total_memory":"8gi","attachments":null}]}}
EOF
`)

	config := Config{Hosts: []Host{{Hostname: "gpu1"}}}
	snaps, err := Snapshot(context.Background(), config)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "gpu1", snaps[0].Host.Hostname)
	require.Len(t, snaps[0].Snapshot.Devices.Devices, 1)
	assert.Equal(t, 0, snaps[0].Snapshot.Devices.Devices[0].Index)
}

func TestExecuteRejectsMismatchedLengths(t *testing.T) {
	config := Config{Hosts: []Host{{Hostname: "gpu1"}, {Hostname: "gpu2"}}}
	err := Execute(context.Background(), config, []*entities.Report{entities.NewReport()})
	assert.Error(t, err)
}

func TestExecutePipesReportAsStdin(t *testing.T) {
	dir := t.TempDir()
	captured := filepath.Join(dir, "captured.json")
	fakeSSH(t, `cat > `+captured)

	config := Config{Hosts: []Host{{Hostname: "gpu1"}}}
	report := entities.NewReport()
	report.Terminate[123] = true

	require.NoError(t, Execute(context.Background(), config, []*entities.Report{report}))

	data, err := os.ReadFile(captured)
	require.NoError(t, err)
	assert.Contains(t, string(data), "123")
}
