package sdk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirGenv creates ./.genv under a fresh temp working directory and
// restores the original working directory on cleanup.
func chdirGenv(t *testing.T) string {
	t.Helper()

	cwd, err := os.Getwd()
	require.NoError(t, err)

	dir := t.TempDir()
	genvDir := filepath.Join(dir, ".genv")
	require.NoError(t, os.MkdirAll(genvDir, 0o777))
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(cwd) })

	return genvDir
}

func TestLoadConfigurationReadsFlatFields(t *testing.T) {
	isolateState(t)
	clearActivationEnv(t)
	genvDir := chdirGenv(t)

	require.NoError(t, os.WriteFile(filepath.Join(genvDir, "name"), []byte("training"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(genvDir, "gpu-memory"), []byte("4gi"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(genvDir, "gpus"), []byte("2"), 0o644))

	activation, err := Activate(ActivateOptions{EID: "e1"})
	require.NoError(t, err)
	defer activation.Deactivate()

	config, err := activation.LoadConfiguration()
	require.NoError(t, err)
	require.NotNil(t, config.Name)
	assert.Equal(t, "training", *config.Name)
	require.NotNil(t, config.GPUMemory)
	assert.Equal(t, "4gi", *config.GPUMemory)
	require.NotNil(t, config.GPUs)
	assert.Equal(t, 2, *config.GPUs)

	assert.Equal(t, "training", os.Getenv(EnvEnvironmentName))
}

func TestSaveConfigurationWritesFlatFieldsAndRemovesUnset(t *testing.T) {
	isolateState(t)
	clearActivationEnv(t)
	genvDir := chdirGenv(t)

	activation, err := Activate(ActivateOptions{EID: "e1"})
	require.NoError(t, err)
	defer activation.Deactivate()

	_, err = activation.LoadConfiguration()
	require.NoError(t, err)

	// No gpu-memory/gpus were configured, so SaveConfiguration must not
	// leave stale files behind for them.
	require.NoError(t, activation.SaveConfiguration())

	_, err = os.Stat(filepath.Join(genvDir, "gpu-memory"))
	assert.True(t, os.IsNotExist(err))
}

func TestSaveConfigurationNoopWithoutGenvDir(t *testing.T) {
	isolateState(t)
	clearActivationEnv(t)

	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(cwd) })

	activation, err := Activate(ActivateOptions{EID: "e1"})
	require.NoError(t, err)
	defer activation.Deactivate()

	assert.NoError(t, activation.SaveConfiguration())
}
