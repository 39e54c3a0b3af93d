package remote

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteAllEscapesSingleQuotes(t *testing.T) {
	out := quoteAll([]string{"genv", "it's", "fine"})
	assert.Equal(t, []string{"'genv'", `'it'\''s'`, "'fine'"}, out)
}

func TestSSHArgsWithUsernameAndTimeout(t *testing.T) {
	host := Host{Hostname: "gpu1", Username: "alice", Timeout: 5}
	command := Command{Args: []string{"devices", "ps"}}

	args := sshArgs(host, command)
	require.Len(t, args, 4)
	assert.Equal(t, []string{"-o", "ConnectTimeout=5"}, args[:2])
	assert.Equal(t, "alice@gpu1", args[2])
	assert.Equal(t, "'genv' 'devices' 'ps'", args[3])
}

func TestSSHArgsSudoPrependsSudo(t *testing.T) {
	host := Host{Hostname: "gpu1"}
	command := Command{Args: []string{"exec", "usage", "snapshot"}, Sudo: true}

	args := sshArgs(host, command)
	assert.Equal(t, "'sudo' 'genv' 'exec' 'usage' 'snapshot'", args[len(args)-1])
}

func TestSSHArgsShellBypassesGenvPrefix(t *testing.T) {
	host := Host{Hostname: "gpu1"}
	command := Command{Args: []string{"echo", "hi"}, Shell: true}

	args := sshArgs(host, command)
	assert.Equal(t, "'echo' 'hi'", args[len(args)-1])
}

// fakeSSH installs a dispatcher script named ssh on PATH that emulates a
// remote genv invocation without ever leaving the machine: it inspects the
// trailing quoted remote-command argument and responds accordingly.
func fakeSSH(t *testing.T, body string) {
	t.Helper()
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		t.Skip("requires a POSIX shell")
	}

	dir := t.TempDir()
	script := "#!/bin/sh\n" + body
	path := filepath.Join(dir, "ssh")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func TestRunSucceedsAcrossHosts(t *testing.T) {
	fakeSSH(t, `echo hello`)

	config := Config{Hosts: []Host{{Hostname: "gpu1"}, {Hostname: "gpu2"}}}
	results, err := Run(context.Background(), config, Command{Args: []string{"devices", "ps"}}, nil)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestRunThrowOnErrorReturnsErrOnFailure(t *testing.T) {
	fakeSSH(t, `exit 1`)

	config := Config{Hosts: []Host{{Hostname: "gpu1"}}, ThrowOnError: true}
	_, err := Run(context.Background(), config, Command{Args: []string{"devices", "ps"}}, nil)
	assert.Error(t, err)
}

func TestRunQuietSwallowsFailureWithoutError(t *testing.T) {
	fakeSSH(t, `exit 1`)

	config := Config{Hosts: []Host{{Hostname: "gpu1"}}, Quiet: true}
	results, err := Run(context.Background(), config, Command{Args: []string{"devices", "ps"}}, nil)
	require.NoError(t, err)
	assert.Empty(t, results, "a failed host is excluded from the returned results")
}

func TestFindAvailableHostPicksFirstFit(t *testing.T) {
	fakeSSH(t, `cat <<'EOF'
{"Processes":{"processes":null},"Envs":{"envs":null},"Devices":{"devices":[{"index":0,"total_memory":"8gi","attachments":null},{"index":1,"total_memory":"8gi","attachments":null}]}}
EOF
`)

	config := Config{Hosts: []Host{{Hostname: "gpu1"}, {Hostname: "gpu2"}}}
	host, err := FindAvailableHost(context.Background(), config, 2)
	require.NoError(t, err)
	assert.Equal(t, "gpu1", host.Hostname)
}

func TestFindAvailableHostNoneFitsReturnsErr(t *testing.T) {
	fakeSSH(t, `cat <<'EOF'
{"Processes":{"processes":null},"Envs":{"envs":null},"Devices":{"devices":[{"index":0,"total_memory":"8gi","attachments":null}]}}
EOF
`)

	config := Config{Hosts: []Host{{Hostname: "gpu1"}}}
	_, err := FindAvailableHost(context.Background(), config, 5)
	assert.Error(t, err)
}

func TestLoadConfigParsesHostsYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hosts.yaml")
	data := "hosts:\n  - hostname: gpu1\n    username: alice\n  - hostname: gpu2\nthrow_on_error: true\nquiet: false\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	require.Len(t, config.Hosts, 2)
	assert.Equal(t, "gpu1", config.Hosts[0].Hostname)
	assert.Equal(t, "alice", config.Hosts[0].Username)
	assert.True(t, config.ThrowOnError)
}
