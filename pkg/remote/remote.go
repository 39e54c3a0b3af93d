// Package remote implements genv's fleet fan-out (spec.md component J):
// running genv over SSH against a list of hosts, aggregating per-host
// snapshots and enforcement reports. Grounded on the original
// implementation's remote/utils/ssh.py.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Host is a single fleet member's SSH connection parameters.
type Host struct {
	Hostname string `yaml:"hostname"`
	Username string `yaml:"username,omitempty"`
	Timeout  int    `yaml:"timeout,omitempty"` // seconds, 0 = ssh default
}

// Config is the execution configuration for a fan-out run.
type Config struct {
	Hosts        []Host
	ThrowOnError bool // raise (return an error) if any host fails
	Quiet        bool // suppress the per-host failure message otherwise printed
}

// Command is a genv invocation to run on every host.
type Command struct {
	Args  []string
	Sudo  bool
	Shell bool // run Args as a raw shell command instead of "genv <Args...>"
}

func (c Command) allArgs() []string {
	if c.Shell {
		return c.Args
	}
	return append([]string{"genv"}, c.Args...)
}

// Result is one host's outcome from Run.
type Result struct {
	Host     Host
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error // non-nil if the ssh subprocess itself could not be started
}

func (r Result) succeeded() bool {
	return r.Err == nil && r.ExitCode == 0
}

func sshArgs(host Host, command Command) []string {
	args := []string{}
	if host.Timeout > 0 {
		args = append(args, "-o", fmt.Sprintf("ConnectTimeout=%d", host.Timeout))
	}

	target := host.Hostname
	if host.Username != "" {
		target = host.Username + "@" + host.Hostname
	}
	args = append(args, target)

	remote := command.allArgs()
	if command.Sudo {
		remote = append([]string{"sudo"}, remote...)
	}
	args = append(args, strings.Join(quoteAll(remote), " "))

	return args
}

func quoteAll(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
	}
	return out
}

func runOne(ctx context.Context, host Host, command Command, stdin string) Result {
	cmd := exec.CommandContext(ctx, "ssh", sshArgs(host, command)...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := Result{Host: host, Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return result
	}

	if exitErr, ok := err.(*exec.ExitError); ok {
		result.ExitCode = exitErr.ExitCode()
		return result
	}

	result.Err = err
	return result
}

// Run runs command on every host in config.Hosts concurrently, one SSH
// subprocess per host, and waits for all of them (spec §4.J "run"). stdins,
// if non-nil, must have one entry per host. Hosts whose command failed are
// reported via the configured throw_on_error/quiet policy and excluded from
// the returned results; successful hosts' stderr is reprinted to the log
// with a "[hostname]" prefix, matching the original's attribution behavior.
func Run(ctx context.Context, config Config, command Command, stdins []string) ([]Result, error) {
	results := make([]Result, len(config.Hosts))

	var wg sync.WaitGroup
	for i, host := range config.Hosts {
		var stdin string
		if stdins != nil && i < len(stdins) {
			stdin = stdins[i]
		}

		wg.Add(1)
		go func(i int, host Host, stdin string) {
			defer wg.Done()
			results[i] = runOne(ctx, host, command, stdin)
		}(i, host, stdin)
	}
	wg.Wait()

	var succeeded []Result
	for _, r := range results {
		if r.succeeded() {
			succeeded = append(succeeded, r)
			continue
		}

		detail := r.Stderr
		if r.Err != nil {
			detail = r.Err.Error()
		}
		message := fmt.Sprintf("Failed running SSH command on %s (%s)", r.Host.Hostname, strings.TrimSpace(detail))

		if config.ThrowOnError {
			return nil, fmt.Errorf("remote: %s", message)
		}
		if !config.Quiet {
			logrus.Warn(message)
		}
	}

	for _, r := range succeeded {
		if strings.TrimSpace(r.Stderr) != "" {
			for _, line := range strings.Split(strings.TrimRight(r.Stderr, "\n"), "\n") {
				logrus.Infof("[%s] %s", r.Host.Hostname, line)
			}
		}
	}

	return succeeded, nil
}

// FindAvailableHost picks the first host in config.Hosts whose device
// snapshot reports at least gpus detached devices (first-fit deterministic,
// spec §4.J "find_available_host").
func FindAvailableHost(ctx context.Context, config Config, gpus int) (*Host, error) {
	for i := range config.Hosts {
		host := config.Hosts[i]

		single := Config{Hosts: []Host{host}, ThrowOnError: false, Quiet: true}
		snap, err := Snapshot(ctx, single)
		if err != nil || len(snap) == 0 {
			continue
		}

		free := 0
		for _, dev := range snap[0].Devices.Devices {
			if dev.Available(nil) {
				free++
			}
		}
		if free >= gpus {
			return &host, nil
		}
	}
	return nil, fmt.Errorf("remote: no host with %d available devices", gpus)
}
