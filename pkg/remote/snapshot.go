package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/genv-io/genv/pkg/entities"
	"gopkg.in/yaml.v3"
)

// HostSnapshot pairs a host with the snapshot taken on it.
type HostSnapshot struct {
	Host     Host
	Snapshot *entities.Snapshot
}

// Snapshot runs "genv exec usage snapshot" on every host in config.Hosts
// under sudo (needed for the full process list) and JSON-decodes the
// result (spec §4.J "snapshot").
func Snapshot(ctx context.Context, config Config) ([]HostSnapshot, error) {
	results, err := Run(ctx, config, Command{Args: []string{"exec", "usage", "snapshot"}, Sudo: true}, nil)
	if err != nil {
		return nil, err
	}

	out := make([]HostSnapshot, 0, len(results))
	for _, r := range results {
		var snap entities.Snapshot
		if err := json.Unmarshal([]byte(r.Stdout), &snap); err != nil {
			return nil, fmt.Errorf("remote: decoding snapshot from %s: %w", r.Host.Hostname, err)
		}
		out = append(out, HostSnapshot{Host: r.Host, Snapshot: &snap})
	}
	return out, nil
}

// Execute runs "genv exec usage execute" on each host, piping that host's
// corresponding report to it as JSON over stdin, under sudo (spec §4.J
// "enforce.execute"). Hosts and reports must be the same length and in
// matching order.
func Execute(ctx context.Context, config Config, reports []*entities.Report) error {
	if len(reports) != len(config.Hosts) {
		return fmt.Errorf("remote: execute: %d hosts but %d reports", len(config.Hosts), len(reports))
	}

	stdins := make([]string, len(reports))
	for i, report := range reports {
		data, err := json.Marshal(report)
		if err != nil {
			return fmt.Errorf("remote: encoding report for %s: %w", config.Hosts[i].Hostname, err)
		}
		stdins[i] = string(data)
	}

	_, err := Run(ctx, config, Command{Args: []string{"exec", "usage", "execute"}, Sudo: true}, stdins)
	return err
}

// hostsFile is the on-disk shape of a fleet's hosts.yaml (spec §6.2
// "fleet configuration").
type hostsFile struct {
	Hosts        []Host `yaml:"hosts"`
	ThrowOnError bool   `yaml:"throw_on_error"`
	Quiet        bool   `yaml:"quiet"`
}

// LoadConfig reads a fleet's host list and fan-out policy from a
// hosts.yaml file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("remote: reading %s: %w", path, err)
	}

	var f hostsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Config{}, fmt.Errorf("remote: parsing %s: %w", path, err)
	}

	return Config{Hosts: f.Hosts, ThrowOnError: f.ThrowOnError, Quiet: f.Quiet}, nil
}
