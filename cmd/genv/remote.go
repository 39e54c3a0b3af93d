package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/genv-io/genv/pkg/remote"
)

func loadRemoteConfig(path string) (remote.Config, error) {
	if path == "" {
		path = "hosts.yaml"
	}
	return remote.LoadConfig(path)
}

func runRemote(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("remote: expected a subcommand (devices, envs, enforce, query)")
	}

	switch args[0] {
	case "devices":
		return runRemoteSnapshotField(args[1:], "devices")
	case "envs":
		return runRemoteSnapshotField(args[1:], "envs")
	case "enforce":
		return runRemoteEnforce(args[1:])
	case "query":
		return runRemoteSnapshotField(args[1:], "query")
	default:
		return fmt.Errorf("remote: unknown subcommand %q", args[0])
	}
}

func runRemoteSnapshotField(args []string, what string) error {
	fs := flag.NewFlagSet("remote "+what, flag.ExitOnError)
	hosts := fs.String("hosts", "", "path to hosts.yaml")
	if err := fs.Parse(args); err != nil {
		return err
	}

	config, err := loadRemoteConfig(*hosts)
	if err != nil {
		return err
	}

	snaps, err := remote.Snapshot(context.Background(), config)
	if err != nil {
		return err
	}

	for _, s := range snaps {
		switch what {
		case "devices":
			for _, dev := range s.Snapshot.Devices.Devices {
				fmt.Printf("%s\t%d\t%s\t%v\n", s.Host.Hostname, dev.Index, dev.TotalMemory, dev.EIDs())
			}
		case "envs":
			for _, env := range s.Snapshot.Envs.Envs {
				fmt.Printf("%s\t%s\n", s.Host.Hostname, env.EID)
			}
		default:
			fmt.Printf("%s\t%d devices\t%d envs\t%d processes\n",
				s.Host.Hostname, len(s.Snapshot.Devices.Devices), len(s.Snapshot.Envs.Envs), len(s.Snapshot.Processes.Processes))
		}
	}
	return nil
}

func runRemoteEnforce(args []string) error {
	fs := flag.NewFlagSet("remote enforce", flag.ExitOnError)
	hosts := fs.String("hosts", "", "path to hosts.yaml")
	if err := fs.Parse(args); err != nil {
		return err
	}

	config, err := loadRemoteConfig(*hosts)
	if err != nil {
		return err
	}

	ctx := context.Background()
	snaps, err := remote.Snapshot(ctx, config)
	if err != nil {
		return err
	}

	reports, runConfig, err := buildFleetReports(config, snaps)
	if err != nil {
		return err
	}

	return remote.Execute(ctx, runConfig, reports)
}
