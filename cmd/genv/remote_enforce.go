package main

import (
	"github.com/genv-io/genv/pkg/enforce"
	"github.com/genv-io/genv/pkg/entities"
	"github.com/genv-io/genv/pkg/remote"
)

// buildFleetReports runs the NonEnvProcesses, EnvDevices and EnvMemory
// rules once over the list of per-host surveys. MaxDevicesPerUser is not
// run, so remote enforcement applies no per-user device cap. It returns
// one report per host, in the same order as config.Hosts, and a Config
// scoped to just the hosts that produced a snapshot (a host remote.Snapshot
// already dropped on failure is skipped, not retried).
func buildFleetReports(config remote.Config, snaps []remote.HostSnapshot) ([]*entities.Report, remote.Config, error) {
	surveys := make([]*enforce.Survey, len(snaps))
	hosts := make([]remote.Host, len(snaps))
	for i, s := range snaps {
		surveys[i] = enforce.NewSurvey(s.Snapshot, s.Host.Hostname)
		hosts[i] = s.Host
	}

	rules := []enforce.Rule{enforce.NonEnvProcesses, enforce.EnvDevices, enforce.EnvMemory}
	for _, rule := range rules {
		rule(surveys...)
	}

	reports := make([]*entities.Report, len(surveys))
	for i, survey := range surveys {
		reports[i] = survey.Report()
	}

	runConfig := remote.Config{Hosts: hosts, ThrowOnError: config.ThrowOnError, Quiet: config.Quiet}
	return reports, runConfig, nil
}
