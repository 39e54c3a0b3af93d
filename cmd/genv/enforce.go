package main

import (
	"context"
	"flag"
	"time"

	"github.com/genv-io/genv/pkg/enforce"
)

func runEnforce(args []string) error {
	fs := flag.NewFlagSet("enforce", flag.ExitOnError)
	interval := fs.Int("interval", 0, "seconds between enforcement passes (0 = one-shot)")
	maxDevicesPerUser := fs.Int("max-devices-per-user", 0, "cap on devices attached per user (0 = disabled)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rules := []enforce.Rule{enforce.NonEnvProcesses, enforce.EnvDevices, enforce.EnvMemory}
	if *maxDevicesPerUser > 0 {
		max := *maxDevicesPerUser
		rules = append(rules, func(surveys ...*enforce.Survey) {
			enforce.MaxDevicesPerUser(max, surveys...)
		})
	}

	return enforce.Loop(context.Background(), time.Duration(*interval)*time.Second, rules...)
}
