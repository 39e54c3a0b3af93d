package main

import (
	"flag"
	"fmt"

	"github.com/genv-io/genv/pkg/entities"
	"github.com/genv-io/genv/pkg/sdk"
)

func runActivate(args []string) error {
	fs := flag.NewFlagSet("activate", flag.ExitOnError)
	gpus := fs.Int("gpus", 0, "number of devices to attach")
	gpuMemory := fs.String("gpu-memory", "", "memory to reserve per device")
	name := fs.String("name", "", "environment name")
	eid := fs.String("id", "", "environment id override")
	over := fs.Bool("allow-over-subscription", false, "allow attaching beyond available memory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	config := entities.Config{}
	if *gpus > 0 {
		config.GPUs = gpus
	}
	if *gpuMemory != "" {
		config.GPUMemory = gpuMemory
	}
	if *name != "" {
		config.Name = name
	}

	activation, err := sdk.Activate(sdk.ActivateOptions{
		EID:                   *eid,
		Mode:                  sdk.ModeShell,
		Config:                config,
		AllowOverSubscription: *over,
	})
	if err != nil {
		return err
	}

	fmt.Printf("export %s=%s\n", sdk.EnvEnvironmentID, activation.EID)
	return nil
}

func runDeactivate(args []string) error {
	eid, active := sdk.EID()
	if !active {
		return entities.ErrNotActive
	}
	return (&sdk.Activation{EID: eid}).Deactivate()
}

func runAttach(args []string) error {
	fs := flag.NewFlagSet("attach", flag.ExitOnError)
	index := fs.Int("index", -1, "specific device index")
	gpus := fs.Int("gpus", 0, "number of devices")
	gpuMemory := fs.String("gpu-memory", "", "memory to reserve")
	over := fs.Bool("allow-over-subscription", false, "allow attaching beyond available memory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	eid, active := sdk.EID()
	if !active {
		return entities.ErrNotActive
	}

	opts := devicesAttachOptions(*index, *gpus, *gpuMemory, *over)
	indices, err := attachDevices(eid, opts)
	if err != nil {
		return err
	}

	activation := &sdk.Activation{EID: eid}
	if err := activation.RefreshAttached(); err != nil {
		return err
	}
	fmt.Println(indices)
	return nil
}

func runDetach(args []string) error {
	fs := flag.NewFlagSet("detach", flag.ExitOnError)
	index := fs.Int("index", -1, "specific device index, or all if unset")
	if err := fs.Parse(args); err != nil {
		return err
	}

	eid, active := sdk.EID()
	if !active {
		return entities.ErrNotActive
	}

	var idx *int
	if *index >= 0 {
		idx = index
	}
	if err := detachDevices(eid, idx); err != nil {
		return err
	}
	return (&sdk.Activation{EID: eid}).RefreshAttached()
}
