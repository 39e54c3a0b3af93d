package main

import (
	"flag"
	"fmt"

	"github.com/genv-io/genv/pkg/entities"
	"github.com/genv-io/genv/pkg/envs"
	"github.com/genv-io/genv/pkg/sdk"
)

func runConfig(args []string) error {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	name := fs.String("name", "", "set the environment name")
	gpuMemory := fs.String("gpu-memory", "", "set the memory to reserve per device")
	gpus := fs.Int("gpus", 0, "set the number of devices")
	clear := fs.Bool("clear", false, "clear the configuration before applying changes")
	load := fs.Bool("load", false, "load configuration from ~/.genv (or ./.genv)")
	save := fs.Bool("save", false, "save the resulting configuration to disk")
	if err := fs.Parse(args); err != nil {
		return err
	}

	eid, active := sdk.EID()
	if !active {
		return entities.ErrNotActive
	}
	activation := &sdk.Activation{EID: eid}

	var config entities.Config
	if *load {
		loaded, err := activation.LoadConfiguration()
		if err != nil {
			return err
		}
		config = loaded
	} else {
		if err := activation.RefreshConfiguration(); err != nil {
			return err
		}
		config = activation.Configuration()
	}

	if *clear {
		config = entities.Config{}
	}
	if *name != "" {
		config.Name = name
	}
	if *gpuMemory != "" {
		config.GPUMemory = gpuMemory
	}
	if *gpus > 0 {
		config.GPUs = gpus
	}
	if *clear || *name != "" || *gpuMemory != "" || *gpus > 0 {
		if err := envs.Configure(eid, config); err != nil {
			return err
		}
		if err := activation.RefreshConfiguration(); err != nil {
			return err
		}
	}

	fmt.Printf("name: %s\n", orEmpty(config.Name))
	fmt.Printf("gpu-memory: %s\n", orEmpty(config.GPUMemory))
	if config.GPUs != nil {
		fmt.Printf("gpus: %d\n", *config.GPUs)
	} else {
		fmt.Println("gpus:")
	}

	if *save {
		return activation.SaveConfiguration()
	}
	return nil
}

func orEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
