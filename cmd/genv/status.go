package main

import (
	"fmt"

	"github.com/genv-io/genv/pkg/devices"
	"github.com/genv-io/genv/pkg/sdk"
)

func runStatus(args []string) error {
	eid, active := sdk.EID()
	if !active {
		fmt.Println("no active environment")
		return nil
	}

	activation := &sdk.Activation{EID: eid}
	config := activation.Configuration()

	indices, err := devices.Attached(eid)
	if err != nil {
		return err
	}

	fmt.Printf("id: %s\n", eid)
	fmt.Printf("name: %s\n", orEmpty(config.Name))
	fmt.Printf("attached devices: %v\n", indices)
	fmt.Printf("gpu-memory: %s\n", orEmpty(config.GPUMemory))
	return nil
}
