package main

import (
	"flag"
	"fmt"

	"github.com/genv-io/genv/pkg/devices"
	"github.com/genv-io/genv/pkg/entities"
)

func devicesAttachOptions(index, gpus int, gpuMemory string, over bool) devices.Options {
	opts := devices.Options{AllowOverSubscription: over}
	if index >= 0 {
		opts.Index = &index
	} else if gpus > 0 {
		opts.GPUs = &gpus
	}
	if gpuMemory != "" {
		opts.GPUMemory = &gpuMemory
	}
	return opts
}

func attachDevices(eid string, opts devices.Options) ([]int, error) {
	return devices.Attach(eid, opts)
}

func detachDevices(eid string, index *int) error {
	_, err := devices.Detach(eid, index)
	return err
}

func runDevices(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("devices: expected a subcommand (ps, query, attach, detach, find)")
	}

	switch args[0] {
	case "ps":
		return runDevicesPS(args[1:])
	case "query":
		return runDevicesQuery(args[1:])
	case "attach":
		return runDevicesAttach(args[1:])
	case "detach":
		return runDevicesDetach(args[1:])
	case "find":
		return runDevicesFind(args[1:])
	default:
		return fmt.Errorf("devices: unknown subcommand %q", args[0])
	}
}

func runDevicesPS(args []string) error {
	snap, err := devices.Snapshot()
	if err != nil {
		return err
	}
	for _, dev := range snap.Devices {
		fmt.Printf("%d\t%s\t%v\n", dev.Index, dev.TotalMemory, dev.EIDs())
	}
	return nil
}

// runDevicesQuery implements the supplemented device-projection mini
// language: "genv devices query -query <field>[,<field>...]" prints one
// tab-separated row per device with the selected fields among
// index/total_memory/available_memory/eids.
func runDevicesQuery(args []string) error {
	fs := flag.NewFlagSet("devices query", flag.ExitOnError)
	fields := fs.String("query", "index,total_memory,eids", "comma-separated fields")
	if err := fs.Parse(args); err != nil {
		return err
	}

	snap, err := devices.Snapshot()
	if err != nil {
		return err
	}

	names := splitCSV(*fields)
	for _, dev := range snap.Devices {
		var row []string
		for _, name := range names {
			row = append(row, deviceField(dev, name))
		}
		fmt.Println(joinTab(row))
	}
	return nil
}

func deviceField(dev *entities.Device, name string) string {
	switch name {
	case "index":
		return fmt.Sprintf("%d", dev.Index)
	case "total_memory":
		return dev.TotalMemory
	case "available_memory":
		return fmt.Sprintf("%d", dev.AvailableBytes())
	case "eids":
		return fmt.Sprintf("%v", dev.EIDs())
	default:
		return ""
	}
}

func runDevicesAttach(args []string) error {
	fs := flag.NewFlagSet("devices attach", flag.ExitOnError)
	eid := fs.String("id", "", "environment id")
	index := fs.Int("index", -1, "specific device index")
	gpus := fs.Int("gpus", 0, "number of devices")
	gpuMemory := fs.String("gpu-memory", "", "memory to reserve")
	over := fs.Bool("allow-over-subscription", false, "allow attaching beyond available memory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *eid == "" {
		return fmt.Errorf("devices attach: --id is required")
	}

	indices, err := attachDevices(*eid, devicesAttachOptions(*index, *gpus, *gpuMemory, *over))
	if err != nil {
		return err
	}
	fmt.Println(indices)
	return nil
}

func runDevicesDetach(args []string) error {
	fs := flag.NewFlagSet("devices detach", flag.ExitOnError)
	eid := fs.String("id", "", "environment id")
	index := fs.Int("index", -1, "specific device index, or all if unset")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *eid == "" {
		return fmt.Errorf("devices detach: --id is required")
	}

	var idx *int
	if *index >= 0 {
		idx = index
	}
	return detachDevices(*eid, idx)
}

func runDevicesFind(args []string) error {
	fs := flag.NewFlagSet("devices find", flag.ExitOnError)
	gpus := fs.Int("gpus", 1, "number of devices needed")
	gpuMemory := fs.String("gpu-memory", "", "memory needed per device")
	over := fs.Bool("allow-over-subscription", false, "allow over-subscribed devices")
	if err := fs.Parse(args); err != nil {
		return err
	}

	snap, err := devices.Snapshot()
	if err != nil {
		return err
	}

	var mem *string
	if *gpuMemory != "" {
		mem = gpuMemory
	}

	indices, err := snap.FindAvailableDevices(*gpus, mem, *over)
	if err != nil {
		return err
	}
	fmt.Println(indices)
	return nil
}
