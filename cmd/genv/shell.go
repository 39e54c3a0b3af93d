package main

import (
	"fmt"

	"github.com/genv-io/genv/pkg/sdk"
)

// runShell implements the machine-readable half of shell integration: the
// eval-script template itself is out of scope (spec §1 "out of scope:
// shell integration"), but "ok" is a simple exit-status probe the template
// can call, and "init"/"reconfigure"/"reattach" just print fresh env
// assignments for the eval script to source.
func runShell(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("shell: expected a subcommand (init, reconfigure, reattach, ok)")
	}

	switch args[0] {
	case "ok":
		return runShellOK()
	case "init", "reconfigure":
		return runShellReconfigure()
	case "reattach":
		return runShellReattach()
	default:
		return fmt.Errorf("shell: unknown subcommand %q", args[0])
	}
}

func runShellOK() error {
	if _, active := sdk.EID(); !active {
		return fmt.Errorf("shell: no active environment")
	}
	return nil
}

func runShellReconfigure() error {
	eid, active := sdk.EID()
	if !active {
		return nil
	}
	activation := &sdk.Activation{EID: eid}
	if err := activation.RefreshConfiguration(); err != nil {
		return err
	}
	return printEnvAssignments(activation)
}

func runShellReattach() error {
	eid, active := sdk.EID()
	if !active {
		return nil
	}
	activation := &sdk.Activation{EID: eid}
	if err := activation.RefreshAttached(); err != nil {
		return err
	}
	return printEnvAssignments(activation)
}

func printEnvAssignments(activation *sdk.Activation) error {
	config := activation.Configuration()
	fmt.Printf("export %s=%q\n", sdk.EnvEnvironmentName, orEmpty(config.Name))
	fmt.Printf("export %s=%q\n", sdk.EnvGPUMemory, orEmpty(config.GPUMemory))
	return nil
}
