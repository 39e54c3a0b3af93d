package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/genv-io/genv/pkg/enforce"
	"github.com/genv-io/genv/pkg/entities"
	"github.com/genv-io/genv/pkg/snapshot"
)

func applyReport(report *entities.Report) error {
	return enforce.Apply(report)
}

// runExec implements the machine-readable entry points that remote fan-out
// invokes over SSH: "genv exec usage snapshot" prints a JSON snapshot to
// stdout, and "genv exec usage execute" reads a JSON report from stdin and
// applies it (spec §4.J).
func runExec(args []string) error {
	if len(args) < 2 || args[0] != "usage" {
		return fmt.Errorf("exec: expected \"usage snapshot\" or \"usage execute\"")
	}

	switch args[1] {
	case "snapshot":
		return runExecSnapshot()
	case "execute":
		return runExecExecute()
	default:
		return fmt.Errorf("exec: unknown usage subcommand %q", args[1])
	}
}

func runExecSnapshot() error {
	snap, err := snapshot.Snapshot(context.Background())
	if err != nil {
		return err
	}
	return json.NewEncoder(os.Stdout).Encode(snap)
}

func runExecExecute() error {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return err
	}

	var report entities.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return fmt.Errorf("exec: decoding report: %w", err)
	}

	return applyReport(&report)
}
