package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/genv-io/genv/pkg/entities"
	"github.com/genv-io/genv/pkg/sdk"
)

// runLock holds the per-device advisory locks for the current environment's
// attached devices for the lifetime of the process, releasing them when
// stdin is closed (spec §4.I "lock", §4.H).
func runLock(args []string) error {
	eid, active := sdk.EID()
	if !active {
		return entities.ErrNotActive
	}

	locks, err := (&sdk.Activation{EID: eid}).Lock()
	if err != nil {
		return err
	}
	defer locks.Close()

	fmt.Println("locked")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
	}
	return nil
}
