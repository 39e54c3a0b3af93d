// Command genv is the thin CLI front end over the admission/attachment/
// enforcement engine. Argument parsing is hand-dispatched rather than
// framework-driven, since argument parsers are an out-of-scope external
// collaborator for this core.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "activate":
		err = runActivate(os.Args[2:])
	case "deactivate":
		err = runDeactivate(os.Args[2:])
	case "attach":
		err = runAttach(os.Args[2:])
	case "detach":
		err = runDetach(os.Args[2:])
	case "config":
		err = runConfig(os.Args[2:])
	case "status":
		err = runStatus(os.Args[2:])
	case "envs":
		err = runEnvs(os.Args[2:])
	case "devices":
		err = runDevices(os.Args[2:])
	case "enforce":
		err = runEnforce(os.Args[2:])
	case "lock":
		err = runLock(os.Args[2:])
	case "exec":
		err = runExec(os.Args[2:])
	case "remote":
		err = runRemote(os.Args[2:])
	case "shell":
		err = runShell(os.Args[2:])
	case "llm":
		err = runLLM(os.Args[2:])
	case "-h", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "genv: unknown command %q\n", os.Args[1])
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "genv: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: genv <command> [arguments]

commands:
  activate      activate a GPU environment for the current shell/process
  deactivate    deactivate the current environment
  attach        attach the current environment to devices
  detach        detach the current environment from devices
  config        view or update the current environment's configuration
  status        print a summary of the current environment
  envs          inspect/manage the environment registry
  devices       inspect/manage the device registry
  enforce       run or loop the enforcement engine
  lock          hold the per-device locks for the current environment
  exec          internal: machine-readable snapshot/execute entry points
  remote        fan commands out to a fleet of hosts
  shell         shell-integration helpers
  llm           serve or query the admission engine over gRPC`)
}
