package main

import (
	"flag"
	"fmt"

	"github.com/genv-io/genv/pkg/entities"
	"github.com/genv-io/genv/pkg/envs"
)

func runEnvs(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("envs: expected a subcommand (ps, query, activate, deactivate, config, find)")
	}

	switch args[0] {
	case "ps":
		return runEnvsPS(args[1:])
	case "query":
		return runEnvsQuery(args[1:])
	case "activate":
		return runEnvsActivate(args[1:])
	case "deactivate":
		return runEnvsDeactivate(args[1:])
	case "config":
		return runEnvsConfig(args[1:])
	case "find":
		return runEnvsFind(args[1:])
	default:
		return fmt.Errorf("envs: unknown subcommand %q", args[0])
	}
}

func runEnvsPS(args []string) error {
	snap, err := envs.Snapshot()
	if err != nil {
		return err
	}
	for _, env := range snap.Envs {
		username := ""
		if env.Username != nil {
			username = *env.Username
		}
		fmt.Printf("%s\t%d\t%s\t%s\n", env.EID, env.UID, username, env.Creation)
	}
	return nil
}

// runEnvsQuery implements the supplemented environment-projection mini
// language: "genv envs query -query <field>[,<field>...]" prints one
// tab-separated row per environment.
func runEnvsQuery(args []string) error {
	fs := flag.NewFlagSet("envs query", flag.ExitOnError)
	fields := fs.String("query", "eid,username,name", "comma-separated fields")
	if err := fs.Parse(args); err != nil {
		return err
	}

	snap, err := envs.Snapshot()
	if err != nil {
		return err
	}

	names := splitCSV(*fields)
	for _, env := range snap.Envs {
		var row []string
		for _, name := range names {
			row = append(row, envField(env, name))
		}
		fmt.Println(joinTab(row))
	}
	return nil
}

func envField(env *entities.Env, name string) string {
	switch name {
	case "eid":
		return env.EID
	case "uid":
		return fmt.Sprintf("%d", env.UID)
	case "username":
		if env.Username != nil {
			return *env.Username
		}
		return ""
	case "name":
		if env.Config.Name != nil {
			return *env.Config.Name
		}
		return ""
	case "gpu_memory":
		if env.Config.GPUMemory != nil {
			return *env.Config.GPUMemory
		}
		return ""
	case "gpus":
		if env.Config.GPUs != nil {
			return fmt.Sprintf("%d", *env.Config.GPUs)
		}
		return ""
	case "creation":
		return env.Creation
	default:
		return ""
	}
}

func runEnvsActivate(args []string) error {
	fs := flag.NewFlagSet("envs activate", flag.ExitOnError)
	eid := fs.String("id", "", "environment id")
	uid := fs.Int("uid", 0, "owning uid")
	username := fs.String("username", "", "owning username")
	pid := fs.Int("pid", -1, "pid to attach")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *eid == "" {
		return fmt.Errorf("envs activate: --id is required")
	}

	var userPtr *string
	if *username != "" {
		userPtr = username
	}
	var pidPtr *int
	if *pid >= 0 {
		pidPtr = pid
	}

	return envs.Activate(*eid, *uid, userPtr, pidPtr, nil)
}

func runEnvsDeactivate(args []string) error {
	fs := flag.NewFlagSet("envs deactivate", flag.ExitOnError)
	pid := fs.Int("pid", -1, "pid to remove")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *pid < 0 {
		return fmt.Errorf("envs deactivate: --pid is required")
	}
	return envs.Deactivate(pid, nil)
}

func runEnvsConfig(args []string) error {
	fs := flag.NewFlagSet("envs config", flag.ExitOnError)
	eid := fs.String("id", "", "environment id")
	name := fs.String("name", "", "environment name")
	gpuMemory := fs.String("gpu-memory", "", "memory to reserve per device")
	gpus := fs.Int("gpus", 0, "number of devices")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *eid == "" {
		return fmt.Errorf("envs config: --id is required")
	}

	config := entities.Config{}
	if *name != "" {
		config.Name = name
	}
	if *gpuMemory != "" {
		config.GPUMemory = gpuMemory
	}
	if *gpus > 0 {
		config.GPUs = gpus
	}

	return envs.Configure(*eid, config)
}

func runEnvsFind(args []string) error {
	fs := flag.NewFlagSet("envs find", flag.ExitOnError)
	pid := fs.Int("pid", -1, "pid to look up")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *pid < 0 {
		return fmt.Errorf("envs find: --pid is required")
	}

	eids, err := envs.Find(pid, nil)
	if err != nil {
		return err
	}
	for _, eid := range eids {
		fmt.Println(eid)
	}
	return nil
}
