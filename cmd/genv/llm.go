package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/genv-io/genv/pkg/llm"
)

// runLLM implements "genv llm", a small gRPC front end (serve/attach/health/ps)
// over the same admission engine the local CLI uses, for model-serving
// processes that want to manage or query a host's devices remotely instead
// of over SSH (spec §4.J's fan-out surface, with grpc instead of ssh as the
// transport).
func runLLM(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("llm: expected a subcommand (serve, attach, health, ps)")
	}

	switch args[0] {
	case "serve":
		return runLLMServe(args[1:])
	case "attach":
		return runLLMAttach(args[1:])
	case "health":
		return runLLMHealth(args[1:])
	case "ps":
		return runLLMPS(args[1:])
	default:
		return fmt.Errorf("llm: unknown subcommand %q", args[0])
	}
}

func runLLMServe(args []string) error {
	fs := flag.NewFlagSet("llm serve", flag.ExitOnError)
	addr := fs.String("addr", ":9966", "address to listen on")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	return llm.Serve(ctx, *addr)
}

func runLLMAttach(args []string) error {
	fs := flag.NewFlagSet("llm attach", flag.ExitOnError)
	host := fs.String("host", "", "address of a \"genv llm serve\" instance")
	eid := fs.String("eid", "", "environment id to attach")
	gpus := fs.Int("gpus", 0, "number of devices to attach")
	gpuMemory := fs.String("gpu-memory", "", "per-device memory budget, e.g. 4gi")
	over := fs.Bool("allow-over-subscription", false, "allow attaching beyond a device's available bytes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *host == "" || *eid == "" {
		return fmt.Errorf("llm attach: -host and -eid are required")
	}

	ctx := context.Background()
	client, err := llm.Dial(ctx, *host)
	if err != nil {
		return err
	}
	defer client.Close()

	req := &llm.AttachRequest{EID: *eid, AllowOverSubscription: *over}
	if *gpus > 0 {
		req.GPUs = gpus
	}
	if *gpuMemory != "" {
		req.GPUMemory = gpuMemory
	}

	reply, err := client.Attach(ctx, req)
	if err != nil {
		return err
	}
	fmt.Println(reply.Indices)
	return nil
}

func runLLMHealth(args []string) error {
	fs := flag.NewFlagSet("llm health", flag.ExitOnError)
	host := fs.String("host", "", "address of a \"genv llm serve\" instance")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *host == "" {
		return fmt.Errorf("llm health: -host is required")
	}

	ctx := context.Background()
	client, err := llm.Dial(ctx, *host)
	if err != nil {
		return err
	}
	defer client.Close()

	reply, err := client.Health(ctx, &llm.HealthRequest{})
	if err != nil {
		return err
	}
	fmt.Printf("host: %s\nactive envs: %d\ndevices: %d\n", reply.Host, reply.ActiveEnvs, reply.DeviceCount)
	return nil
}

func runLLMPS(args []string) error {
	fs := flag.NewFlagSet("llm ps", flag.ExitOnError)
	host := fs.String("host", "", "address of a \"genv llm serve\" instance")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *host == "" {
		return fmt.Errorf("llm ps: -host is required")
	}

	ctx := context.Background()
	client, err := llm.Dial(ctx, *host)
	if err != nil {
		return err
	}
	defer client.Close()

	reply, err := client.PS(ctx, &llm.PSRequest{})
	if err != nil {
		return err
	}
	for _, p := range reply.Processes {
		fmt.Printf("%d\t%s\t%v\n", p.PID, p.EID, p.Indices)
	}
	return nil
}
