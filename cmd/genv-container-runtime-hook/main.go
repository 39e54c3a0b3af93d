// Command genv-container-runtime-hook is an OCI prestart hook. It reads
// the container's runtime state from stdin, recovers the container's
// requested environment id and device count/memory from its config.json
// environment, attaches the corresponding genv environment, and appends
// CUDA_VISIBLE_DEVICES (the attached indices, or -1 for none) to the
// process environment in the container's config.json. It does not set
// NVIDIA_VISIBLE_DEVICES, so which device nodes are mounted is left to the
// rest of the OCI hook chain. Modeled on the OCI state-on-stdin /
// config.json-on-bundle pattern from the reference nvidia container
// runtime hook.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/genv-io/genv/pkg/devices"
)

// hookState is the subset of the OCI runtime state JSON passed on stdin
// that this hook needs.
type hookState struct {
	Pid    int    `json:"pid"`
	Bundle string `json:"bundle"`
}

// ociConfig is the subset of config.json this hook reads and rewrites.
type ociConfig struct {
	Process struct {
		Env []string `json:"env"`
	} `json:"process"`
}

const (
	envEnvironmentID = "GENV_ENVIRONMENT_ID"
	envGPUs          = "GENV_GPUS"
	envGPUMemory     = "GENV_GPU_MEMORY"
	envCUDAVisible   = "CUDA_VISIBLE_DEVICES"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("genv-container-runtime-hook: %v", err)
	}
}

func run() error {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("reading hook state: %w", err)
	}

	var state hookState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("decoding hook state: %w", err)
	}

	configPath := filepath.Join(state.Bundle, "config.json")
	configData, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", configPath, err)
	}

	var config ociConfig
	if err := json.Unmarshal(configData, &config); err != nil {
		return fmt.Errorf("decoding %s: %w", configPath, err)
	}

	env := envMap(config.Process.Env)
	eid, ok := env[envEnvironmentID]
	if !ok {
		// Not a genv-managed container; nothing to do.
		return nil
	}

	opts := devices.Options{}
	if gpus, ok := env[envGPUs]; ok {
		if n, err := strconv.Atoi(gpus); err == nil && n > 0 {
			opts.GPUs = &n
		}
	}
	if gpuMemory, ok := env[envGPUMemory]; ok && gpuMemory != "" {
		opts.GPUMemory = &gpuMemory
	}

	var indices []int
	if opts.GPUs != nil || opts.GPUMemory != nil {
		indices, err = devices.Attach(eid, opts)
		if err != nil {
			return fmt.Errorf("attaching container %s: %w", eid, err)
		}
	} else {
		indices, err = devices.Attached(eid)
		if err != nil {
			return fmt.Errorf("reading attached devices for %s: %w", eid, err)
		}
	}

	config.Process.Env = append(config.Process.Env, envCUDAVisible+"="+cudaVisibleDevices(indices))

	return rewriteConfig(configPath, configData, config.Process.Env)
}

func envMap(env []string) map[string]string {
	m := make(map[string]string, len(env))
	for _, kv := range env {
		k, v, ok := strings.Cut(kv, "=")
		if ok {
			m[k] = v
		}
	}
	return m
}

func cudaVisibleDevices(indices []int) string {
	if len(indices) == 0 {
		return "-1"
	}
	strs := make([]string, len(indices))
	for i, idx := range indices {
		strs[i] = strconv.Itoa(idx)
	}
	return strings.Join(strs, ",")
}

// rewriteConfig patches just the process.env array of the bundle's
// config.json in place, preserving every other field verbatim (the full
// OCI config has many fields this hook has no reason to model).
func rewriteConfig(path string, original []byte, env []string) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(original, &raw); err != nil {
		return err
	}

	var process map[string]json.RawMessage
	if err := json.Unmarshal(raw["process"], &process); err != nil {
		return err
	}

	envData, err := json.Marshal(env)
	if err != nil {
		return err
	}
	process["env"] = envData

	processData, err := json.Marshal(process)
	if err != nil {
		return err
	}
	raw["process"] = processData

	out, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}
