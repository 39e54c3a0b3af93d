// Package nvidiasmi implements genv's device probe (spec.md component B):
// shelling out to nvidia-smi for per-device totals and running compute
// processes, always with GENV_BYPASS=1 so a shim wrapper on PATH (used by
// the container runtime hook) passes through to the real binary.
package nvidiasmi

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

const bypassEnv = "GENV_BYPASS=1"

// DeviceInfo is a single row of `nvidia-smi --query-gpu=...`.
type DeviceInfo struct {
	Index       int
	UUID        string
	TotalMemory string // suffixed, e.g. "24576mi"
	UsedMemory  string
	Utilization int
	Temperature int
}

// ComputeApp is a single row of the running-compute-processes query.
type ComputeApp struct {
	GPUUUID       string
	PID           int
	UsedGPUMemory string
}

func run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "nvidia-smi", args...)
	cmd.Env = append(cmd.Env, bypassEnv)

	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("nvidiasmi: running nvidia-smi %s: %w", strings.Join(args, " "), err)
	}
	return string(out), nil
}

func splitCSVLines(s string) [][]string {
	var rows [][]string
	for _, line := range strings.Split(strings.TrimRight(s, "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		rows = append(rows, fields)
	}
	return rows
}

// Devices returns per-device total memory, utilization, temperature, UUID
// and used memory.
func Devices(ctx context.Context) ([]DeviceInfo, error) {
	out, err := run(ctx, "--query-gpu=index,uuid,memory.total,memory.used,utilization.gpu,temperature.gpu",
		"--format=csv,noheader,nounits")
	if err != nil {
		return nil, err
	}

	var devices []DeviceInfo
	for _, row := range splitCSVLines(out) {
		if len(row) != 6 {
			return nil, fmt.Errorf("nvidiasmi: unexpected device row %q", row)
		}

		index, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, fmt.Errorf("nvidiasmi: parsing device index %q: %w", row[0], err)
		}
		util, _ := strconv.Atoi(row[4])
		temp, _ := strconv.Atoi(row[5])

		devices = append(devices, DeviceInfo{
			Index:       index,
			UUID:        row[1],
			TotalMemory: row[2] + "mi",
			UsedMemory:  row[3] + "mi",
			Utilization: util,
			Temperature: temp,
		})
	}
	return devices, nil
}

// TotalMemory returns only each device's total memory, in index order — the
// minimal query used to bootstrap a fresh devices.json (spec §4.A "create").
func TotalMemory(ctx context.Context) ([]string, error) {
	out, err := run(ctx, "--query-gpu=memory.total", "--format=csv,noheader,nounits")
	if err != nil {
		return nil, err
	}

	var sizes []string
	for _, row := range splitCSVLines(out) {
		sizes = append(sizes, row[0]+"mi")
	}
	return sizes, nil
}

// UUIDIndex returns the uuid -> index mapping used to join compute-app
// records (keyed by GPU UUID) back onto device indices.
func UUIDIndex(ctx context.Context) (map[string]int, error) {
	out, err := run(ctx, "--query-gpu=uuid,index", "--format=csv,noheader")
	if err != nil {
		return nil, err
	}

	mapping := map[string]int{}
	for _, row := range splitCSVLines(out) {
		if len(row) != 2 {
			continue
		}
		index, err := strconv.Atoi(row[1])
		if err != nil {
			continue
		}
		mapping[row[0]] = index
	}
	return mapping, nil
}

// ComputeApps returns the running compute processes across all devices.
func ComputeApps(ctx context.Context) ([]ComputeApp, error) {
	out, err := run(ctx, "--query-compute-apps=gpu_uuid,pid,used_memory", "--format=csv,noheader,nounits")
	if err != nil {
		return nil, err
	}

	var apps []ComputeApp
	for _, row := range splitCSVLines(out) {
		if len(row) != 3 {
			continue
		}
		pid, err := strconv.Atoi(row[1])
		if err != nil {
			continue
		}
		apps = append(apps, ComputeApp{
			GPUUUID:       row[0],
			PID:           pid,
			UsedGPUMemory: row[2] + "mi",
		})
	}
	return apps, nil
}
