package sdk

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/genv-io/genv/pkg/entities"
	"github.com/genv-io/genv/pkg/envs"
)

const configDirName = ".genv"

// configDir returns the first ".genv" directory found in the current
// working directory or the user's home, or "" if neither exists (spec §6.2
// supplemented feature, grounded on the original implementation's
// per-process config directory lookup).
func configDir() string {
	cwd, err := os.Getwd()
	if err == nil {
		if p := filepath.Join(cwd, configDirName); isDir(p) {
			return p
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		if p := filepath.Join(home, configDirName); isDir(p) {
			return p
		}
	}
	return ""
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func loadField(dir, basename string) *string {
	data, err := os.ReadFile(filepath.Join(dir, basename))
	if err != nil {
		return nil
	}
	v := strings.TrimSpace(string(data))
	return &v
}

func saveField(dir, basename string, value *string) error {
	path := filepath.Join(dir, basename)
	if value == nil {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	return os.WriteFile(path, []byte(*value), 0o644)
}

// LoadConfiguration reads the per-field ~/.genv (or ./.genv) configuration
// directory, applies it to the active environment, and republishes the env
// var contract (spec §4.I, "config --load").
func (a *Activation) LoadConfiguration() (entities.Config, error) {
	var config entities.Config

	if dir := configDir(); dir != "" {
		config.Name = loadField(dir, "name")
		config.GPUMemory = loadField(dir, "gpu-memory")
		if gpus := loadField(dir, "gpus"); gpus != nil {
			if n, err := strconv.Atoi(*gpus); err == nil {
				config.GPUs = &n
			}
		}
	}

	if err := envs.Configure(a.EID, config); err != nil {
		return entities.Config{}, fmt.Errorf("sdk: configuring %s: %w", a.EID, err)
	}
	if err := a.RefreshConfiguration(); err != nil {
		return entities.Config{}, err
	}
	return config, nil
}

// SaveConfiguration writes the active environment's current configuration
// out to the ~/.genv (or ./.genv) directory, one file per field, removing
// files for unset fields (spec §4.I, "config --save").
func (a *Activation) SaveConfiguration() error {
	dir := configDir()
	if dir == "" {
		return nil
	}

	config, err := envs.Configuration(a.EID)
	if err != nil {
		return fmt.Errorf("sdk: reading configuration for %s: %w", a.EID, err)
	}

	var gpus *string
	if config.GPUs != nil {
		v := strconv.Itoa(*config.GPUs)
		gpus = &v
	}

	if err := saveField(dir, "name", config.Name); err != nil {
		return err
	}
	if err := saveField(dir, "gpu-memory", config.GPUMemory); err != nil {
		return err
	}
	return saveField(dir, "gpus", gpus)
}
