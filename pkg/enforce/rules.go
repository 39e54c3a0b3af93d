package enforce

import (
	"github.com/genv-io/genv/internal/memsize"
	"github.com/genv-io/genv/pkg/entities"
	"github.com/sirupsen/logrus"
)

func hostField(s *Survey) logrus.Fields {
	if s.Hostname == "" {
		return logrus.Fields{}
	}
	return logrus.Fields{"host": s.Hostname}
}

// NonEnvProcesses terminates compute processes that aren't running in any
// known GPU environment (spec §4.G, grounded on
// enforce/rules/non_env_processes.py).
func NonEnvProcesses(surveys ...*Survey) {
	for _, survey := range surveys {
		for _, proc := range survey.Snapshot.Processes.Processes {
			if proc.EID != nil && survey.Snapshot.Envs.Contains(*proc.EID) {
				continue
			}

			logrus.WithFields(hostField(survey)).
				WithField("pid", proc.PID).
				Info("process is not running in a GPU environment")

			survey.Terminate(proc.PID)
		}
	}
}

// EnvDevices terminates processes whose device usage includes an index not
// among their environment's attached indices (spec §4.G "env_devices").
func EnvDevices(surveys ...*Survey) {
	for _, survey := range surveys {
		for _, proc := range survey.Snapshot.Processes.Processes {
			if proc.EID == nil {
				continue
			}
			env := survey.Snapshot.Envs.Get(*proc.EID)
			if env == nil {
				continue
			}

			attached := map[int]bool{}
			for _, dev := range survey.Snapshot.Devices.Filter(false, entities.DeviceFilter{EID: *proc.EID}).Devices {
				attached[dev.Index] = true
			}

			for _, index := range proc.Indices() {
				if !attached[index] {
					logrus.WithFields(hostField(survey)).
						WithField("pid", proc.PID).
						WithField("index", index).
						Info("process is using a device not attached to its environment")
					survey.Terminate(proc.PID)
					break
				}
			}
		}
	}
}

// EnvMemory terminates processes from environments exceeding their
// configured memory capacity on a device, terminating in snapshot iteration
// order until enough is freed (spec §4.G "env_memory", grounded on
// enforce/rules/env_memory.py).
func EnvMemory(surveys ...*Survey) {
	for _, survey := range surveys {
		for _, env := range survey.Snapshot.Envs.Envs {
			if env.Config.GPUMemory == nil {
				continue
			}
			capacity, err := memsize.ToBytes(*env.Config.GPUMemory)
			if err != nil {
				continue
			}

			for _, dev := range survey.Snapshot.Devices.Devices {
				if !containsEID(dev.EIDs(), env.EID) {
					continue
				}

				index := dev.Index
				procs := survey.Snapshot.Processes.Filter(true, entities.ProcessFilter{EID: env.EID, Index: &index}).Processes

				var used int64
				for _, proc := range procs {
					used += proc.BytesOnDevice(dev.Index)
				}

				over := used - capacity
				if over <= 0 {
					continue
				}

				logrus.WithFields(hostField(survey)).
					WithField("eid", env.EID).
					WithField("index", dev.Index).
					WithField("used", used).
					WithField("over", over).
					Info("environment is over its configured memory capacity")

				var freed int64
				for _, proc := range procs {
					survey.Terminate(proc.PID)
					freed += proc.BytesOnDevice(dev.Index)
					if freed >= over {
						break
					}
				}
			}
		}
	}
}

// MaxDevicesPerUser enforces a per-user cap on attached devices, detaching
// from the highest indices first until only the maximum remains (spec §4.G
// "max_devices_per_user", grounded on
// enforce/rules/max_devices_per_user.py). maximum is applied across all
// surveys passed together, matching the fleet-aggregation contract.
func MaxDevicesPerUser(maximum int, surveys ...*Survey) {
	usernames := map[string]bool{}
	for _, survey := range surveys {
		for _, env := range survey.Snapshot.Envs.Envs {
			if env.Username != nil && *env.Username != "" {
				usernames[*env.Username] = true
			}
		}
	}

	for username := range usernames {
		type perSurvey struct {
			survey  *Survey
			devices []devIdx
		}

		var attached int
		var perUser []perSurvey

		for _, survey := range surveys {
			var devices []devIdx
			for _, dev := range survey.Snapshot.Devices.Devices {
				for _, eid := range dev.EIDs() {
					env := survey.Snapshot.Envs.Get(eid)
					if env != nil && env.Username != nil && *env.Username == username {
						devices = append(devices, devIdx{index: dev.Index, eid: eid})
					}
				}
			}
			attached += len(devices)
			perUser = append(perUser, perSurvey{survey: survey, devices: devices})
		}

		if attached <= maximum {
			continue
		}
		over := attached - maximum

		logrus.WithField("user", username).
			WithField("attached", attached).
			WithField("over", over).
			Info("user exceeds the maximum allowed devices")

		detached := 0
		for _, pu := range perUser {
			// Highest indices first within each host (spec: "detach devices
			// from that user starting at the highest index").
			sortDevIdxDesc(pu.devices)

			for _, di := range pu.devices {
				if detached == over {
					break
				}
				pu.survey.Detach(di.index, di.eid)
				detached++
			}
		}
	}
}

type devIdx struct {
	index int
	eid   string
}

func sortDevIdxDesc(xs []devIdx) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1].index < xs[j].index; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}

func containsEID(eids []string, eid string) bool {
	for _, e := range eids {
		if e == eid {
			return true
		}
	}
	return false
}
