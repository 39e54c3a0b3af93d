// Package enforce implements genv's enforcement engine (spec.md component
// G): rules that inspect a snapshot and schedule terminations/detachments
// into a Survey, producing a Report that Apply then carries out.
package enforce

import "github.com/genv-io/genv/pkg/entities"

// Survey is the mutable builder rules use to accumulate a Report while
// inspecting a snapshot (spec §3.1 "Survey").
type Survey struct {
	Snapshot *entities.Snapshot
	Hostname string

	pids   map[int]bool
	detach map[int]map[string]bool
}

// NewSurvey returns an empty survey over the given snapshot. Hostname is
// optional context used only in log/print messages when aggregating
// across a fleet.
func NewSurvey(snapshot *entities.Snapshot, hostname string) *Survey {
	return &Survey{
		Snapshot: snapshot,
		Hostname: hostname,
		pids:     map[int]bool{},
		detach:   map[int]map[string]bool{},
	}
}

// Terminate schedules the given pids for termination.
func (s *Survey) Terminate(pids ...int) {
	for _, pid := range pids {
		s.pids[pid] = true
	}
}

// Detach schedules the given eids for detachment from the device at index,
// and also schedules termination of every one of their processes on that
// device (spec §3.1 "Survey.detach").
func (s *Survey) Detach(index int, eids ...string) {
	if s.detach[index] == nil {
		s.detach[index] = map[string]bool{}
	}

	for _, eid := range eids {
		s.detach[index][eid] = true

		procs := s.Snapshot.Processes.Filter(true, entities.ProcessFilter{EID: eid, Index: &index})
		for _, proc := range procs.Processes {
			s.Terminate(proc.PID)
		}
	}
}

// Report materializes the accumulated terminate/detach decisions.
func (s *Survey) Report() *entities.Report {
	r := entities.NewReport()

	for pid := range s.pids {
		r.Terminate[pid] = true
	}
	for index, eids := range s.detach {
		for eid := range eids {
			r.Detach[index] = append(r.Detach[index], eid)
		}
	}
	return r
}
