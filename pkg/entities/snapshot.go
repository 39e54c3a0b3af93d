package entities

// Snapshot is a consistent (processes, envs, devices) triple (spec §3.1,
// component F).
type Snapshot struct {
	Processes *Processes
	Envs      *Envs
	Devices   *Devices
}

// SnapshotFilter selects a sub-snapshot.
type SnapshotFilter struct {
	EID      string
	EIDs     []string
	Username string
}

// Filter returns a new snapshot whose envs match f, whose processes are
// those belonging to the filtered envs, and whose devices have at least one
// attachment belonging to the filtered envs. Deep filtering additionally
// strips non-matching attachments from the retained devices (spec §4.F
// "filter contract"); retained processes keep all their usages.
func (s *Snapshot) Filter(deep bool, f SnapshotFilter) *Snapshot {
	envs := s.Envs.Filter(Filter{EID: f.EID, EIDs: f.EIDs, Username: f.Username})
	eids := envs.EIDs()
	if len(eids) == 0 {
		return &Snapshot{Processes: &Processes{}, Envs: envs, Devices: &Devices{}}
	}

	return &Snapshot{
		Processes: s.Processes.Filter(true, ProcessFilter{EIDs: eids}),
		Envs:      envs,
		Devices:   s.Devices.Filter(deep, DeviceFilter{EIDs: eids}),
	}
}
