package entities

// Envs is a collection of environments (spec §3.1/§4.D).
type Envs struct {
	Envs []*Env `json:"envs"`
}

// EIDs returns the identifiers of every environment in the collection.
func (e *Envs) EIDs() []string {
	eids := make([]string, len(e.Envs))
	for i, env := range e.Envs {
		eids[i] = env.EID
	}
	return eids
}

// Usernames returns the distinct, non-empty usernames present.
func (e *Envs) Usernames() []string {
	seen := map[string]bool{}
	var out []string
	for _, env := range e.Envs {
		if env.Username == nil || *env.Username == "" {
			continue
		}
		if !seen[*env.Username] {
			seen[*env.Username] = true
			out = append(out, *env.Username)
		}
	}
	return out
}

// Get returns the environment with the given eid, or nil.
func (e *Envs) Get(eid string) *Env {
	for _, env := range e.Envs {
		if env.EID == eid {
			return env
		}
	}
	return nil
}

// Contains reports whether eid names an environment in the collection.
func (e *Envs) Contains(eid string) bool {
	return e.Get(eid) != nil
}

// Activate creates a new, holder-less environment for eid. Callers are
// expected to have already checked Contains(eid) and to attach a holder
// immediately afterward (spec §4.D "activate").
func (e *Envs) Activate(eid string, uid int, username *string, creation string) *Env {
	env := &Env{
		EID:      eid,
		UID:      uid,
		Username: username,
		Creation: creation,
		Config:   Config{},
	}
	e.Envs = append(e.Envs, env)
	return env
}

// Filter is the set of selectors accepted by Envs.Filter, Devices.Filter,
// and Snapshot.Filter (spec §9: "typed selectors returning the same
// collection type").
type Filter struct {
	EID      string
	EIDs     []string
	Username string
	Name     string
}

func (f Filter) eidSet() map[string]bool {
	if f.EID == "" && len(f.EIDs) == 0 {
		return nil
	}
	set := map[string]bool{}
	for _, eid := range f.EIDs {
		set[eid] = true
	}
	if f.EID != "" {
		set[f.EID] = true
	}
	return set
}

// Filter returns a new collection containing only the matching environments.
func (e *Envs) Filter(f Filter) *Envs {
	eids := f.eidSet()

	var out []*Env
	for _, env := range e.Envs {
		if eids != nil && !eids[env.EID] {
			continue
		}
		if f.Username != "" && (env.Username == nil || *env.Username != f.Username) {
			continue
		}
		if f.Name != "" && (env.Config.Name == nil || *env.Config.Name != f.Name) {
			continue
		}
		out = append(out, env)
	}
	return &Envs{Envs: out}
}

// Cleanup prunes non-live pids/kernels from the selected environments (all of
// them if no identifiers are given) and drops any environment that becomes
// inactive as a result (spec §4.D "cleanup").
func (e *Envs) Cleanup(f Filter, pollPID func(int) bool, pollKernel func(string) bool) {
	eids := f.eidSet()

	for _, env := range e.Envs {
		if eids != nil && !eids[env.EID] {
			continue
		}
		env.Cleanup(pollPID, pollKernel)
	}

	live := e.Envs[:0:0]
	for _, env := range e.Envs {
		if env.Active() {
			live = append(live, env)
		}
	}
	e.Envs = live
}

// Find returns the environments holding the given pid and/or kernel id.
func (e *Envs) Find(pid *int, kernelID *string) []*Env {
	var out []*Env
	for _, env := range e.Envs {
		if pid != nil && containsInt(env.PIDs, *pid) {
			out = append(out, env)
			continue
		}
		if kernelID != nil && containsString(env.KernelIDs, *kernelID) {
			out = append(out, env)
		}
	}
	return out
}

// Deactivate removes the given pid and/or kernel id from every environment
// that holds it, dropping environments that become inactive (spec §4.D
// "deactivate").
func (e *Envs) Deactivate(pid *int, kernelID *string) {
	for _, env := range e.Envs {
		if pid != nil {
			env.PIDs = removeInt(env.PIDs, *pid)
		}
		if kernelID != nil {
			env.KernelIDs = removeString(env.KernelIDs, *kernelID)
		}
	}

	live := e.Envs[:0:0]
	for _, env := range e.Envs {
		if env.Active() {
			live = append(live, env)
		}
	}
	e.Envs = live
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func containsString(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

// removeInt removes every occurrence of x, matching the open question
// decided in env.go: pids may repeat, so deactivation removes all copies.
func removeInt(xs []int, x int) []int {
	out := xs[:0:0]
	for _, v := range xs {
		if v != x {
			out = append(out, v)
		}
	}
	return out
}

func removeString(xs []string, x string) []string {
	out := xs[:0:0]
	for _, v := range xs {
		if v != x {
			out = append(out, v)
		}
	}
	return out
}
