package types

import "strings"

// Policy decides what a monitor does after it issues a restart
type Policy string

const (
	// PolicyDebounced keeps monitoring after a restart, reopening the log
	// stream from the moment the restart was issued
	PolicyDebounced Policy = "debounced"

	// PolicySingleShot stops monitoring after one restart; the container is
	// picked up again by the next reconciliation tick
	PolicySingleShot Policy = "single-shot"
)

// Valid reports whether p is a known policy
func (p Policy) Valid() bool {
	switch p {
	case PolicyDebounced, PolicySingleShot:
		return true
	default:
		return false
	}
}

// WatchSpec describes one watched container. It is built once at startup
// and never mutated afterwards.
type WatchSpec struct {
	Name           string   // Watched container name
	RestartTargets []string // Containers restarted on match, in order
	Patterns       []string // Literal substrings, any of which is a match
	SkipFirst      bool     // Ignore the first match seen by a monitor
	Policy         Policy
}

// Match returns the first pattern contained in line
func (w *WatchSpec) Match(line string) (string, bool) {
	for _, p := range w.Patterns {
		if strings.Contains(line, p) {
			return p, true
		}
	}
	return "", false
}

// Container is a running container as reported by the runtime
type Container struct {
	ID   string
	Name string
}

// ResolvedContainer is a running watched container bound to its WatchSpec
type ResolvedContainer struct {
	ID   string
	Name string
	Spec *WatchSpec
}

// MonitorState represents the lifecycle state of a monitor task
type MonitorState string

const (
	MonitorStateStarting  MonitorState = "starting"
	MonitorStateStreaming MonitorState = "streaming"
	MonitorStateMatched   MonitorState = "matched"
	MonitorStateError     MonitorState = "error"
	MonitorStateStopped   MonitorState = "stopped"
)

// StopReason explains why a monitor task stopped
type StopReason string

const (
	StopCancelled     StopReason = "cancelled"
	StopError         StopReason = "error"
	StopRestartedOnce StopReason = "restarted-once"
)

// Registry maps watch names to their specs
type Registry struct {
	specs map[string]*WatchSpec
	names []string
}

// NewRegistry builds a registry from specs. Later duplicates are ignored;
// callers are expected to reject them during validation.
func NewRegistry(specs []*WatchSpec) *Registry {
	r := &Registry{specs: make(map[string]*WatchSpec, len(specs))}
	for _, s := range specs {
		if _, exists := r.specs[s.Name]; exists {
			continue
		}
		r.specs[s.Name] = s
		r.names = append(r.names, s.Name)
	}
	return r
}

// Lookup returns the spec for a watch name
func (r *Registry) Lookup(name string) (*WatchSpec, bool) {
	s, ok := r.specs[name]
	return s, ok
}

// Names returns the watch names in configuration order
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of watches
func (r *Registry) Len() int {
	return len(r.names)
}

// Bind attaches each container to its WatchSpec. Containers without a spec
// are dropped.
func (r *Registry) Bind(containers []Container) []ResolvedContainer {
	resolved := make([]ResolvedContainer, 0, len(containers))
	for _, c := range containers {
		spec, ok := r.specs[c.Name]
		if !ok {
			continue
		}
		resolved = append(resolved, ResolvedContainer{ID: c.ID, Name: c.Name, Spec: spec})
	}
	return resolved
}
