package plugins

// State is the lifecycle state of a plugin.
type State string

const (
	// StateActive marks a plugin with a commit in the activity window.
	StateActive State = "ACTIVE"
	// StateStale marks a plugin without a recent (or any known) commit.
	StateStale State = "STALE"
	// StateMaintenance is asserted manually and never reclassified.
	StateMaintenance State = "MAINTENANCE"
	// StateArchived is set manually or after GitHub confirms the repository is archived.
	StateArchived State = "ARCHIVED"
)

// Sticky reports whether automatic classification must leave the state alone.
func (s State) Sticky() bool {
	return s == StateMaintenance || s == StateArchived
}

// Valid reports whether s is one of the known states. The empty state is not valid.
func (s State) Valid() bool {
	switch s {
	case StateActive, StateStale, StateMaintenance, StateArchived:
		return true
	}
	return false
}

// String returns the store representation of the state.
func (s State) String() string {
	return string(s)
}
