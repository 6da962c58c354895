// Package health defines the process-wide service state reported by the
// startup and readiness probes.
package health

import "fmt"

// State is the usability of the service process.
type State int32

const (
	// Starting is the initial state: the connection pool has not been
	// initialised yet.
	Starting State = iota

	// Ready means the connection pool is initialised and the last live check
	// against the store succeeded.
	Ready

	// Degraded means the process is running but its backing store is
	// currently unusable.
	Degraded
)

// String returns the canonical upper-case name of the state.
func (s State) String() string {
	switch s {
	case Starting:
		return "STARTING"
	case Ready:
		return "READY"
	case Degraded:
		return "DEGRADED"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// MarshalText renders the state as its lower-case name for JSON bodies.
func (s State) MarshalText() ([]byte, error) {
	switch s {
	case Starting:
		return []byte("starting"), nil
	case Ready:
		return []byte("ready"), nil
	case Degraded:
		return []byte("degraded"), nil
	default:
		return nil, fmt.Errorf("unknown state %d", int32(s))
	}
}

// Initialized reports whether startup has finished, successfully or not.
func (s State) Initialized() bool {
	return s != Starting
}
