// Package lifecycle implements the gateway worker: an explicit
// install/activate/supersede state machine that pre-caches the shell,
// reconciles versioned buckets on activation, and services the control
// protocol.
package lifecycle

// State is a phase of the worker lifecycle.
type State int

const (
	// Installing is the initial state while the static bucket is
	// populated from the pre-cache manifest.
	Installing State = iota

	// Waiting means installation finished and the worker is pending
	// activation.
	Waiting

	// Active means the worker governs requests.
	Active

	// Superseded means a newer worker took over. The superseded
	// worker's buckets are cleaned during the successor's activation,
	// never by the worker itself (one-generation lag).
	Superseded
)

// String returns the state name for logs.
func (s State) String() string {
	switch s {
	case Installing:
		return "installing"
	case Waiting:
		return "waiting"
	case Active:
		return "active"
	case Superseded:
		return "superseded"
	default:
		return "unknown"
	}
}

// Event is a lifecycle trigger.
type Event int

const (
	// EventInstalled fires when pre-caching completed (or best-effort
	// failed; installation failure never blocks activation).
	EventInstalled Event = iota

	// EventActivated fires when the worker takes control of clients.
	EventActivated

	// EventSuperseded fires when a successor worker activates.
	EventSuperseded
)

// String returns the event name for logs.
func (e Event) String() string {
	switch e {
	case EventInstalled:
		return "installed"
	case EventActivated:
		return "activated"
	case EventSuperseded:
		return "superseded"
	default:
		return "unknown"
	}
}

// Next is the pure transition function of the lifecycle machine.
// It returns the successor state and whether the transition is legal,
// so the dispatch table is testable with synthetic events.
func Next(s State, e Event) (State, bool) {
	switch {
	case s == Installing && e == EventInstalled:
		return Waiting, true
	case s == Waiting && e == EventActivated:
		return Active, true
	case s == Active && e == EventSuperseded:
		return Superseded, true
	default:
		return s, false
	}
}
