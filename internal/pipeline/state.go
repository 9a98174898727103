package pipeline

// State is the lifecycle phase of one generation run.
type State int

const (
	StateStandby State = iota
	StateDetecting
	StateGenerating
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateStandby:
		return "standby"
	case StateDetecting:
		return "detecting"
	case StateGenerating:
		return "generating"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions can happen.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// StateChange carries the old and new state of one transition.
type StateChange struct {
	Old State
	New State
}

// legalTransition encodes the allowed edges of the state machine. Failed is
// reachable from any non-terminal state.
func legalTransition(old, new State) bool {
	if new == StateFailed {
		return !old.Terminal()
	}
	switch old {
	case StateStandby:
		return new == StateDetecting || new == StateGenerating
	case StateDetecting:
		return new == StateGenerating || new == StateDone
	case StateGenerating:
		return new == StateDone
	default:
		return false
	}
}
