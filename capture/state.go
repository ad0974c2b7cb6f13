package capture

import "fmt"

// State is the lifecycle position of one speaker capture.
type State int

const (
	StateIdle State = iota
	StateCapturing
	StateFinalizing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateFinalizing:
		return "finalizing"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// isValidTransition enforces the capture state machine edges.
func isValidTransition(from, to State) bool {
	switch from {
	case StateIdle:
		return to == StateCapturing
	case StateCapturing:
		return to == StateFinalizing
	case StateFinalizing:
		return to == StateClosed
	default:
		return false
	}
}
