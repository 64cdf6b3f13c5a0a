package countdown

import "fmt"

// State is the countdown's lifecycle state.
type State int

const (
	Idle State = iota
	Running
	Paused
	Completed
)

var stateNames = map[State]string{
	Idle:      "idle",
	Running:   "running",
	Paused:    "paused",
	Completed: "completed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ParseState parses the persisted name of a state. The empty string is Idle.
func ParseState(s string) (State, error) {
	if s == "" {
		return Idle, nil
	}
	for st, name := range stateNames {
		if name == s {
			return st, nil
		}
	}
	return Idle, fmt.Errorf("unknown countdown state %q", s)
}
