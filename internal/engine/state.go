package engine

import "fmt"

// State is one phase of the interaction lifecycle.
type State string

const (
	StateIdle              State = "idle"
	StateInitializing      State = "initializing"
	StateResolvingBindings State = "resolving_bindings"
	StateRendering         State = "rendering"
	StateEventProcessing   State = "event_processing"
	StateError             State = "error"
)

// transitions lists the legal successor states. Error is reachable
// from everywhere and left only by a fresh planning cycle.
var transitions = map[State][]State{
	StateInitializing:      {StateIdle, StateResolvingBindings, StateError},
	StateIdle:              {StateEventProcessing, StateResolvingBindings, StateInitializing, StateError},
	StateEventProcessing:   {StateIdle, StateResolvingBindings, StateInitializing, StateError},
	StateResolvingBindings: {StateRendering, StateError},
	StateRendering:         {StateIdle, StateError},
	StateError:             {StateInitializing},
}

func canTransition(from, to State) bool {
	if from == to {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ErrNotAccepting is returned when an operation arrives in a state
// that cannot serve it.
type ErrNotAccepting struct {
	Op    string
	State State
}

func (e *ErrNotAccepting) Error() string {
	return fmt.Sprintf("engine cannot %s in state %s", e.Op, e.State)
}
