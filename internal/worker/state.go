package worker

import "fmt"

// State tracks a worker instance's position in its lifecycle. Transitions
// only move forward; a retried work item gets a fresh instance, never a
// reused one.
type State int

const (
	StateIdle State = iota
	StateReady
	StateProcessing
	StateFlushing
	StateManifestWritten
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReady:
		return "ready"
	case StateProcessing:
		return "processing"
	case StateFlushing:
		return "flushing"
	case StateManifestWritten:
		return "manifest-written"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// advance moves the worker to the next state. Backward or repeated
// transitions indicate a reused instance and are rejected.
func (w *Worker) advance(to State) error {
	if to <= w.state {
		return fmt.Errorf("worker-%d: illegal transition %s -> %s", w.id, w.state, to)
	}
	w.state = to
	return nil
}

// State returns the worker's current lifecycle state.
func (w *Worker) State() State {
	return w.state
}
