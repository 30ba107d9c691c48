// Package env implements the training-time control environments for the
// traffic signal and the rail crossing. Each environment is a
// single-owner, sequential state machine: exactly one episode live at a
// time, exactly one Step in flight, never shared across goroutines.
package env

import (
	"fmt"

	"janus/internal/model"
)

// Trace carries per-step diagnostic values alongside the reward.
type Trace map[string]any

// StepResult is what one environment step produces.
type StepResult struct {
	Observation []float64
	Reward      float64
	Terminated  bool
	Trace       Trace
}

// Environment is the shared contract of both control environments.
// Observations use the exact vector vocabulary the serving codec emits.
type Environment interface {
	Controller() model.Controller
	ActionMapping() []model.ActionSpec
}

// InvalidStateError reports a local precondition violation: stepping a
// terminated episode, stepping before reset, or an action index outside
// the declared action space. State is never mutated before the check.
type InvalidStateError struct {
	Op     string
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}
