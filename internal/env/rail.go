package env

import (
	"fmt"
	"math/rand"

	"janus/internal/action"
	"janus/internal/model"
)

// Rail action indices, fixed by the rail action table: OPEN=0, CLOSE=1.
const (
	RailActionOpen  = 0
	RailActionClose = 1
)

// Terminal causes reported in rail step traces.
const (
	RailCauseUnsafeOpen  = "unsafe-open"
	RailCauseSafePassage = "safe-passage"
	RailCauseArrivedOpen = "arrived-open"
)

// RailConfig configures the rail crossing environment.
type RailConfig struct {
	MaxEtaMs      int
	TimeStepMs    int
	CloseLeadMs   int
	FailPenalty   float64
	ClosePenalty  float64
	SuccessReward float64
	Seed          int64
}

// DefaultRailConfig matches the training defaults.
func DefaultRailConfig() RailConfig {
	return RailConfig{
		MaxEtaMs:      60000,
		TimeStepMs:    2000,
		CloseLeadMs:   20000,
		FailPenalty:   -50.0,
		ClosePenalty:  -0.005,
		SuccessReward: 5.0,
	}
}

// RailEnv is the rail-crossing barrier environment: a train counts down
// toward the crossing and the agent decides each tick whether the
// barrier is open or closed. The barrier must be closed throughout the
// lead window before arrival.
type RailEnv struct {
	cfg   RailConfig
	table action.Table
	rng   *rand.Rand

	etaMs         int
	barrierClosed bool
	timeClosedMs  int
	elapsedMs     int
	done          bool
	started       bool
}

// NewRailEnv validates the config and builds the environment.
func NewRailEnv(cfg RailConfig) (*RailEnv, error) {
	if cfg.TimeStepMs <= 0 {
		return nil, fmt.Errorf("time step must be positive, got %d", cfg.TimeStepMs)
	}
	if cfg.CloseLeadMs <= 0 || cfg.CloseLeadMs > cfg.MaxEtaMs {
		return nil, fmt.Errorf("close lead %d must be in (0, max eta %d]", cfg.CloseLeadMs, cfg.MaxEtaMs)
	}
	return &RailEnv{
		cfg:   cfg,
		table: action.DefaultRailTable(),
		rng:   rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

func (e *RailEnv) Controller() model.Controller { return model.ControllerRail }

// Table exposes the rail action catalog.
func (e *RailEnv) Table() action.Table { return e.table }

// ActionMapping returns the serialisable action table for persistence.
func (e *RailEnv) ActionMapping() []model.ActionSpec { return e.table.Specs() }

// EnvMeta returns the environment parameters the serving-side codec
// needs, in the form persisted with the policy metadata.
func (e *RailEnv) EnvMeta() model.RailEnvMeta {
	return model.RailEnvMeta{
		MaxEtaMs:      e.cfg.MaxEtaMs,
		TimeStepMs:    e.cfg.TimeStepMs,
		CloseLeadMs:   e.cfg.CloseLeadMs,
		FailPenalty:   e.cfg.FailPenalty,
		ClosePenalty:  e.cfg.ClosePenalty,
		SuccessReward: e.cfg.SuccessReward,
	}
}

// EtaMs reports the current countdown, for tests and traces.
func (e *RailEnv) EtaMs() int { return e.etaMs }

// BarrierClosed reports the current barrier state.
func (e *RailEnv) BarrierClosed() bool { return e.barrierClosed }

// Done reports whether the episode has terminated.
func (e *RailEnv) Done() bool { return e.done }

// Reset starts a new episode with the train somewhere in the far 40% of
// the approach and the barrier open.
func (e *RailEnv) Reset() []float64 {
	low := int(0.6 * float64(e.cfg.MaxEtaMs))
	e.resetWith(low + e.rng.Intn(e.cfg.MaxEtaMs-low+1))
	return e.observe()
}

// ResetWithEta starts a new episode with a fixed countdown, used by
// deterministic evaluations.
func (e *RailEnv) ResetWithEta(etaMs int) ([]float64, error) {
	if etaMs < 0 || etaMs > e.cfg.MaxEtaMs {
		return nil, fmt.Errorf("eta %d outside [0, %d]", etaMs, e.cfg.MaxEtaMs)
	}
	e.resetWith(etaMs)
	return e.observe(), nil
}

func (e *RailEnv) resetWith(etaMs int) {
	e.etaMs = etaMs
	e.barrierClosed = false
	e.timeClosedMs = 0
	e.elapsedMs = 0
	e.done = false
	e.started = true
}

// Step applies one barrier action. The action fully determines the
// barrier state for the tick; it is not sticky. Reward rules apply in
// order: a closed tick costs ClosePenalty; an open barrier inside the
// lead window (or at arrival) fails the episode; arrival with the
// barrier closed succeeds; closing while the train is still outside the
// lead window costs an extra ClosePenalty x2.
func (e *RailEnv) Step(actionIdx int) (StepResult, error) {
	if !e.started {
		return StepResult{}, &InvalidStateError{Op: "rail step", Reason: "episode not started; call Reset first"}
	}
	if e.done {
		return StepResult{}, &InvalidStateError{Op: "rail step", Reason: "episode already terminated; call Reset first"}
	}
	if !e.table.Contains(actionIdx) {
		return StepResult{}, &InvalidStateError{
			Op:     "rail step",
			Reason: fmt.Sprintf("action index %d outside 0..%d", actionIdx, e.table.Size()-1),
		}
	}

	reward := 0.0
	cause := ""

	e.barrierClosed = actionIdx == RailActionClose

	e.etaMs -= e.cfg.TimeStepMs
	if e.etaMs < 0 {
		e.etaMs = 0
	}
	e.elapsedMs += e.cfg.TimeStepMs
	if e.barrierClosed {
		e.timeClosedMs += e.cfg.TimeStepMs
		reward += e.cfg.ClosePenalty
	} else {
		e.timeClosedMs -= e.cfg.TimeStepMs
		if e.timeClosedMs < 0 {
			e.timeClosedMs = 0
		}
	}

	inLeadWindow := e.etaMs <= e.cfg.CloseLeadMs
	switch {
	case inLeadWindow && !e.barrierClosed:
		reward += e.cfg.FailPenalty
		e.done = true
		cause = RailCauseUnsafeOpen
	case e.etaMs == 0:
		if e.barrierClosed {
			reward += e.cfg.SuccessReward
			cause = RailCauseSafePassage
		} else {
			// Unreachable while the lead-window rule runs first; an
			// open barrier at arrival must still fail.
			reward += e.cfg.FailPenalty
			cause = RailCauseArrivedOpen
		}
		e.done = true
	case e.barrierClosed && e.etaMs > e.cfg.CloseLeadMs:
		reward += e.cfg.ClosePenalty * 2
	}

	trace := Trace{
		"eta_ms":         e.etaMs,
		"barrier_closed": e.barrierClosed,
		"elapsed_ms":     e.elapsedMs,
		"time_closed_ms": e.timeClosedMs,
	}
	if cause != "" {
		trace["cause"] = cause
	}

	return StepResult{
		Observation: e.observe(),
		Reward:      reward,
		Terminated:  e.done,
		Trace:       trace,
	}, nil
}

func (e *RailEnv) observe() []float64 {
	etaNorm := 0.0
	if e.cfg.MaxEtaMs > 0 {
		etaNorm = float64(e.etaMs) / float64(e.cfg.MaxEtaMs)
	}
	barrier := 0.0
	if e.barrierClosed {
		barrier = 1.0
	}
	return []float64{etaNorm, barrier}
}
