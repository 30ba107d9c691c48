package env

import (
	"context"
	"fmt"

	"janus/internal/action"
	"janus/internal/model"
	"janus/internal/sim"
)

// TrafficState enumerates the traffic signal automaton. Amber states are
// never selectable actions; the machine passes through them automatically
// whenever the right-of-way phase changes.
type TrafficState string

const (
	StateNSGreen    TrafficState = "ns-green"
	StateEWGreen    TrafficState = "ew-green"
	StateAmberNSEW  TrafficState = "ns-to-ew-amber"
	StateAmberEWNS  TrafficState = "ew-to-ns-amber"
	StateTerminated TrafficState = "terminated"
)

// TrafficConfig configures a traffic signal environment.
type TrafficConfig struct {
	GreenDurations []int // candidate green durations in seconds
	MaxSteps       int   // episode length in simulated seconds
	WarmupSteps    int   // sim steps burned on reset before first decision
	AmberSeconds   int   // fixed amber buffer on every phase change
}

// DefaultTrafficConfig matches the training defaults.
func DefaultTrafficConfig() TrafficConfig {
	return TrafficConfig{
		GreenDurations: []int{10, 20, 40},
		MaxSteps:       1800,
		WarmupSteps:    60,
		AmberSeconds:   4,
	}
}

// TrafficEnv drives the external micro-simulator through phase decisions
// and scores each decision by the congestion it leaves behind.
type TrafficEnv struct {
	simulator sim.TrafficSim
	table     action.Table
	cfg       TrafficConfig

	phaseIndex map[string]int
	amberIndex map[[2]string]int

	state      TrafficState
	phaseLabel string // last committed green phase, feeds isNSGreen
	steps      int
	started    bool
}

// NewTrafficEnv validates the config and builds the environment. The
// action table is derived from the configured durations: NS entries
// ascending, then EW entries ascending.
func NewTrafficEnv(simulator sim.TrafficSim, cfg TrafficConfig) (*TrafficEnv, error) {
	if simulator == nil {
		return nil, fmt.Errorf("traffic env requires a simulator")
	}
	if cfg.MaxSteps <= 0 {
		return nil, fmt.Errorf("max steps must be positive, got %d", cfg.MaxSteps)
	}
	if cfg.WarmupSteps < 0 {
		return nil, fmt.Errorf("warmup steps must be non-negative, got %d", cfg.WarmupSteps)
	}
	if cfg.AmberSeconds <= 0 {
		return nil, fmt.Errorf("amber duration must be positive, got %d", cfg.AmberSeconds)
	}

	table, err := action.TrafficTable(cfg.GreenDurations...)
	if err != nil {
		return nil, err
	}

	return &TrafficEnv{
		simulator: simulator,
		table:     table,
		cfg:       cfg,
		phaseIndex: map[string]int{
			model.PhaseNS: sim.PhaseNSGreen,
			model.PhaseEW: sim.PhaseEWGreen,
		},
		amberIndex: map[[2]string]int{
			{model.PhaseNS, model.PhaseEW}: sim.PhaseAmberNStoEW,
			{model.PhaseEW, model.PhaseNS}: sim.PhaseAmberEWtoNS,
		},
		state: StateNSGreen,
	}, nil
}

func (e *TrafficEnv) Controller() model.Controller { return model.ControllerTraffic }

// Table exposes the environment's action catalog.
func (e *TrafficEnv) Table() action.Table { return e.table }

// ActionMapping returns the serialisable action table for persistence.
func (e *TrafficEnv) ActionMapping() []model.ActionSpec { return e.table.Specs() }

// State reports the automaton state, mostly for tests and traces.
func (e *TrafficEnv) State() TrafficState { return e.state }

// Steps reports elapsed simulated seconds in the current episode.
func (e *TrafficEnv) Steps() int { return e.steps }

// Reset starts a fresh episode: restart the simulator, hold NS green at
// the shortest configured duration, burn the warmup steps, observe.
func (e *TrafficEnv) Reset(ctx context.Context) ([]float64, error) {
	if err := e.simulator.Reset(ctx); err != nil {
		return nil, err
	}
	e.steps = 0
	e.state = StateNSGreen
	e.phaseLabel = model.PhaseNS
	e.started = true

	shortest, _ := e.table.Spec(0)
	if err := e.simulator.SetPhase(ctx, e.phaseIndex[model.PhaseNS]); err != nil {
		return nil, err
	}
	if err := e.simulator.SetPhaseDuration(ctx, e.phaseIndex[model.PhaseNS], shortest.Duration); err != nil {
		return nil, err
	}

	for i := 0; i < e.cfg.WarmupSteps; i++ {
		if err := e.simulator.AdvanceOneStep(ctx); err != nil {
			return nil, err
		}
		e.steps++
	}
	return e.observe(ctx)
}

// Step applies one action. A phase change first traverses the amber state
// for the fixed amber duration, then the requested green runs for its
// configured duration; every simulated second counts against MaxSteps.
// Hitting MaxSteps mid-sequence stops advancing and terminates the
// episode immediately, without rollback. The reward is computed from the
// simulator's live state after the sequence.
func (e *TrafficEnv) Step(ctx context.Context, actionIdx int) (StepResult, error) {
	if !e.started {
		return StepResult{}, &InvalidStateError{Op: "traffic step", Reason: "episode not started; call Reset first"}
	}
	if e.state == StateTerminated {
		return StepResult{}, &InvalidStateError{Op: "traffic step", Reason: "episode already terminated; call Reset first"}
	}
	if !e.table.Contains(actionIdx) {
		return StepResult{}, &InvalidStateError{
			Op:     "traffic step",
			Reason: fmt.Sprintf("action index %d outside 0..%d", actionIdx, e.table.Size()-1),
		}
	}

	spec, err := e.table.Spec(actionIdx)
	if err != nil {
		return StepResult{}, err
	}

	if err := e.applyAction(ctx, spec); err != nil {
		return StepResult{}, err
	}

	obs, err := e.observe(ctx)
	if err != nil {
		return StepResult{}, err
	}

	queueNS, queueEW, waitNS, waitEW := obs[0], obs[1], obs[2], obs[3]
	reward := -1.0 * (queueNS + queueEW + 0.01*(waitNS+waitEW))

	terminated := e.steps >= e.cfg.MaxSteps
	if terminated {
		e.state = StateTerminated
	}

	return StepResult{
		Observation: obs,
		Reward:      reward,
		Terminated:  terminated,
		Trace: Trace{
			"steps":  e.steps,
			"phase":  e.phaseLabel,
			"state":  string(e.state),
			"action": spec,
		},
	}, nil
}

func (e *TrafficEnv) applyAction(ctx context.Context, spec model.ActionSpec) error {
	if spec.Phase != e.phaseLabel {
		amberID := e.amberIndex[[2]string{e.phaseLabel, spec.Phase}]
		e.state = amberStateFor(e.phaseLabel)
		if err := e.simulator.SetPhase(ctx, amberID); err != nil {
			return err
		}
		if err := e.simulator.SetPhaseDuration(ctx, amberID, e.cfg.AmberSeconds); err != nil {
			return err
		}
		for i := 0; i < e.cfg.AmberSeconds; i++ {
			if err := e.simulator.AdvanceOneStep(ctx); err != nil {
				return err
			}
			e.steps++
			if e.steps >= e.cfg.MaxSteps {
				// Episode budget exhausted mid-amber: stop here. The
				// requested green never starts, so the committed phase
				// label stays as it was.
				return nil
			}
		}
	}

	e.state = greenStateFor(spec.Phase)
	if err := e.simulator.SetPhase(ctx, e.phaseIndex[spec.Phase]); err != nil {
		return err
	}
	if err := e.simulator.SetPhaseDuration(ctx, e.phaseIndex[spec.Phase], spec.Duration); err != nil {
		return err
	}
	for i := 0; i < spec.Duration; i++ {
		if err := e.simulator.AdvanceOneStep(ctx); err != nil {
			return err
		}
		e.steps++
		if e.steps >= e.cfg.MaxSteps {
			break
		}
	}

	e.phaseLabel = spec.Phase
	return nil
}

func amberStateFor(fromPhase string) TrafficState {
	if fromPhase == model.PhaseNS {
		return StateAmberNSEW
	}
	return StateAmberEWNS
}

func greenStateFor(phase string) TrafficState {
	if phase == model.PhaseNS {
		return StateNSGreen
	}
	return StateEWGreen
}

func (e *TrafficEnv) observe(ctx context.Context) ([]float64, error) {
	queueNS, waitNS, err := e.laneStats(ctx, sim.NSLanes)
	if err != nil {
		return nil, err
	}
	queueEW, waitEW, err := e.laneStats(ctx, sim.EWLanes)
	if err != nil {
		return nil, err
	}

	progress := float64(e.steps) / float64(e.cfg.MaxSteps)
	if progress > 1 {
		progress = 1
	}
	isNSGreen := 0.0
	if e.phaseLabel == model.PhaseNS {
		isNSGreen = 1.0
	}
	return []float64{queueNS, queueEW, waitNS, waitEW, isNSGreen, progress}, nil
}

func (e *TrafficEnv) laneStats(ctx context.Context, lanes []string) (queue, waiting float64, err error) {
	for _, lane := range lanes {
		halting, err := e.simulator.HaltingCount(ctx, lane)
		if err != nil {
			return 0, 0, err
		}
		wait, err := e.simulator.WaitingTime(ctx, lane)
		if err != nil {
			return 0, 0, err
		}
		queue += float64(halting)
		waiting += wait
	}
	return queue, waiting, nil
}
