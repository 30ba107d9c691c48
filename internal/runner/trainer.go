package runner

import (
	"math/rand"

	"janus/internal/env"
)

// Trainer is the seam to the policy-optimizer side of the training loop.
// The real optimizer lives outside this repository; the implementations
// here are demo baselines for exercising environments end to end.
type Trainer interface {
	Name() string
	SelectAction(observation []float64) int
	Observe(observation []float64, action int, result env.StepResult)
}

// RandomTrainer samples uniformly from the action space. Useful as a
// floor baseline and for smoke-testing environments.
type RandomTrainer struct {
	rng     *rand.Rand
	actions int
}

func NewRandomTrainer(seed int64, actions int) *RandomTrainer {
	return &RandomTrainer{rng: rand.New(rand.NewSource(seed)), actions: actions}
}

func (t *RandomTrainer) Name() string { return "random" }

func (t *RandomTrainer) SelectAction(_ []float64) int {
	return t.rng.Intn(t.actions)
}

func (t *RandomTrainer) Observe(_ []float64, _ int, _ env.StepResult) {}

// ScriptedRailTrainer closes the barrier as soon as the train reaches
// the lead window and keeps it open otherwise. It is the hand-written
// optimum for the rail task and doubles as a reward-shaping check.
type ScriptedRailTrainer struct {
	maxEtaMs    int
	closeLeadMs int
}

func NewScriptedRailTrainer(maxEtaMs, closeLeadMs int) *ScriptedRailTrainer {
	return &ScriptedRailTrainer{maxEtaMs: maxEtaMs, closeLeadMs: closeLeadMs}
}

func (t *ScriptedRailTrainer) Name() string { return "scripted-rail" }

func (t *ScriptedRailTrainer) SelectAction(observation []float64) int {
	if len(observation) < 1 {
		return env.RailActionClose
	}
	etaMs := observation[0] * float64(t.maxEtaMs)
	// Close one step early so the barrier is already down when the train
	// enters the lead window.
	if etaMs <= float64(t.closeLeadMs)+float64(t.maxEtaMs)*0.05 {
		return env.RailActionClose
	}
	return env.RailActionOpen
}

func (t *ScriptedRailTrainer) Observe(_ []float64, _ int, _ env.StepResult) {}
