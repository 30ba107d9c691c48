package sim

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
)

// Junction wiring shared with the default cross-junction layout: phase 0
// is NS green, phase 2 is EW green, phases 1 and 3 are the ambers between
// them.
const (
	PhaseNSGreen     = 0
	PhaseAmberEWtoNS = 1
	PhaseEWGreen     = 2
	PhaseAmberNStoEW = 3
)

// Default lane ids for the cross junction.
var (
	NSLanes = []string{"N2J0_0", "S2J0_0"}
	EWLanes = []string{"E2J0_0", "W2J0_0"}
)

// LaneProfile shapes synthetic demand on one lane: a base arrival rate
// per second, a sinusoidal drift amplitude and a noise level.
type LaneProfile struct {
	BaseRate  float64
	Amplitude float64
	Period    float64
	Noise     float64
}

// SyntheticConfig configures the in-process backend.
type SyntheticConfig struct {
	Seed          int64
	DischargeRate float64 // vehicles leaving a green lane per second
	Profiles      map[string]LaneProfile
}

// DefaultSyntheticConfig mirrors the demand profiles of the project's
// synthetic junction publishers: NS slightly heavier than EW.
func DefaultSyntheticConfig(seed int64) SyntheticConfig {
	profiles := make(map[string]LaneProfile, 4)
	for _, lane := range NSLanes {
		profiles[lane] = LaneProfile{BaseRate: 0.28, Amplitude: 0.08, Period: 60, Noise: 0.05}
	}
	for _, lane := range EWLanes {
		profiles[lane] = LaneProfile{BaseRate: 0.20, Amplitude: 0.06, Period: 50, Noise: 0.05}
	}
	return SyntheticConfig{Seed: seed, DischargeRate: 0.9, Profiles: profiles}
}

type laneState struct {
	profile LaneProfile
	queue   float64
	carry   float64
	waiting float64
}

// Synthetic is a deterministic arrival/discharge model of the cross
// junction. Not a microscopic simulator: it only has to produce plausible
// queue and waiting-time responses to phase decisions.
type Synthetic struct {
	cfg SyntheticConfig

	mu      sync.Mutex
	rng     *rand.Rand
	lanes   map[string]*laneState
	phaseID int
	tick    int
	running bool
}

// NewSynthetic builds a synthetic backend. The zero DischargeRate gets a
// sane default so partially filled configs keep working.
func NewSynthetic(cfg SyntheticConfig) *Synthetic {
	if cfg.DischargeRate <= 0 {
		cfg.DischargeRate = 0.9
	}
	if len(cfg.Profiles) == 0 {
		cfg.Profiles = DefaultSyntheticConfig(cfg.Seed).Profiles
	}
	return &Synthetic{cfg: cfg}
}

func (s *Synthetic) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rng = rand.New(rand.NewSource(s.cfg.Seed))
	s.lanes = make(map[string]*laneState, len(s.cfg.Profiles))
	for lane, profile := range s.cfg.Profiles {
		s.lanes[lane] = &laneState{profile: profile}
	}
	s.phaseID = PhaseNSGreen
	s.tick = 0
	s.running = true
	return nil
}

func (s *Synthetic) AdvanceOneStep(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return fmt.Errorf("synthetic sim is not running; call Reset first")
	}

	s.tick++
	for lane, state := range s.lanes {
		p := state.profile
		drift := p.Amplitude * math.Sin(2*math.Pi*float64(s.tick)/math.Max(1, p.Period))
		arrivals := p.BaseRate + drift + s.rng.NormFloat64()*p.Noise
		state.carry += math.Max(0, arrivals)
		for state.carry >= 1 {
			state.carry--
			state.queue++
		}

		if s.laneHasGreen(lane) {
			departed := math.Min(state.queue, s.cfg.DischargeRate)
			state.queue -= departed
			state.waiting = math.Max(0, state.waiting-departed*2)
		} else {
			state.waiting += state.queue
		}
	}
	return nil
}

func (s *Synthetic) laneHasGreen(lane string) bool {
	switch s.phaseID {
	case PhaseNSGreen:
		return contains(NSLanes, lane)
	case PhaseEWGreen:
		return contains(EWLanes, lane)
	default:
		return false // ambers stop both directions
	}
}

func contains(lanes []string, lane string) bool {
	for _, l := range lanes {
		if l == lane {
			return true
		}
	}
	return false
}

func (s *Synthetic) SetPhase(ctx context.Context, phaseID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return fmt.Errorf("synthetic sim is not running; call Reset first")
	}
	if phaseID < PhaseNSGreen || phaseID > PhaseAmberNStoEW {
		return fmt.Errorf("unknown phase id %d", phaseID)
	}
	s.phaseID = phaseID
	return nil
}

func (s *Synthetic) SetPhaseDuration(ctx context.Context, phaseID int, seconds int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// The environment drives time explicitly through AdvanceOneStep, so
	// the synthetic backend has no timer to arm.
	if seconds <= 0 {
		return fmt.Errorf("phase duration must be positive, got %d", seconds)
	}
	return nil
}

func (s *Synthetic) HaltingCount(ctx context.Context, laneID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.lanes[laneID]
	if !ok {
		return 0, fmt.Errorf("unknown lane %q", laneID)
	}
	return int(state.queue), nil
}

func (s *Synthetic) WaitingTime(ctx context.Context, laneID string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.lanes[laneID]
	if !ok {
		return 0, fmt.Errorf("unknown lane %q", laneID)
	}
	return state.waiting, nil
}

func (s *Synthetic) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	return nil
}
