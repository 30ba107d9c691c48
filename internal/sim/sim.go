// Package sim defines the seam to the external traffic micro-simulator
// consumed by the training-time environment, plus an in-process synthetic
// backend good enough for unit tests and demo episodes.
package sim

import "context"

// TrafficSim is the slice of the external micro-simulator surface the
// traffic environment drives. Implementations may cross a process
// boundary; every call can fail and takes a context.
type TrafficSim interface {
	// Reset restarts the simulation from its initial state.
	Reset(ctx context.Context) error
	// AdvanceOneStep advances simulated time by one second.
	AdvanceOneStep(ctx context.Context) error
	// SetPhase switches the junction's signal program to the phase id.
	SetPhase(ctx context.Context, phaseID int) error
	// SetPhaseDuration sets how long the current phase holds, in seconds.
	SetPhaseDuration(ctx context.Context, phaseID int, seconds int) error
	// HaltingCount reports the number of standing vehicles on a lane.
	HaltingCount(ctx context.Context, laneID string) (int, error)
	// WaitingTime reports the accumulated waiting time on a lane.
	WaitingTime(ctx context.Context, laneID string) (float64, error)
	Close() error
}
