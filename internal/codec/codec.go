// Package codec converts domain observations into the fixed-length
// feature vectors the policy consumes, and turns value estimates into
// advisory confidence scores.
package codec

import (
	"math"

	"janus/internal/model"
)

// Vector lengths per controller. The policy's input shape is part of the
// training/serving contract.
const (
	TrafficVectorLen = 6
	RailVectorLen    = 2
)

// DefaultMaxEtaMs is assumed when rail env metadata is absent or carries
// a non-positive max eta.
const DefaultMaxEtaMs = 60000

// EncodeTraffic maps a traffic observation onto the 6-element vector
// [queueNS, queueEW, waitNS, waitEW, isNSGreen, progress]. Optional
// fields default to wait = 2x queue, isNSGreen = 1 and progress = 0.
// Pure and total: range validation belongs to the serving boundary.
func EncodeTraffic(obs model.TrafficObservation) []float64 {
	waitNS := obs.QueueNS * 2.0
	if obs.WaitNS != nil {
		waitNS = *obs.WaitNS
	}
	waitEW := obs.QueueEW * 2.0
	if obs.WaitEW != nil {
		waitEW = *obs.WaitEW
	}
	isNSGreen := 1.0
	if obs.IsNSGreen != nil {
		isNSGreen = *obs.IsNSGreen
	}
	progress := 0.0
	if obs.Progress != nil {
		progress = *obs.Progress
	}
	return []float64{obs.QueueNS, obs.QueueEW, waitNS, waitEW, isNSGreen, progress}
}

// EncodeRail maps a rail observation onto [etaNorm, barrierClosed].
// MaxEtaMs comes from the persisted env metadata; absent or non-positive
// values fall back to DefaultMaxEtaMs.
func EncodeRail(obs model.RailObservation, env *model.RailEnvMeta) []float64 {
	maxEta := float64(DefaultMaxEtaMs)
	if env != nil && env.MaxEtaMs > 0 {
		maxEta = float64(env.MaxEtaMs)
	}

	etaNorm := 0.0
	if maxEta > 0 {
		etaNorm = obs.EtaMs / maxEta
	}
	return []float64{etaNorm, obs.BarrierClosed}
}

// Confidence maps a critic value estimate to (0,1) via the logistic
// transform. A policy that reports no value gets the neutral midpoint:
// confidence is advisory and never blocks a decision.
func Confidence(value *float64) float64 {
	if value == nil {
		return 0.5
	}
	return 1.0 / (1.0 + math.Exp(-*value))
}
