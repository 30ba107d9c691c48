package main

import (
	"context"
	"fmt"
	"math"
	"strings"

	"janus/internal/codec"
	"janus/internal/model"
	"janus/internal/policy"
)

// Heuristic stand-ins for the opaque trained policies so janusctl works
// without the external policy artifact. They honour the same seam
// contract: feature vector in, action index and value estimate out.

func openTrafficPolicy(meta model.PolicyMetadata) (policy.Policy, error) {
	mapping := meta.ActionMapping
	return policy.Func(func(_ context.Context, features []float64) (model.Decision, error) {
		if len(features) != codec.TrafficVectorLen {
			return model.Decision{}, fmt.Errorf("expected %d features, got %d", codec.TrafficVectorLen, len(features))
		}
		queueNS, queueEW := features[0], features[1]

		phase := model.PhaseEW
		load := queueEW
		if queueNS >= queueEW {
			phase = model.PhaseNS
			load = queueNS
		}

		idx, err := pickTrafficIndex(mapping, phase, load)
		if err != nil {
			return model.Decision{}, err
		}
		margin := math.Abs(queueNS-queueEW) / math.Max(1, queueNS+queueEW)
		return model.Decision{ActionIndex: idx, ValueEstimate: model.Float64Ptr(margin)}, nil
	}), nil
}

// pickTrafficIndex chooses the longest duration for a heavy approach and
// the shortest for a light one.
func pickTrafficIndex(mapping []model.ActionSpec, phase string, load float64) (int, error) {
	var candidates []model.ActionSpec
	for _, spec := range mapping {
		if strings.EqualFold(spec.Phase, phase) {
			candidates = append(candidates, spec)
		}
	}
	if len(candidates) == 0 {
		return 0, fmt.Errorf("action mapping has no %s entries", phase)
	}

	pos := 0
	switch {
	case load >= 24:
		pos = len(candidates) - 1
	case load >= 12:
		pos = len(candidates) / 2
	}
	return candidates[pos].Index, nil
}

func openRailPolicy(meta model.PolicyMetadata) (policy.Policy, error) {
	maxEtaMs := codec.DefaultMaxEtaMs
	closeLeadMs := 20000
	if meta.Env != nil {
		if meta.Env.MaxEtaMs > 0 {
			maxEtaMs = meta.Env.MaxEtaMs
		}
		if meta.Env.CloseLeadMs > 0 {
			closeLeadMs = meta.Env.CloseLeadMs
		}
	}

	closeIdx, openIdx := 1, 0
	for _, spec := range meta.ActionMapping {
		if strings.ToUpper(spec.BarrierState) == model.BarrierOpen {
			openIdx = spec.Index
		} else {
			closeIdx = spec.Index
		}
	}

	return policy.Func(func(_ context.Context, features []float64) (model.Decision, error) {
		if len(features) != codec.RailVectorLen {
			return model.Decision{}, fmt.Errorf("expected %d features, got %d", codec.RailVectorLen, len(features))
		}
		etaMs := features[0] * float64(maxEtaMs)

		idx := openIdx
		if etaMs <= float64(closeLeadMs) {
			idx = closeIdx
		}
		margin := math.Abs(etaMs-float64(closeLeadMs)) / float64(maxEtaMs)
		return model.Decision{ActionIndex: idx, ValueEstimate: model.Float64Ptr(margin)}, nil
	}), nil
}
