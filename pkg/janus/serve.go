package janus

import (
	"janus/internal/action"
	"janus/internal/codec"
	"janus/internal/metadata"
	"janus/internal/model"
)

// Free-function surface for callers that compose the pipeline themselves
// instead of going through a Client.

// EncodeTraffic maps a traffic observation to its 6-element feature
// vector, applying the documented defaults for optional fields.
func EncodeTraffic(obs model.TrafficObservation) []float64 {
	return codec.EncodeTraffic(obs)
}

// EncodeRail maps a rail observation to its 2-element feature vector
// using the environment metadata's max eta.
func EncodeRail(obs model.RailObservation, env *model.RailEnvMeta) []float64 {
	return codec.EncodeRail(obs, env)
}

// EstimateConfidence maps a value estimate to (0,1); nil means the
// neutral 0.5.
func EstimateConfidence(value *float64) float64 {
	return codec.Confidence(value)
}

// ResolveTrafficAction maps an action index to a signal plan.
func ResolveTrafficAction(table action.Table, idx int) (model.TrafficPlan, error) {
	return action.ResolveTraffic(table, idx)
}

// ResolveRailAction maps an action index to a barrier command,
// fail-closed on unrecognized labels.
func ResolveRailAction(table action.Table, idx int) (model.RailCommand, error) {
	return action.ResolveRail(table, idx)
}

// LoadTable loads an action table from persisted metadata, falling back
// to the supplied defaults when the file is absent.
func LoadTable(path string, controller model.Controller, defaults []model.ActionSpec) (model.PolicyMetadata, action.Table, error) {
	return metadata.Load(path, controller, defaults)
}
