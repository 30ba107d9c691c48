package action

import (
	"strings"

	"janus/internal/model"
)

// ResolveTraffic maps a policy action index to a traffic signal plan.
// Phase comparison is case-insensitive; unknown phases were already
// rejected when the table was built.
func ResolveTraffic(table Table, idx int) (model.TrafficPlan, error) {
	spec, err := table.Spec(idx)
	if err != nil {
		return model.TrafficPlan{}, err
	}

	if strings.EqualFold(spec.Phase, model.PhaseNS) {
		return model.TrafficPlan{NS: model.LightGreen, EO: model.LightRed, DurationSec: spec.Duration}, nil
	}
	return model.TrafficPlan{NS: model.LightRed, EO: model.LightGreen, DurationSec: spec.Duration}, nil
}

// ResolveRail maps a policy action index to a barrier command. Only the
// exact label OPEN (after uppercase normalization) opens the barrier;
// every other label, including an empty one, resolves to CLOSED. The
// barrier fails closed on ambiguous input.
func ResolveRail(table Table, idx int) (model.RailCommand, error) {
	spec, err := table.Spec(idx)
	if err != nil {
		return model.RailCommand{}, err
	}

	if strings.ToUpper(spec.BarrierState) == model.BarrierOpen {
		return model.RailCommand{State: model.BarrierStateOpen}, nil
	}
	return model.RailCommand{State: model.BarrierStateClosed}, nil
}
