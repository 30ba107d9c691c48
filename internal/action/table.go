// Package action holds the index-addressed action catalogs shared between
// training and serving, and the resolvers that turn a policy's action
// index into a domain command.
package action

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"janus/internal/model"
)

// Table is an ordered, index-addressed catalog of legal actions for one
// controller. Immutable after construction; the index set is exactly
// {0..Size()-1}.
type Table struct {
	specs []model.ActionSpec
}

// BuildTable validates specs for the given controller and constructs a
// Table. Every entry must carry a unique index and the indices must cover
// 0..n-1 with no gaps. Traffic payloads are checked here so a bad phase
// label or duration fails at load time, never at resolve time. Rail
// barrier labels are deliberately not restricted: unknown labels resolve
// fail-closed.
func BuildTable(controller model.Controller, specs []model.ActionSpec) (Table, error) {
	if len(specs) == 0 {
		return Table{}, &ConfigurationError{Reason: "action mapping is empty"}
	}

	ordered := make([]model.ActionSpec, len(specs))
	seen := make(map[int]bool, len(specs))
	for _, spec := range specs {
		if spec.Index < 0 || spec.Index >= len(specs) {
			return Table{}, &ConfigurationError{
				Reason: fmt.Sprintf("index %d outside 0..%d", spec.Index, len(specs)-1),
			}
		}
		if seen[spec.Index] {
			return Table{}, &ConfigurationError{
				Reason: fmt.Sprintf("duplicate index %d", spec.Index),
			}
		}
		if controller == model.ControllerTraffic {
			if err := validateTrafficSpec(spec); err != nil {
				return Table{}, err
			}
		}
		seen[spec.Index] = true
		ordered[spec.Index] = spec
	}
	return Table{specs: ordered}, nil
}

func validateTrafficSpec(spec model.ActionSpec) error {
	switch strings.ToUpper(spec.Phase) {
	case model.PhaseNS, model.PhaseEW:
	default:
		return &ConfigurationError{
			Reason: fmt.Sprintf("unknown traffic phase %q at index %d", spec.Phase, spec.Index),
		}
	}
	if spec.Duration <= 0 {
		return &ConfigurationError{
			Reason: fmt.Sprintf("non-positive duration %d at index %d", spec.Duration, spec.Index),
		}
	}
	return nil
}

// Size reports the number of actions in the table.
func (t Table) Size() int { return len(t.specs) }

// Spec returns the action at idx, or an UnknownActionError when idx has
// no entry.
func (t Table) Spec(idx int) (model.ActionSpec, error) {
	if idx < 0 || idx >= len(t.specs) {
		return model.ActionSpec{}, &UnknownActionError{Index: idx, Size: len(t.specs)}
	}
	return t.specs[idx], nil
}

// Contains reports whether idx addresses an action in the table.
func (t Table) Contains(idx int) bool {
	return idx >= 0 && idx < len(t.specs)
}

// Specs returns a copy of the ordered action specs, suitable for
// persisting as metadata.
func (t Table) Specs() []model.ActionSpec {
	return append([]model.ActionSpec(nil), t.specs...)
}

// TrafficTable builds the traffic action catalog for the given green
// durations: NS entries in ascending duration order first, then EW. This
// index assignment order is the contract the trained policy encodes, so
// it must match the training environment bit-for-bit. Durations form a
// set: repeats collapse, order does not matter, but every configured
// value must be positive.
func TrafficTable(durations ...int) (Table, error) {
	if len(durations) == 0 {
		return Table{}, &ConfigurationError{Reason: "no green durations configured"}
	}
	for _, d := range durations {
		if d <= 0 {
			return Table{}, &ConfigurationError{
				Reason: fmt.Sprintf("non-positive green duration %d", d),
			}
		}
	}
	sorted := dedupeAscending(durations)

	specs := make([]model.ActionSpec, 0, 2*len(sorted))
	for _, phase := range []string{model.PhaseNS, model.PhaseEW} {
		for _, d := range sorted {
			specs = append(specs, model.ActionSpec{Index: len(specs), Phase: phase, Duration: d})
		}
	}
	return Table{specs: specs}, nil
}

func dedupeAscending(durations []int) []int {
	sorted := lo.Uniq(durations)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1] > sorted[j]; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}
	return sorted
}

// DefaultTrafficTable is the built-in serving fallback when no persisted
// metadata is available: durations 10/20/40 for both phases.
func DefaultTrafficTable() Table {
	table, err := TrafficTable(10, 20, 40)
	if err != nil {
		panic(err) // static inputs, cannot fail
	}
	return table
}

// DefaultRailTable is the built-in rail catalog: OPEN=0, CLOSE=1.
func DefaultRailTable() Table {
	return Table{specs: []model.ActionSpec{
		{Index: 0, BarrierState: model.BarrierOpen},
		{Index: 1, BarrierState: model.BarrierClose},
	}}
}
