package janus

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"janus/internal/action"
	"janus/internal/model"
	"janus/internal/policy"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func fixedPolicy(idx int, value *float64) policy.Func {
	return func(_ context.Context, _ []float64) (model.Decision, error) {
		return model.Decision{ActionIndex: idx, ValueEstimate: value}, nil
	}
}

func newTestClient(t *testing.T, traffic, rail PolicySource) *Client {
	t.Helper()
	client, err := New(context.Background(), Options{
		StoreKind: "memory",
		Logger:    testLogger(),
		Traffic:   traffic,
		Rail:      rail,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestDecideTrafficEndToEnd(t *testing.T) {
	traffic := PolicySource{
		Open: func(model.PolicyMetadata) (policy.Policy, error) {
			return fixedPolicy(4, model.Float64Ptr(2.0)), nil // EW, 20s
		},
	}
	client := newTestClient(t, traffic, PolicySource{
		Open: func(model.PolicyMetadata) (policy.Policy, error) { return fixedPolicy(0, nil), nil },
	})

	decision, err := client.DecideTraffic(context.Background(), model.TrafficObservation{QueueNS: 2, QueueEW: 9})
	if err != nil {
		t.Fatalf("decide traffic: %v", err)
	}
	want := model.TrafficPlan{NS: model.LightRed, EO: model.LightGreen, DurationSec: 20}
	if decision.Plan != want {
		t.Fatalf("plan: got %+v, want %+v", decision.Plan, want)
	}
	if decision.ActionIndex != 4 {
		t.Fatalf("action index: got %d", decision.ActionIndex)
	}
	if decision.Confidence <= 0.5 || decision.Confidence >= 1 {
		t.Fatalf("confidence for positive value estimate: got %v", decision.Confidence)
	}
}

func TestDecideRailFailClosedDefaults(t *testing.T) {
	client := newTestClient(t, PolicySource{
		Open: func(model.PolicyMetadata) (policy.Policy, error) { return fixedPolicy(0, nil), nil },
	}, PolicySource{
		Open: func(model.PolicyMetadata) (policy.Policy, error) {
			return fixedPolicy(1, nil), nil // CLOSE
		},
	})

	decision, err := client.DecideRail(context.Background(), model.RailObservation{EtaMs: 15000})
	if err != nil {
		t.Fatalf("decide rail: %v", err)
	}
	if decision.Command.State != model.BarrierStateClosed {
		t.Fatalf("command: got %q, want %q", decision.Command.State, model.BarrierStateClosed)
	}
	if decision.Confidence != 0.5 {
		t.Fatalf("confidence without value estimate: got %v, want 0.5", decision.Confidence)
	}
}

func TestDecideRejectsOutOfRangeIndex(t *testing.T) {
	client := newTestClient(t, PolicySource{
		Open: func(model.PolicyMetadata) (policy.Policy, error) { return fixedPolicy(17, nil), nil },
	}, PolicySource{
		Open: func(model.PolicyMetadata) (policy.Policy, error) { return fixedPolicy(0, nil), nil },
	})

	_, err := client.DecideTraffic(context.Background(), model.TrafficObservation{QueueNS: 1, QueueEW: 1})
	var unknown *action.UnknownActionError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownActionError, got %v", err)
	}
	if unknown.Index != 17 || unknown.Size != 6 {
		t.Fatalf("error context: %+v", unknown)
	}
}

func TestDecideSurfacesPolicyUnavailable(t *testing.T) {
	client := newTestClient(t, PolicySource{
		Open: func(model.PolicyMetadata) (policy.Policy, error) {
			return nil, errors.New("artifact missing")
		},
	}, PolicySource{
		Open: func(model.PolicyMetadata) (policy.Policy, error) { return fixedPolicy(0, nil), nil },
	})

	_, err := client.DecideTraffic(context.Background(), model.TrafficObservation{})
	var unavailable *policy.UnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected UnavailableError, got %v", err)
	}
}

func TestPredictChecksObservationShape(t *testing.T) {
	// Metadata declaring a 4-element policy must reject the 6-element
	// traffic vector before the policy ever runs.
	traffic := PolicySource{
		Defaults: action.DefaultTrafficTable().Specs(),
		Open: func(meta model.PolicyMetadata) (policy.Policy, error) {
			return fixedPolicy(0, nil), nil
		},
	}
	client := newTestClient(t, traffic, PolicySource{
		Open: func(model.PolicyMetadata) (policy.Policy, error) { return fixedPolicy(0, nil), nil },
	})

	// Force a mismatching expectation through the cached bundle's metadata.
	bundle, err := client.cache.Bundle(context.Background(), model.ControllerTraffic)
	if err != nil {
		t.Fatalf("bundle: %v", err)
	}
	bundle.Meta.ObservationLen = 4

	_, err = client.DecideTraffic(context.Background(), model.TrafficObservation{})
	var unavailable *policy.UnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected UnavailableError for shape mismatch, got %v", err)
	}
}

func TestRunRailEpisodesPersistsAndLists(t *testing.T) {
	client := newTestClient(t, PolicySource{
		Open: func(model.PolicyMetadata) (policy.Policy, error) { return fixedPolicy(0, nil), nil },
	}, PolicySource{
		Open: func(model.PolicyMetadata) (policy.Policy, error) { return fixedPolicy(0, nil), nil },
	})

	summary, err := client.RunRailEpisodes(context.Background(), RailRunRequest{
		Episodes: 3,
		Seed:     21,
		Scripted: true,
	})
	if err != nil {
		t.Fatalf("run rail episodes: %v", err)
	}

	runs, err := client.Runs(context.Background(), 10)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != summary.RunID {
		t.Fatalf("expected the one run, got %+v", runs)
	}

	episodes, err := client.Episodes(context.Background(), summary.RunID)
	if err != nil {
		t.Fatalf("episodes: %v", err)
	}
	if len(episodes) != 3 {
		t.Fatalf("episodes: got %d, want 3", len(episodes))
	}

	if _, err := client.Episodes(context.Background(), "unknown"); err == nil {
		t.Fatal("expected error for unknown run id")
	}
}

func TestRunTrafficEpisodesWithOverrides(t *testing.T) {
	client := newTestClient(t, PolicySource{
		Open: func(model.PolicyMetadata) (policy.Policy, error) { return fixedPolicy(0, nil), nil },
	}, PolicySource{
		Open: func(model.PolicyMetadata) (policy.Policy, error) { return fixedPolicy(0, nil), nil },
	})

	summary, err := client.RunTrafficEpisodes(context.Background(), TrafficRunRequest{
		Episodes:    1,
		Seed:        8,
		Durations:   []int{5, 10},
		MaxSteps:    120,
		WarmupSteps: 5,
	})
	if err != nil {
		t.Fatalf("run traffic episodes: %v", err)
	}
	if summary.Controller != model.ControllerTraffic || summary.Episodes != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestTablesExposedThroughClient(t *testing.T) {
	client := newTestClient(t, PolicySource{
		Open: func(model.PolicyMetadata) (policy.Policy, error) { return fixedPolicy(0, nil), nil },
	}, PolicySource{
		Open: func(model.PolicyMetadata) (policy.Policy, error) { return fixedPolicy(0, nil), nil },
	})

	trafficTable, err := client.TrafficTable(context.Background())
	if err != nil {
		t.Fatalf("traffic table: %v", err)
	}
	if trafficTable.Size() != 6 {
		t.Fatalf("traffic table size: got %d, want 6", trafficTable.Size())
	}
	railTable, err := client.RailTable(context.Background())
	if err != nil {
		t.Fatalf("rail table: %v", err)
	}
	if railTable.Size() != 2 {
		t.Fatalf("rail table size: got %d, want 2", railTable.Size())
	}
}

func TestFreeFunctionSurface(t *testing.T) {
	features := EncodeTraffic(model.TrafficObservation{QueueNS: 3, QueueEW: 1})
	if len(features) != 6 {
		t.Fatalf("traffic vector length: got %d, want 6", len(features))
	}

	railFeatures := EncodeRail(model.RailObservation{EtaMs: 30000}, &model.RailEnvMeta{MaxEtaMs: 60000})
	if railFeatures[0] != 0.5 {
		t.Fatalf("eta normalization: got %v, want 0.5", railFeatures[0])
	}

	if EstimateConfidence(nil) != 0.5 {
		t.Fatal("nil value estimate must give the neutral confidence")
	}

	plan, err := ResolveTrafficAction(action.DefaultTrafficTable(), 0)
	if err != nil {
		t.Fatalf("resolve traffic: %v", err)
	}
	if plan.NS != model.LightGreen || plan.DurationSec != 10 {
		t.Fatalf("unexpected plan: %+v", plan)
	}

	command, err := ResolveRailAction(action.DefaultRailTable(), 0)
	if err != nil {
		t.Fatalf("resolve rail: %v", err)
	}
	if command.State != model.BarrierStateOpen {
		t.Fatalf("unexpected command: %+v", command)
	}
}
