package main

import (
	"context"
	"testing"

	"janus/internal/action"
	"janus/internal/codec"
	"janus/internal/model"
)

func trafficMeta() model.PolicyMetadata {
	return model.PolicyMetadata{
		Controller:    model.ControllerTraffic,
		ActionMapping: action.DefaultTrafficTable().Specs(),
	}
}

func TestStubTrafficPolicyFavorsHeavierApproach(t *testing.T) {
	p, err := openTrafficPolicy(trafficMeta())
	if err != nil {
		t.Fatalf("open traffic policy: %v", err)
	}

	cases := []struct {
		name    string
		queueNS float64
		queueEW float64
		wantIdx int
	}{
		{"light ns", 3, 1, 0},   // NS, shortest
		{"medium ns", 15, 2, 1}, // NS, middle
		{"heavy ns", 30, 2, 2},  // NS, longest
		{"light ew", 1, 4, 3},   // EW, shortest
		{"heavy ew", 2, 40, 5},  // EW, longest
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			features := codec.EncodeTraffic(model.TrafficObservation{QueueNS: tc.queueNS, QueueEW: tc.queueEW})
			decision, err := p.Predict(context.Background(), features)
			if err != nil {
				t.Fatalf("predict: %v", err)
			}
			if decision.ActionIndex != tc.wantIdx {
				t.Fatalf("action index: got %d, want %d", decision.ActionIndex, tc.wantIdx)
			}
			if decision.ValueEstimate == nil {
				t.Fatal("expected a value estimate")
			}
		})
	}
}

func TestStubTrafficPolicyRejectsBadShape(t *testing.T) {
	p, err := openTrafficPolicy(trafficMeta())
	if err != nil {
		t.Fatalf("open traffic policy: %v", err)
	}
	if _, err := p.Predict(context.Background(), []float64{1, 2}); err == nil {
		t.Fatal("expected error for short feature vector")
	}
}

func TestStubRailPolicyClosesInsideLeadWindow(t *testing.T) {
	meta := model.PolicyMetadata{
		Controller:    model.ControllerRail,
		ActionMapping: action.DefaultRailTable().Specs(),
		Env:           &model.RailEnvMeta{MaxEtaMs: 60000, CloseLeadMs: 20000},
	}
	p, err := openRailPolicy(meta)
	if err != nil {
		t.Fatalf("open rail policy: %v", err)
	}

	far := codec.EncodeRail(model.RailObservation{EtaMs: 45000}, meta.Env)
	decision, err := p.Predict(context.Background(), far)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if decision.ActionIndex != 0 {
		t.Fatalf("far train should keep the barrier open, got index %d", decision.ActionIndex)
	}

	near := codec.EncodeRail(model.RailObservation{EtaMs: 12000}, meta.Env)
	decision, err = p.Predict(context.Background(), near)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if decision.ActionIndex != 1 {
		t.Fatalf("near train should close the barrier, got index %d", decision.ActionIndex)
	}
}

func TestStubRailPolicyDefaultsWithoutEnvMeta(t *testing.T) {
	p, err := openRailPolicy(model.PolicyMetadata{
		Controller:    model.ControllerRail,
		ActionMapping: action.DefaultRailTable().Specs(),
	})
	if err != nil {
		t.Fatalf("open rail policy: %v", err)
	}

	// 15000 ms is inside the default 20000 ms lead window.
	features := codec.EncodeRail(model.RailObservation{EtaMs: 15000}, nil)
	decision, err := p.Predict(context.Background(), features)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if decision.ActionIndex != 1 {
		t.Fatalf("expected close inside the default lead window, got %d", decision.ActionIndex)
	}
}
