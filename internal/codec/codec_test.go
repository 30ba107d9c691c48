package codec

import (
	"math"
	"testing"

	"janus/internal/model"
)

func TestEncodeTrafficDefaults(t *testing.T) {
	got := EncodeTraffic(model.TrafficObservation{QueueNS: 12, QueueEW: 7})
	want := []float64{12, 7, 24, 14, 1, 0}
	if len(got) != TrafficVectorLen {
		t.Fatalf("expected %d features, got %d", TrafficVectorLen, len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("feature %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestEncodeTrafficExplicitFields(t *testing.T) {
	obs := model.TrafficObservation{
		QueueNS:   3,
		QueueEW:   4,
		WaitNS:    model.Float64Ptr(10),
		WaitEW:    model.Float64Ptr(0),
		IsNSGreen: model.Float64Ptr(0),
		Progress:  model.Float64Ptr(0.75),
	}
	got := EncodeTraffic(obs)
	want := []float64{3, 4, 10, 0, 0, 0.75}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("feature %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestEncodeTrafficZeroWaitIsNotDefaulted(t *testing.T) {
	// An explicit zero wait must survive; only a missing wait defaults
	// to twice the queue.
	got := EncodeTraffic(model.TrafficObservation{QueueNS: 5, WaitNS: model.Float64Ptr(0)})
	if got[2] != 0 {
		t.Fatalf("explicit zero wait was overwritten: %v", got[2])
	}
}

func TestEncodeRail(t *testing.T) {
	cases := []struct {
		name    string
		obs     model.RailObservation
		env     *model.RailEnvMeta
		wantEta float64
	}{
		{"default max eta", model.RailObservation{EtaMs: 30000}, nil, 0.5},
		{"env max eta", model.RailObservation{EtaMs: 20000}, &model.RailEnvMeta{MaxEtaMs: 40000}, 0.5},
		{"non-positive max eta falls back", model.RailObservation{EtaMs: 30000}, &model.RailEnvMeta{MaxEtaMs: -1}, 0.5},
		{"zero eta", model.RailObservation{EtaMs: 0}, nil, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := EncodeRail(tc.obs, tc.env)
			if len(got) != RailVectorLen {
				t.Fatalf("expected %d features, got %d", RailVectorLen, len(got))
			}
			if got[0] != tc.wantEta {
				t.Fatalf("eta norm: got %v, want %v", got[0], tc.wantEta)
			}
			if got[1] != tc.obs.BarrierClosed {
				t.Fatalf("barrier: got %v, want %v", got[1], tc.obs.BarrierClosed)
			}
		})
	}
}

func TestEncodeRailBarrierPassthrough(t *testing.T) {
	got := EncodeRail(model.RailObservation{EtaMs: 1000, BarrierClosed: 1}, nil)
	if got[1] != 1 {
		t.Fatalf("barrier flag lost: %v", got)
	}
}

func TestConfidenceBoundsAndMidpoint(t *testing.T) {
	if got := Confidence(nil); got != 0.5 {
		t.Fatalf("nil value: got %v, want 0.5", got)
	}
	if got := Confidence(model.Float64Ptr(0)); got != 0.5 {
		t.Fatalf("zero value: got %v, want 0.5", got)
	}

	for _, v := range []float64{-100, -5, -0.1, 0.1, 5, 100} {
		got := Confidence(model.Float64Ptr(v))
		if got <= 0 || got >= 1 {
			t.Fatalf("confidence(%v) = %v outside (0,1)", v, got)
		}
	}
}

func TestConfidenceMonotonic(t *testing.T) {
	values := []float64{-10, -2, -0.5, 0, 0.5, 2, 10}
	prev := math.Inf(-1)
	for _, v := range values {
		got := Confidence(model.Float64Ptr(v))
		if got <= prev {
			t.Fatalf("confidence not strictly increasing at %v: %v <= %v", v, got, prev)
		}
		prev = got
	}
}

func TestConfidenceLogisticValue(t *testing.T) {
	got := Confidence(model.Float64Ptr(1))
	want := 1.0 / (1.0 + math.Exp(-1))
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("got %v, want %v", got, want)
	}
}
