package sim

import (
	"context"
	"testing"
)

func TestSyntheticRequiresReset(t *testing.T) {
	s := NewSynthetic(DefaultSyntheticConfig(1))
	if err := s.AdvanceOneStep(context.Background()); err == nil {
		t.Fatal("expected error before reset")
	}
	if err := s.SetPhase(context.Background(), PhaseNSGreen); err == nil {
		t.Fatal("expected error before reset")
	}
}

func TestSyntheticDeterministicUnderSeed(t *testing.T) {
	run := func() (float64, float64) {
		s := NewSynthetic(DefaultSyntheticConfig(42))
		ctx := context.Background()
		if err := s.Reset(ctx); err != nil {
			t.Fatalf("reset: %v", err)
		}
		for i := 0; i < 120; i++ {
			if err := s.AdvanceOneStep(ctx); err != nil {
				t.Fatalf("advance: %v", err)
			}
		}
		queue, err := s.HaltingCount(ctx, "E2J0_0")
		if err != nil {
			t.Fatalf("halting count: %v", err)
		}
		wait, err := s.WaitingTime(ctx, "E2J0_0")
		if err != nil {
			t.Fatalf("waiting time: %v", err)
		}
		return float64(queue), wait
	}

	q1, w1 := run()
	q2, w2 := run()
	if q1 != q2 || w1 != w2 {
		t.Fatalf("same seed must reproduce the same trajectory: (%v,%v) vs (%v,%v)", q1, w1, q2, w2)
	}
}

func TestSyntheticGreenDischargesQueue(t *testing.T) {
	s := NewSynthetic(DefaultSyntheticConfig(7))
	ctx := context.Background()
	if err := s.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}

	// Starve EW for a while so a queue builds up.
	if err := s.SetPhase(ctx, PhaseNSGreen); err != nil {
		t.Fatalf("set phase: %v", err)
	}
	for i := 0; i < 200; i++ {
		if err := s.AdvanceOneStep(ctx); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}
	before, err := s.HaltingCount(ctx, "E2J0_0")
	if err != nil {
		t.Fatalf("halting count: %v", err)
	}
	if before == 0 {
		t.Fatal("expected a queue on a starved lane")
	}

	// Serve EW long enough to drain.
	if err := s.SetPhase(ctx, PhaseEWGreen); err != nil {
		t.Fatalf("set phase: %v", err)
	}
	for i := 0; i < 400; i++ {
		if err := s.AdvanceOneStep(ctx); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}
	after, err := s.HaltingCount(ctx, "E2J0_0")
	if err != nil {
		t.Fatalf("halting count: %v", err)
	}
	if after >= before {
		t.Fatalf("green should drain the queue: before %d, after %d", before, after)
	}
}

func TestSyntheticAmberStopsBothDirections(t *testing.T) {
	s := NewSynthetic(DefaultSyntheticConfig(3))
	ctx := context.Background()
	if err := s.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if err := s.SetPhase(ctx, PhaseAmberNStoEW); err != nil {
		t.Fatalf("set phase: %v", err)
	}
	for i := 0; i < 300; i++ {
		if err := s.AdvanceOneStep(ctx); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}
	for _, lane := range append(append([]string{}, NSLanes...), EWLanes...) {
		queue, err := s.HaltingCount(ctx, lane)
		if err != nil {
			t.Fatalf("halting count %s: %v", lane, err)
		}
		if queue == 0 {
			t.Fatalf("amber should let queues grow on %s", lane)
		}
	}
}

func TestSyntheticRejectsUnknownInputs(t *testing.T) {
	s := NewSynthetic(DefaultSyntheticConfig(1))
	ctx := context.Background()
	if err := s.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if err := s.SetPhase(ctx, 9); err == nil {
		t.Fatal("expected error for unknown phase id")
	}
	if _, err := s.HaltingCount(ctx, "nope"); err == nil {
		t.Fatal("expected error for unknown lane")
	}
	if err := s.SetPhaseDuration(ctx, PhaseNSGreen, 0); err == nil {
		t.Fatal("expected error for non-positive duration")
	}
}

func TestRailFeedCountdownAndRestart(t *testing.T) {
	pattern, err := RailPatternByName("approach-30s")
	if err != nil {
		t.Fatalf("pattern: %v", err)
	}
	feed := NewRailFeed(pattern)

	want := 40000 - 2000
	for want > 0 {
		if got := feed.Next(); got != want {
			t.Fatalf("eta: got %d, want %d", got, want)
		}
		want -= 2000
	}
	if got := feed.Next(); got != 0 {
		t.Fatalf("arrival sample: got %d, want 0", got)
	}
	// The countdown restarts after arrival.
	if got := feed.Next(); got != 40000-2000 {
		t.Fatalf("restart: got %d, want %d", got, 40000-2000)
	}
}

func TestRailPatternByNameUnknown(t *testing.T) {
	if _, err := RailPatternByName("approach-99s"); err == nil {
		t.Fatal("expected error for unknown pattern")
	}
}
