package policy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"janus/internal/action"
	"janus/internal/model"
)

func constantPolicy(idx int) Policy {
	return Func(func(_ context.Context, _ []float64) (model.Decision, error) {
		return model.Decision{ActionIndex: idx}, nil
	})
}

func TestCacheLoadsOnceAndReuses(t *testing.T) {
	opens := 0
	cache := NewCache()
	cache.Register(model.ControllerRail, Source{
		Defaults: action.DefaultRailTable().Specs(),
		Open: func(model.PolicyMetadata) (Policy, error) {
			opens++
			return constantPolicy(1), nil
		},
	})

	first, err := cache.Bundle(context.Background(), model.ControllerRail)
	if err != nil {
		t.Fatalf("bundle: %v", err)
	}
	second, err := cache.Bundle(context.Background(), model.ControllerRail)
	if err != nil {
		t.Fatalf("bundle: %v", err)
	}
	if first != second {
		t.Fatal("expected the same cached bundle")
	}
	if opens != 1 {
		t.Fatalf("policy artifact opened %d times, want 1", opens)
	}
	if first.Table.Size() != 2 {
		t.Fatalf("table size: got %d, want 2", first.Table.Size())
	}
}

func TestCacheFailureIsNotCached(t *testing.T) {
	opens := 0
	cache := NewCache()
	cache.Register(model.ControllerTraffic, Source{
		Defaults: action.DefaultTrafficTable().Specs(),
		Open: func(model.PolicyMetadata) (Policy, error) {
			opens++
			if opens == 1 {
				return nil, fmt.Errorf("artifact still uploading")
			}
			return constantPolicy(0), nil
		},
	})

	_, err := cache.Bundle(context.Background(), model.ControllerTraffic)
	var unavailable *UnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected UnavailableError, got %v", err)
	}
	if unavailable.Controller != model.ControllerTraffic {
		t.Fatalf("error controller: got %s", unavailable.Controller)
	}

	// The next call retries instead of serving the cached failure.
	bundle, err := cache.Bundle(context.Background(), model.ControllerTraffic)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if bundle == nil || opens != 2 {
		t.Fatalf("expected a successful retry after %d opens", opens)
	}
}

func TestCacheUnregisteredController(t *testing.T) {
	cache := NewCache()
	_, err := cache.Bundle(context.Background(), model.ControllerRail)
	var unavailable *UnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected UnavailableError, got %v", err)
	}
}

func TestCacheConfigurationErrorSurfaces(t *testing.T) {
	cache := NewCache()
	cache.Register(model.ControllerTraffic, Source{
		// No metadata path and no defaults: nothing to build a table from.
		Open: func(model.PolicyMetadata) (Policy, error) { return constantPolicy(0), nil },
	})

	_, err := cache.Bundle(context.Background(), model.ControllerTraffic)
	var cfgErr *action.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestCacheHonoursContext(t *testing.T) {
	cache := NewCache()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := cache.Bundle(ctx, model.ControllerRail); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWarmupToleratesFailures(t *testing.T) {
	cache := NewCache()
	cache.Register(model.ControllerRail, Source{
		Defaults: action.DefaultRailTable().Specs(),
		Open:     func(model.PolicyMetadata) (Policy, error) { return constantPolicy(0), nil },
	})
	cache.Register(model.ControllerTraffic, Source{
		Defaults: action.DefaultTrafficTable().Specs(),
		Open:     func(model.PolicyMetadata) (Policy, error) { return nil, fmt.Errorf("broken") },
	})

	log := logrus.New()
	log.SetOutput(io.Discard)
	cache.Warmup(context.Background(), log)

	if _, err := cache.Bundle(context.Background(), model.ControllerRail); err != nil {
		t.Fatalf("warmed rail bundle should serve: %v", err)
	}
	_, err := cache.Bundle(context.Background(), model.ControllerTraffic)
	var unavailable *UnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected traffic load to keep failing, got %v", err)
	}
}
