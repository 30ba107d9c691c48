package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"janus/internal/config"
	"janus/internal/model"
	"janus/internal/sim"
	"janus/internal/storage"
	janusapi "janus/pkg/janus"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "table":
		return runTable(ctx, args[1:])
	case "decide":
		return runDecide(ctx, args[1:])
	case "episode":
		return runEpisode(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "episodes":
		return runEpisodes(ctx, args[1:])
	case "feed":
		return runFeed(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(msg string) error {
	return errors.New(msg + `
usage: janusctl <command> [flags]

commands:
  init      initialize the artifact store
  table     print a controller's action table
  decide    one-shot decision from an observation
  episode   run demo episodes of a control environment
  runs      list persisted runs
  episodes  show per-episode records of a run
  feed      print a synthetic rail ETA stream`)
}

func newClient(ctx context.Context, cfg config.Config, storeKind, dbPath string) (*janusapi.Client, error) {
	if storeKind == "" {
		storeKind = cfg.Store.Kind
	}
	if dbPath == "" {
		dbPath = cfg.Store.DBPath
	}
	return janusapi.New(ctx, janusapi.Options{
		StoreKind: storeKind,
		DBPath:    dbPath,
		Logger:    cfg.NewLogger(),
		Traffic: janusapi.PolicySource{
			MetadataPath: cfg.Traffic.MetadataPath,
			Open:         openTrafficPolicy,
		},
		Rail: janusapi.PolicySource{
			MetadataPath: cfg.Rail.MetadataPath,
			Open:         openRailPolicy,
		},
	})
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML config file")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	client, err := newClient(ctx, cfg, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runTable(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("table", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML config file")
	controller := fs.String("controller", "traffic", "controller: traffic|rail")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	client, err := newClient(ctx, cfg, "memory", "")
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	var specs []model.ActionSpec
	switch *controller {
	case "traffic":
		table, err := client.TrafficTable(ctx)
		if err != nil {
			return err
		}
		specs = table.Specs()
	case "rail":
		table, err := client.RailTable(ctx)
		if err != nil {
			return err
		}
		specs = table.Specs()
	default:
		return fmt.Errorf("unknown controller: %s", *controller)
	}
	return printJSON(specs)
}

func runDecide(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("decide", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML config file")
	controller := fs.String("controller", "traffic", "controller: traffic|rail")
	queueNS := fs.Float64("queue-ns", 0, "traffic: NS queue length")
	queueEW := fs.Float64("queue-ew", 0, "traffic: EW queue length")
	etaMs := fs.Float64("eta-ms", 0, "rail: train ETA in milliseconds")
	barrierClosed := fs.Bool("barrier-closed", false, "rail: barrier currently closed")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	client, err := newClient(ctx, cfg, "memory", "")
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	switch *controller {
	case "traffic":
		decision, err := client.DecideTraffic(ctx, model.TrafficObservation{
			QueueNS: *queueNS,
			QueueEW: *queueEW,
		})
		if err != nil {
			return err
		}
		return printJSON(map[string]any{
			"plan":         decision.Plan,
			"action_index": decision.ActionIndex,
			"confidence":   decision.Confidence,
		})
	case "rail":
		barrier := 0.0
		if *barrierClosed {
			barrier = 1.0
		}
		decision, err := client.DecideRail(ctx, model.RailObservation{
			EtaMs:         *etaMs,
			BarrierClosed: barrier,
		})
		if err != nil {
			return err
		}
		return printJSON(map[string]any{
			"command":      decision.Command,
			"action_index": decision.ActionIndex,
			"confidence":   decision.Confidence,
		})
	default:
		return fmt.Errorf("unknown controller: %s", *controller)
	}
}

func runEpisode(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("episode", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML config file")
	controller := fs.String("controller", "rail", "controller: traffic|rail")
	episodes := fs.Int("episodes", 5, "number of episodes")
	seed := fs.Int64("seed", 42, "random seed")
	scripted := fs.Bool("scripted", false, "rail: use the scripted baseline")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "", "sqlite database path")
	metadataOut := fs.String("metadata-out", "", "write action-mapping metadata to this path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	client, err := newClient(ctx, cfg, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	var summary model.RunSummary
	switch *controller {
	case "traffic":
		summary, err = client.RunTrafficEpisodes(ctx, janusapi.TrafficRunRequest{
			Episodes:     *episodes,
			Seed:         *seed,
			Durations:    cfg.Traffic.Durations,
			MaxSteps:     cfg.Traffic.MaxSteps,
			WarmupSteps:  cfg.Traffic.WarmupSteps,
			AmberSeconds: cfg.Traffic.AmberSeconds,
			MetadataPath: *metadataOut,
		})
	case "rail":
		summary, err = client.RunRailEpisodes(ctx, janusapi.RailRunRequest{
			Episodes:     *episodes,
			Seed:         *seed,
			Scripted:     *scripted,
			MetadataPath: *metadataOut,
		})
	default:
		return fmt.Errorf("unknown controller: %s", *controller)
	}
	if err != nil {
		return err
	}
	return printJSON(summary)
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML config file")
	limit := fs.Int("limit", 10, "maximum runs to list")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	client, err := newClient(ctx, cfg, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runs, err := client.Runs(ctx, *limit)
	if err != nil {
		return err
	}
	return printJSON(runs)
}

func runEpisodes(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("episodes", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML config file")
	runID := fs.String("run", "", "run id")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return errors.New("missing -run")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	client, err := newClient(ctx, cfg, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	episodes, err := client.Episodes(ctx, *runID)
	if err != nil {
		return err
	}
	return printJSON(episodes)
}

func runFeed(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("feed", flag.ContinueOnError)
	pattern := fs.String("pattern", "approach-30s", "rail approach pattern")
	samples := fs.Int("samples", 25, "number of ETA samples to print")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p, err := sim.RailPatternByName(*pattern)
	if err != nil {
		return err
	}
	feed := sim.NewRailFeed(p)
	for i := 0; i < *samples; i++ {
		fmt.Printf("%d\n", feed.Next())
	}
	return nil
}

func printJSON(v any) error {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(payload))
	return nil
}
