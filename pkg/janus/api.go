// Package janus is the embedding API for the decision-serving and
// control-simulation core: observation encoding, policy dispatch, action
// resolution and training-run management behind one client.
package janus

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"janus/internal/action"
	"janus/internal/codec"
	"janus/internal/env"
	"janus/internal/model"
	"janus/internal/policy"
	"janus/internal/runner"
	"janus/internal/sim"
	"janus/internal/storage"
)

const defaultDBPath = "janus.db"

// PolicySource re-exports the policy bundle source: metadata path,
// default action mapping and the opener for the opaque policy artifact.
type PolicySource = policy.Source

// Options configures a Client.
type Options struct {
	StoreKind string
	DBPath    string
	Logger    *logrus.Logger

	// Policy sources per controller. Defaults are installed for the
	// built-in action tables when a source omits them.
	Traffic PolicySource
	Rail    PolicySource
}

// Client is the constructed-once handle to the serving core. All cached
// state (action tables, policy bundles) is immutable after load, so one
// Client safely serves concurrent requests.
type Client struct {
	store storage.Store
	cache *policy.Cache
	log   *logrus.Logger
}

// New builds a Client. The store backs run artifacts; policy bundles
// load lazily on first decision unless Warmup is called.
func New(ctx context.Context, opts Options) (*Client, error) {
	log := opts.Logger
	if log == nil {
		log = logrus.New()
	}

	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	store, err := storage.NewStore(opts.StoreKind, dbPath)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}

	traffic := opts.Traffic
	if traffic.Defaults == nil {
		traffic.Defaults = action.DefaultTrafficTable().Specs()
	}
	rail := opts.Rail
	if rail.Defaults == nil {
		rail.Defaults = action.DefaultRailTable().Specs()
	}

	cache := policy.NewCache()
	cache.Register(model.ControllerTraffic, traffic)
	cache.Register(model.ControllerRail, rail)

	return &Client{store: store, cache: cache, log: log}, nil
}

// Close releases the store if its backend holds resources.
func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Warmup eagerly loads both policy bundles, best effort: failures are
// logged and deferred to first use.
func (c *Client) Warmup(ctx context.Context) {
	c.cache.Warmup(ctx, c.log)
}

// TrafficDecision is the full serving answer for a junction.
type TrafficDecision struct {
	Plan        model.TrafficPlan
	ActionIndex int
	Confidence  float64
	Meta        model.PolicyMetadata
}

// RailDecision is the full serving answer for a crossing.
type RailDecision struct {
	Command     model.RailCommand
	ActionIndex int
	Confidence  float64
	Meta        model.PolicyMetadata
}

// DecideTraffic encodes the observation, consults the traffic policy and
// resolves its action index into a signal plan.
func (c *Client) DecideTraffic(ctx context.Context, obs model.TrafficObservation) (TrafficDecision, error) {
	bundle, err := c.cache.Bundle(ctx, model.ControllerTraffic)
	if err != nil {
		return TrafficDecision{}, err
	}

	features := codec.EncodeTraffic(obs)
	decision, err := c.predict(ctx, bundle, features)
	if err != nil {
		return TrafficDecision{}, err
	}

	plan, err := action.ResolveTraffic(bundle.Table, decision.ActionIndex)
	if err != nil {
		return TrafficDecision{}, err
	}
	return TrafficDecision{
		Plan:        plan,
		ActionIndex: decision.ActionIndex,
		Confidence:  codec.Confidence(decision.ValueEstimate),
		Meta:        bundle.Meta,
	}, nil
}

// DecideRail encodes the observation, consults the rail policy and
// resolves its action index into a barrier command.
func (c *Client) DecideRail(ctx context.Context, obs model.RailObservation) (RailDecision, error) {
	bundle, err := c.cache.Bundle(ctx, model.ControllerRail)
	if err != nil {
		return RailDecision{}, err
	}

	features := codec.EncodeRail(obs, bundle.Meta.Env)
	decision, err := c.predict(ctx, bundle, features)
	if err != nil {
		return RailDecision{}, err
	}

	command, err := action.ResolveRail(bundle.Table, decision.ActionIndex)
	if err != nil {
		return RailDecision{}, err
	}
	return RailDecision{
		Command:     command,
		ActionIndex: decision.ActionIndex,
		Confidence:  codec.Confidence(decision.ValueEstimate),
		Meta:        bundle.Meta,
	}, nil
}

func (c *Client) predict(ctx context.Context, bundle *policy.Bundle, features []float64) (model.Decision, error) {
	if want := bundle.Meta.ObservationLen; want > 0 && len(features) != want {
		return model.Decision{}, &policy.UnavailableError{
			Controller: bundle.Controller,
			Reason:     fmt.Sprintf("feature vector has %d elements, policy expects %d", len(features), want),
		}
	}
	return bundle.Policy.Predict(ctx, features)
}

// TrafficTable returns the cached traffic action table.
func (c *Client) TrafficTable(ctx context.Context) (action.Table, error) {
	bundle, err := c.cache.Bundle(ctx, model.ControllerTraffic)
	if err != nil {
		return action.Table{}, err
	}
	return bundle.Table, nil
}

// RailTable returns the cached rail action table.
func (c *Client) RailTable(ctx context.Context) (action.Table, error) {
	bundle, err := c.cache.Bundle(ctx, model.ControllerRail)
	if err != nil {
		return action.Table{}, err
	}
	return bundle.Table, nil
}

// TrafficRunRequest configures a traffic training/demo run.
type TrafficRunRequest struct {
	Episodes     int
	Seed         int64
	Durations    []int
	MaxSteps     int
	WarmupSteps  int
	AmberSeconds int
	MetadataPath string
}

// RunTrafficEpisodes runs random-baseline episodes of the traffic
// environment against the synthetic simulator and persists the run.
func (c *Client) RunTrafficEpisodes(ctx context.Context, req TrafficRunRequest) (model.RunSummary, error) {
	cfg := env.DefaultTrafficConfig()
	if len(req.Durations) > 0 {
		cfg.GreenDurations = req.Durations
	}
	if req.MaxSteps > 0 {
		cfg.MaxSteps = req.MaxSteps
	}
	if req.WarmupSteps > 0 {
		cfg.WarmupSteps = req.WarmupSteps
	}
	if req.AmberSeconds > 0 {
		cfg.AmberSeconds = req.AmberSeconds
	}

	simulator := sim.NewSynthetic(sim.DefaultSyntheticConfig(req.Seed))
	defer simulator.Close()

	e, err := env.NewTrafficEnv(simulator, cfg)
	if err != nil {
		return model.RunSummary{}, err
	}

	trainer := runner.NewRandomTrainer(req.Seed, e.Table().Size())
	return runner.New(c.store, c.log).RunTraffic(ctx, e, trainer, runner.Config{
		Episodes:     req.Episodes,
		Seed:         req.Seed,
		MetadataPath: req.MetadataPath,
	})
}

// RailRunRequest configures a rail training/demo run.
type RailRunRequest struct {
	Episodes     int
	Seed         int64
	Scripted     bool // use the scripted close-in-lead-window baseline
	MetadataPath string
	Env          env.RailConfig // zero value takes the defaults
}

// RunRailEpisodes runs baseline episodes of the rail environment and
// persists the run.
func (c *Client) RunRailEpisodes(ctx context.Context, req RailRunRequest) (model.RunSummary, error) {
	cfg := req.Env
	if cfg.TimeStepMs == 0 && cfg.MaxEtaMs == 0 {
		cfg = env.DefaultRailConfig()
	}
	cfg.Seed = req.Seed

	e, err := env.NewRailEnv(cfg)
	if err != nil {
		return model.RunSummary{}, err
	}

	var trainer runner.Trainer
	if req.Scripted {
		trainer = runner.NewScriptedRailTrainer(cfg.MaxEtaMs, cfg.CloseLeadMs)
	} else {
		trainer = runner.NewRandomTrainer(req.Seed, e.Table().Size())
	}
	return runner.New(c.store, c.log).RunRail(ctx, e, trainer, runner.Config{
		Episodes:     req.Episodes,
		Seed:         req.Seed,
		MetadataPath: req.MetadataPath,
	})
}

// Runs lists persisted run summaries, newest first.
func (c *Client) Runs(ctx context.Context, limit int) ([]model.RunSummary, error) {
	return c.store.ListRunSummaries(ctx, limit)
}

// Episodes returns the per-episode records of a run.
func (c *Client) Episodes(ctx context.Context, runID string) ([]model.EpisodeRecord, error) {
	episodes, ok, err := c.store.GetEpisodes(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no episodes recorded for run %s", runID)
	}
	return episodes, nil
}
