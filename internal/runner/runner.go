// Package runner drives control environments against a trainer seam and
// persists the resulting run artifacts, including the action-mapping
// metadata the serving side will load.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"janus/internal/env"
	"janus/internal/metadata"
	"janus/internal/model"
	"janus/internal/storage"
)

// Config configures a run.
type Config struct {
	Episodes        int
	MaxEpisodeSteps int // safety cap per episode; 0 means no cap
	Seed            int64
	MetadataPath    string // when set, the action-mapping artifact is written here
}

// Runner executes episodes and records their outcomes.
type Runner struct {
	store storage.Store
	log   *logrus.Logger
}

func New(store storage.Store, log *logrus.Logger) *Runner {
	if log == nil {
		log = logrus.New()
	}
	return &Runner{store: store, log: log}
}

// RunTraffic runs episodes of the traffic signal environment.
func (r *Runner) RunTraffic(ctx context.Context, e *env.TrafficEnv, trainer Trainer, cfg Config) (model.RunSummary, error) {
	return r.run(ctx, e, trainer, cfg,
		func(ctx context.Context) ([]float64, error) { return e.Reset(ctx) },
		func(ctx context.Context, actionIdx int) (env.StepResult, error) { return e.Step(ctx, actionIdx) },
		func() model.PolicyMetadata {
			return model.PolicyMetadata{
				Controller:     model.ControllerTraffic,
				ActionMapping:  e.ActionMapping(),
				ObservationLen: 6,
			}
		})
}

// RunRail runs episodes of the rail crossing environment.
func (r *Runner) RunRail(ctx context.Context, e *env.RailEnv, trainer Trainer, cfg Config) (model.RunSummary, error) {
	return r.run(ctx, e, trainer, cfg,
		func(_ context.Context) ([]float64, error) { return e.Reset(), nil },
		func(_ context.Context, actionIdx int) (env.StepResult, error) { return e.Step(actionIdx) },
		func() model.PolicyMetadata {
			envMeta := e.EnvMeta()
			return model.PolicyMetadata{
				Controller:     model.ControllerRail,
				ActionMapping:  e.ActionMapping(),
				Env:            &envMeta,
				ObservationLen: 2,
			}
		})
}

func (r *Runner) run(
	ctx context.Context,
	e env.Environment,
	trainer Trainer,
	cfg Config,
	reset func(context.Context) ([]float64, error),
	step func(context.Context, int) (env.StepResult, error),
	buildMeta func() model.PolicyMetadata,
) (model.RunSummary, error) {
	if cfg.Episodes <= 0 {
		return model.RunSummary{}, fmt.Errorf("episodes must be positive, got %d", cfg.Episodes)
	}

	controller := e.Controller()
	runID := uuid.NewString()
	log := r.log.WithFields(logrus.Fields{"run_id": runID, "controller": controller, "trainer": trainer.Name()})
	log.WithField("episodes", cfg.Episodes).Info("run started")

	episodes := make([]model.EpisodeRecord, 0, cfg.Episodes)
	for episode := 0; episode < cfg.Episodes; episode++ {
		if err := ctx.Err(); err != nil {
			return model.RunSummary{}, err
		}

		record, err := r.runEpisode(ctx, runID, episode, trainer, cfg, reset, step)
		if err != nil {
			return model.RunSummary{}, fmt.Errorf("episode %d: %w", episode, err)
		}
		log.WithFields(logrus.Fields{
			"episode": episode,
			"steps":   record.Steps,
			"reward":  record.TotalReward,
			"cause":   record.Terminal,
		}).Debug("episode finished")
		episodes = append(episodes, record)
	}

	summary := summarize(runID, controller, trainer.Name(), cfg, episodes)
	if err := r.persist(ctx, summary, episodes, cfg, buildMeta); err != nil {
		return model.RunSummary{}, err
	}
	log.WithFields(logrus.Fields{
		"mean_reward": summary.MeanReward,
		"best_reward": summary.BestReward,
		"total_steps": summary.TotalSteps,
	}).Info("run finished")
	return summary, nil
}

func (r *Runner) runEpisode(
	ctx context.Context,
	runID string,
	episode int,
	trainer Trainer,
	cfg Config,
	reset func(context.Context) ([]float64, error),
	step func(context.Context, int) (env.StepResult, error),
) (model.EpisodeRecord, error) {
	obs, err := reset(ctx)
	if err != nil {
		return model.EpisodeRecord{}, err
	}

	record := model.EpisodeRecord{RunID: runID, Episode: episode, Terminal: "step-budget"}
	for {
		actionIdx := trainer.SelectAction(obs)
		result, err := step(ctx, actionIdx)
		if err != nil {
			return model.EpisodeRecord{}, err
		}
		trainer.Observe(obs, actionIdx, result)

		record.Steps++
		record.TotalReward += result.Reward
		obs = result.Observation

		if result.Terminated {
			if cause, ok := result.Trace["cause"].(string); ok {
				record.Terminal = cause
			} else {
				record.Terminal = "terminated"
			}
			return record, nil
		}
		if cfg.MaxEpisodeSteps > 0 && record.Steps >= cfg.MaxEpisodeSteps {
			return record, nil
		}
	}
}

func summarize(runID string, controller model.Controller, trainerName string, cfg Config, episodes []model.EpisodeRecord) model.RunSummary {
	rewards := lo.Map(episodes, func(e model.EpisodeRecord, _ int) float64 { return e.TotalReward })
	summary := model.RunSummary{
		RunID:        runID,
		Controller:   controller,
		CreatedAtUTC: time.Now().UTC().Format(time.RFC3339),
		Seed:         cfg.Seed,
		Episodes:     len(episodes),
		TotalSteps:   lo.SumBy(episodes, func(e model.EpisodeRecord) int { return e.Steps }),
		MeanReward:   lo.Sum(rewards) / float64(len(rewards)),
		BestReward:   lo.Max(rewards),
		TrainerName:  trainerName,
		MetadataPath: cfg.MetadataPath,
	}
	return summary
}

func (r *Runner) persist(
	ctx context.Context,
	summary model.RunSummary,
	episodes []model.EpisodeRecord,
	cfg Config,
	buildMeta func() model.PolicyMetadata,
) error {
	storage.Stamp(&summary.VersionedRecord)
	for i := range episodes {
		storage.Stamp(&episodes[i].VersionedRecord)
	}
	meta := buildMeta()
	storage.Stamp(&meta.VersionedRecord)
	meta.TrainedAtUTC = summary.CreatedAtUTC

	if r.store != nil {
		if err := r.store.SaveRunSummary(ctx, summary); err != nil {
			return err
		}
		if err := r.store.SaveEpisodes(ctx, summary.RunID, episodes); err != nil {
			return err
		}
		if err := r.store.SavePolicyMetadata(ctx, meta); err != nil {
			return err
		}
	}
	if cfg.MetadataPath != "" {
		if err := metadata.Save(cfg.MetadataPath, meta); err != nil {
			return err
		}
	}
	return nil
}
