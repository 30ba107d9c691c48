package storage

import (
	"context"

	"janus/internal/model"
)

// Store persists run artifacts: run summaries, per-episode records and
// the policy metadata written at training time.
type Store interface {
	Init(ctx context.Context) error
	SaveRunSummary(ctx context.Context, summary model.RunSummary) error
	GetRunSummary(ctx context.Context, runID string) (model.RunSummary, bool, error)
	ListRunSummaries(ctx context.Context, limit int) ([]model.RunSummary, error)
	SaveEpisodes(ctx context.Context, runID string, episodes []model.EpisodeRecord) error
	GetEpisodes(ctx context.Context, runID string) ([]model.EpisodeRecord, bool, error)
	SavePolicyMetadata(ctx context.Context, meta model.PolicyMetadata) error
	GetPolicyMetadata(ctx context.Context, controller model.Controller) (model.PolicyMetadata, bool, error)
}
