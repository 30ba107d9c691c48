package storage

import (
	"context"
	"sort"
	"sync"

	"janus/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]model.RunSummary
	episodes    map[string][]model.EpisodeRecord
	metadata    map[model.Controller]model.PolicyMetadata
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]model.RunSummary)
	s.episodes = make(map[string][]model.EpisodeRecord)
	s.metadata = make(map[model.Controller]model.PolicyMetadata)
	return nil
}

func (s *MemoryStore) SaveRunSummary(_ context.Context, summary model.RunSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[summary.RunID] = summary
	return nil
}

func (s *MemoryStore) GetRunSummary(_ context.Context, runID string) (model.RunSummary, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary, ok := s.runs[runID]
	return summary, ok, nil
}

func (s *MemoryStore) ListRunSummaries(_ context.Context, limit int) ([]model.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]model.RunSummary, 0, len(s.runs))
	for _, summary := range s.runs {
		summaries = append(summaries, summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].CreatedAtUTC == summaries[j].CreatedAtUTC {
			return summaries[i].RunID < summaries[j].RunID
		}
		return summaries[i].CreatedAtUTC > summaries[j].CreatedAtUTC
	})
	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

func (s *MemoryStore) SaveEpisodes(_ context.Context, runID string, episodes []model.EpisodeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]model.EpisodeRecord, len(episodes))
	copy(copied, episodes)
	s.episodes[runID] = copied
	return nil
}

func (s *MemoryStore) GetEpisodes(_ context.Context, runID string) ([]model.EpisodeRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	episodes, ok := s.episodes[runID]
	if !ok {
		return nil, false, nil
	}
	copied := make([]model.EpisodeRecord, len(episodes))
	copy(copied, episodes)
	return copied, true, nil
}

func (s *MemoryStore) SavePolicyMetadata(_ context.Context, meta model.PolicyMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metadata[meta.Controller] = meta
	return nil
}

func (s *MemoryStore) GetPolicyMetadata(_ context.Context, controller model.Controller) (model.PolicyMetadata, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meta, ok := s.metadata[controller]
	return meta, ok, nil
}
