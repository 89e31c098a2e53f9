package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/riskibarqy/prode/internal/domain/match"
)

type MatchRepository struct {
	mu    sync.RWMutex
	items map[string]match.Match
}

func NewMatchRepository(seed []match.Match) *MatchRepository {
	items := make(map[string]match.Match, len(seed))
	for _, item := range seed {
		items[item.ExternalID] = item
	}
	return &MatchRepository{items: items}
}

func (r *MatchRepository) GetByExternalID(_ context.Context, externalID string) (match.Match, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[externalID]
	return item, ok, nil
}

func (r *MatchRepository) ListByExternalIDs(_ context.Context, externalIDs []string) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Match, 0, len(externalIDs))
	for _, externalID := range externalIDs {
		if item, ok := r.items[externalID]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

// List returns matches ordered by kickoff then external id.
func (r *MatchRepository) List(_ context.Context, query match.Query) ([]match.Match, error) {
	r.mu.RLock()
	out := make([]match.Match, 0, len(r.items))
	for _, item := range r.items {
		if query.Matches(item) {
			out = append(out, item)
		}
	}
	r.mu.RUnlock()

	sortMatches(out)
	return out, nil
}

func (r *MatchRepository) Upsert(_ context.Context, item match.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.upsertLocked(item)
	return nil
}

func (r *MatchRepository) UpsertMany(_ context.Context, items []match.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range items {
		r.upsertLocked(item)
	}
	return nil
}

func (r *MatchRepository) upsertLocked(item match.Match) {
	if current, ok := r.items[item.ExternalID]; ok {
		item = match.Merge(current, item)
	}
	r.items[item.ExternalID] = item
}

func sortMatches(items []match.Match) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].KickoffAt.Equal(items[j].KickoffAt) {
			return items[i].KickoffAt.Before(items[j].KickoffAt)
		}
		return items[i].ExternalID < items[j].ExternalID
	})
}
