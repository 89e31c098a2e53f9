package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/prode/internal/domain/tournament"
)

type TournamentRepository struct {
	mu        sync.RWMutex
	editions  map[tournament.Key]tournament.Edition
	champions map[tournament.Key]map[string]tournament.Champion
	now       func() time.Time
}

func NewTournamentRepository() *TournamentRepository {
	return &TournamentRepository{
		editions:  make(map[tournament.Key]tournament.Edition),
		champions: make(map[tournament.Key]map[string]tournament.Champion),
		now:       time.Now,
	}
}

func (r *TournamentRepository) Ensure(_ context.Context, key tournament.Key) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.editions[key]; ok {
		return false, nil
	}
	r.editions[key] = tournament.Edition{Key: key, CreatedAt: r.now().UTC()}
	return true, nil
}

func (r *TournamentRepository) Get(_ context.Context, key tournament.Key) (tournament.Edition, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.editions[key]
	return item, ok, nil
}

func (r *TournamentRepository) MarkFinished(_ context.Context, key tournament.Key, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.editions[key]
	if !ok || item.Finished {
		return false, nil
	}
	item.Finished = true
	item.FinishedAt = &at
	r.editions[key] = item
	return true, nil
}

func (r *TournamentRepository) List(_ context.Context) ([]tournament.Edition, error) {
	r.mu.RLock()
	keys := make([]tournament.Key, 0, len(r.editions))
	for key := range r.editions {
		keys = append(keys, key)
	}
	tournament.SortKeys(keys)

	out := make([]tournament.Edition, 0, len(keys))
	for _, key := range keys {
		out = append(out, r.editions[key])
	}
	r.mu.RUnlock()
	return out, nil
}

// AwardChampions is idempotent per (edition, user).
func (r *TournamentRepository) AwardChampions(_ context.Context, champions []tournament.Champion) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range champions {
		byUser, ok := r.champions[item.Edition]
		if !ok {
			byUser = make(map[string]tournament.Champion)
			r.champions[item.Edition] = byUser
		}
		if _, exists := byUser[item.UserID]; exists {
			continue
		}
		byUser[item.UserID] = item
	}
	return nil
}

func (r *TournamentRepository) ListChampions(_ context.Context, query tournament.ChampionQuery) ([]tournament.Champion, error) {
	r.mu.RLock()
	keys := make([]tournament.Key, 0, len(r.champions))
	for key := range r.champions {
		keys = append(keys, key)
	}
	tournament.SortKeys(keys)

	out := make([]tournament.Champion, 0)
	for _, key := range keys {
		users := make([]tournament.Champion, 0, len(r.champions[key]))
		for _, item := range r.champions[key] {
			if query.Matches(item) {
				users = append(users, item)
			}
		}
		sortChampions(users)
		out = append(out, users...)
	}
	r.mu.RUnlock()
	return out, nil
}

func sortChampions(items []tournament.Champion) {
	sort.Slice(items, func(i, j int) bool { return items[i].UserID < items[j].UserID })
}
