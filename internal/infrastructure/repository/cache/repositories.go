package cache

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/prode/internal/domain/match"
	"github.com/riskibarqy/prode/internal/domain/tournament"
	basecache "github.com/riskibarqy/prode/internal/platform/cache"
)

const (
	matchKeyPrefix   = "match:"
	editionKeyPrefix = "edition:"
)

// MatchRepository caches schedule reads. Any write drops every cached match
// key, which keeps reads consistent with the last sync pass.
type MatchRepository struct {
	next  match.Repository
	cache *basecache.Store
}

func NewMatchRepository(next match.Repository, cache *basecache.Store) *MatchRepository {
	return &MatchRepository{next: next, cache: cache}
}

func (r *MatchRepository) GetByExternalID(ctx context.Context, externalID string) (match.Match, bool, error) {
	key := matchKeyPrefix + "id:" + externalID
	cached, err := basecache.Load(ctx, r.cache, key, func(ctx context.Context) (matchLookup, error) {
		item, exists, err := r.next.GetByExternalID(ctx, externalID)
		return matchLookup{value: item, exists: exists}, err
	})
	if err != nil {
		return match.Match{}, false, err
	}
	return cached.value, cached.exists, nil
}

// matchLookup caches misses too, so unknown ids do not hit storage each time.
type matchLookup struct {
	value  match.Match
	exists bool
}

// ListByExternalIDs feeds the sync reconcile step and always reads through.
func (r *MatchRepository) ListByExternalIDs(ctx context.Context, externalIDs []string) ([]match.Match, error) {
	return r.next.ListByExternalIDs(ctx, externalIDs)
}

func (r *MatchRepository) List(ctx context.Context, query match.Query) ([]match.Match, error) {
	key := matchKeyPrefix + "list:" + string(query.Status) + ":" + strings.ToLower(query.Tournament) + ":" + strconv.Itoa(query.Year)
	items, err := basecache.Load(ctx, r.cache, key, func(ctx context.Context) ([]match.Match, error) {
		return r.next.List(ctx, query)
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(items), nil
}

func (r *MatchRepository) Upsert(ctx context.Context, item match.Match) error {
	defer r.cache.Invalidate(ctx, matchKeyPrefix)
	return r.next.Upsert(ctx, item)
}

func (r *MatchRepository) UpsertMany(ctx context.Context, items []match.Match) error {
	defer r.cache.Invalidate(ctx, matchKeyPrefix)
	return r.next.UpsertMany(ctx, items)
}

// TournamentRepository caches the edition and champion listings.
type TournamentRepository struct {
	next  tournament.Repository
	cache *basecache.Store
}

func NewTournamentRepository(next tournament.Repository, cache *basecache.Store) *TournamentRepository {
	return &TournamentRepository{next: next, cache: cache}
}

func (r *TournamentRepository) Ensure(ctx context.Context, key tournament.Key) (bool, error) {
	created, err := r.next.Ensure(ctx, key)
	if created {
		r.cache.Invalidate(ctx, editionKeyPrefix)
	}
	return created, err
}

func (r *TournamentRepository) Get(ctx context.Context, key tournament.Key) (tournament.Edition, bool, error) {
	return r.next.Get(ctx, key)
}

func (r *TournamentRepository) MarkFinished(ctx context.Context, key tournament.Key, at time.Time) (bool, error) {
	changed, err := r.next.MarkFinished(ctx, key, at)
	if changed {
		r.cache.Invalidate(ctx, editionKeyPrefix)
	}
	return changed, err
}

func (r *TournamentRepository) List(ctx context.Context) ([]tournament.Edition, error) {
	items, err := basecache.Load(ctx, r.cache, editionKeyPrefix+"list", r.next.List)
	if err != nil {
		return nil, err
	}
	return slices.Clone(items), nil
}

func (r *TournamentRepository) AwardChampions(ctx context.Context, champions []tournament.Champion) error {
	defer r.cache.Invalidate(ctx, editionKeyPrefix)
	return r.next.AwardChampions(ctx, champions)
}

func (r *TournamentRepository) ListChampions(ctx context.Context, query tournament.ChampionQuery) ([]tournament.Champion, error) {
	key := editionKeyPrefix + "champions:" + strings.ToLower(query.Edition.Name) + ":" + strconv.Itoa(query.Edition.Year) + ":" + strconv.Itoa(query.Year)
	items, err := basecache.Load(ctx, r.cache, key, func(ctx context.Context) ([]tournament.Champion, error) {
		return r.next.ListChampions(ctx, query)
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(items), nil
}
