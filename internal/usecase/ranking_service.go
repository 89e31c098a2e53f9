package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/riskibarqy/prode/internal/domain/prediction"
	"github.com/riskibarqy/prode/internal/domain/ranking"
	"github.com/riskibarqy/prode/internal/domain/scoring"
	"github.com/riskibarqy/prode/internal/domain/tournament"
	"github.com/riskibarqy/prode/internal/platform/cache"
	"github.com/riskibarqy/prode/internal/platform/logging"
	"github.com/sourcegraph/conc/pool"
)

const rankingCachePrefix = "ranking:"

// RankingService computes leaderboards from the scored prediction history.
// It is read-only apart from awarding champions and tolerates storage that
// is mid-sync.
type RankingService struct {
	predictions prediction.Repository
	tournaments tournament.Repository
	table       scoring.Table
	cache       *cache.Store
	logger      *logging.Logger
}

func NewRankingService(
	predictions prediction.Repository,
	tournaments tournament.Repository,
	table scoring.Table,
	store *cache.Store,
	logger *logging.Logger,
) *RankingService {
	if logger == nil {
		logger = logging.Default()
	}
	return &RankingService{
		predictions: predictions,
		tournaments: tournaments,
		table:       table,
		cache:       store,
		logger:      logger.Named("ranking_service"),
	}
}

func (s *RankingService) Board(ctx context.Context, kind ranking.Kind, filter ranking.Filter) (ranking.Board, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RankingService.Board")
	defer span.End()

	if err := filter.Validate(); err != nil {
		return ranking.Board{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if _, ok := ranking.ParseKind(string(kind)); !ok {
		return ranking.Board{}, fmt.Errorf("%w: unknown ranking kind %q", ErrInvalidInput, kind)
	}

	key := rankingCachePrefix + string(kind) + ":" + filter.Key()
	rows, err := cache.Load(ctx, s.cache, key, func(ctx context.Context) ([]ranking.Row, error) {
		return s.compute(ctx, kind, filter)
	})
	if err != nil {
		return ranking.Board{}, err
	}
	return ranking.Board{Kind: kind, Filter: filter, Rows: append([]ranking.Row(nil), rows...)}, nil
}

// Boards computes every board concurrently, in ranking.Kinds order.
func (s *RankingService) Boards(ctx context.Context, filter ranking.Filter) ([]ranking.Board, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RankingService.Boards")
	defer span.End()

	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	kinds := ranking.Kinds()
	boards := make([]ranking.Board, len(kinds))
	p := pool.New().WithErrors().WithContext(ctx).WithMaxGoroutines(len(kinds))
	for i, kind := range kinds {
		i, kind := i, kind
		p.Go(func(ctx context.Context) error {
			board, err := s.Board(ctx, kind, filter)
			if err != nil {
				return fmt.Errorf("board %s: %w", kind, err)
			}
			boards[i] = board
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return boards, nil
}

// Entries loads and scores every finished prediction inside the filter.
// Unscorable pairs are skipped.
func (s *RankingService) Entries(ctx context.Context, filter ranking.Filter) ([]ranking.Entry, error) {
	key := rankingCachePrefix + "entries:" + filter.Key()
	return cache.Load(ctx, s.cache, key, func(ctx context.Context) ([]ranking.Entry, error) {
		return s.loadEntries(ctx, filter)
	})
}

// AwardEditionChampions stores the leaders of the edition's points table.
// Ties share the trophy; nobody wins an edition without points.
func (s *RankingService) AwardEditionChampions(ctx context.Context, key tournament.Key, at time.Time) ([]tournament.Champion, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RankingService.AwardEditionChampions")
	defer span.End()

	entries, err := s.loadEntries(ctx, ranking.Filter{Edition: key})
	if err != nil {
		return nil, err
	}
	leaders := ranking.Leaders(ranking.TotalPoints(entries))
	if len(leaders) == 0 {
		s.logger.InfoContext(ctx, "edition finished without champions", "tournament", key.Name, "year", key.Year)
		return nil, nil
	}

	champions := make([]tournament.Champion, 0, len(leaders))
	for _, row := range leaders {
		champions = append(champions, tournament.Champion{
			Edition:   key,
			UserID:    row.UserID,
			Points:    int(row.Value),
			AwardedAt: at,
		})
	}
	if err := s.tournaments.AwardChampions(ctx, champions); err != nil {
		return nil, fmt.Errorf("award champions %s: %w", key, err)
	}
	s.Invalidate(ctx)

	s.logger.InfoContext(ctx, "edition champions awarded", "tournament", key.Name, "year", key.Year, "champions", len(champions))
	return champions, nil
}

// Invalidate drops every cached board.
func (s *RankingService) Invalidate(ctx context.Context) {
	removed := s.cache.Invalidate(ctx, rankingCachePrefix)
	if removed > 0 {
		s.logger.DebugContext(ctx, "ranking cache invalidated", "entries", removed)
	}
}

// PublishRefresh invalidates cached boards when their inputs changed.
func (s *RankingService) PublishRefresh(ctx context.Context, flags RefreshFlags) error {
	if flags.Predictions || flags.Rankings || flags.Trophies || flags.Matches {
		s.Invalidate(ctx)
	}
	return nil
}

func (s *RankingService) compute(ctx context.Context, kind ranking.Kind, filter ranking.Filter) ([]ranking.Row, error) {
	var (
		entries   []ranking.Entry
		champions []tournament.Champion
		err       error
	)
	if kind == ranking.KindTrophies {
		champions, err = s.tournaments.ListChampions(ctx, filter.ChampionQuery())
		if err != nil {
			return nil, fmt.Errorf("list champions: %w", err)
		}
	} else {
		entries, err = s.Entries(ctx, filter)
		if err != nil {
			return nil, err
		}
	}
	return ranking.Compute(kind, entries, champions)
}

func (s *RankingService) loadEntries(ctx context.Context, filter ranking.Filter) ([]ranking.Entry, error) {
	items, err := s.predictions.ListWithMatches(ctx, predictionQuery(filter, true))
	if err != nil {
		return nil, fmt.Errorf("list scored predictions: %w", err)
	}

	entries := make([]ranking.Entry, 0, len(items))
	for _, item := range items {
		record, err := scoring.Score(s.table, item.Prediction, item.Match)
		if errors.Is(err, scoring.ErrNotScorable) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("score prediction %s: %w", item.Prediction.ID, err)
		}
		entries = append(entries, ranking.Entry{
			UserID:          item.Prediction.UserID,
			MatchExternalID: item.Match.ExternalID,
			KickoffAt:       item.Match.KickoffAt,
			Record:          record,
		})
	}
	return entries, nil
}
