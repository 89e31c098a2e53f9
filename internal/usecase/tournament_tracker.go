package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/prode/internal/domain/match"
	"github.com/riskibarqy/prode/internal/domain/tournament"
	"github.com/riskibarqy/prode/internal/platform/logging"
)

// ChampionAwarder persists the trophy holders of an edition that just finished.
type ChampionAwarder interface {
	AwardEditionChampions(ctx context.Context, key tournament.Key, at time.Time) ([]tournament.Champion, error)
}

type TournamentTracker struct {
	repo    tournament.Repository
	awarder ChampionAwarder
	clock   clockwork.Clock
	logger  *logging.Logger
}

func NewTournamentTracker(repo tournament.Repository, awarder ChampionAwarder, clock clockwork.Clock, logger *logging.Logger) *TournamentTracker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &TournamentTracker{
		repo:    repo,
		awarder: awarder,
		clock:   clock,
		logger:  logger.Named("tournament_tracker"),
	}
}

// FinalizeResult lists editions that moved to finished in one call.
type FinalizeResult struct {
	Finished  []tournament.Key
	Champions int
}

// FinishedEditionKeys returns the editions seen in played but absent from
// upcoming, ordered by year and name.
func FinishedEditionKeys(played, upcoming []match.Match) []tournament.Key {
	pending := make(map[tournament.Key]struct{}, len(upcoming))
	for _, item := range upcoming {
		pending[editionKey(item)] = struct{}{}
	}

	seen := make(map[tournament.Key]struct{})
	out := make([]tournament.Key, 0)
	for _, item := range played {
		key := editionKey(item)
		if _, ok := pending[key]; ok {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	tournament.SortKeys(out)
	return out
}

// EnsureEditions creates the editions referenced by matches and returns how
// many were new.
func (t *TournamentTracker) EnsureEditions(ctx context.Context, matches []match.Match) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentTracker.EnsureEditions")
	defer span.End()

	seen := make(map[tournament.Key]struct{})
	created := 0
	for _, item := range matches {
		key := editionKey(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		isNew, err := t.repo.Ensure(ctx, key)
		if err != nil {
			return created, fmt.Errorf("ensure edition %s: %w", key, err)
		}
		if isNew {
			created++
		}
	}
	return created, nil
}

// Finalize marks every inferred-finished edition that already exists in
// storage. Editions already finished are left untouched.
func (t *TournamentTracker) Finalize(ctx context.Context, played, upcoming []match.Match) (FinalizeResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentTracker.Finalize")
	defer span.End()

	result := FinalizeResult{}
	for _, key := range FinishedEditionKeys(played, upcoming) {
		edition, exists, err := t.repo.Get(ctx, key)
		if err != nil {
			return result, fmt.Errorf("get edition %s: %w", key, err)
		}
		if !exists || edition.Finished {
			continue
		}

		champions, changed, err := t.finish(ctx, key)
		if err != nil {
			return result, err
		}
		if changed {
			result.Finished = append(result.Finished, key)
			result.Champions += champions
		}
	}
	return result, nil
}

// FinishEdition is the manual override for an edition the heuristic missed.
func (t *TournamentTracker) FinishEdition(ctx context.Context, key tournament.Key) (FinalizeResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentTracker.FinishEdition")
	defer span.End()

	key.Name = strings.TrimSpace(key.Name)
	if key.Name == "" || key.Year <= 0 {
		return FinalizeResult{}, fmt.Errorf("%w: tournament and year are required", ErrInvalidInput)
	}

	edition, exists, err := t.repo.Get(ctx, key)
	if err != nil {
		return FinalizeResult{}, fmt.Errorf("get edition %s: %w", key, err)
	}
	if !exists {
		return FinalizeResult{}, fmt.Errorf("%w: edition %s", ErrNotFound, key)
	}
	if edition.Finished {
		return FinalizeResult{}, nil
	}

	champions, changed, err := t.finish(ctx, key)
	if err != nil {
		return FinalizeResult{}, err
	}
	if !changed {
		return FinalizeResult{}, nil
	}
	return FinalizeResult{Finished: []tournament.Key{key}, Champions: champions}, nil
}

func (t *TournamentTracker) ListEditions(ctx context.Context) ([]tournament.Edition, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentTracker.ListEditions")
	defer span.End()

	items, err := t.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list editions: %w", err)
	}
	return items, nil
}

func (t *TournamentTracker) ListChampions(ctx context.Context, query tournament.ChampionQuery) ([]tournament.Champion, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentTracker.ListChampions")
	defer span.End()

	items, err := t.repo.ListChampions(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list champions: %w", err)
	}
	return items, nil
}

// finish awards champions before recording the transition, so a failed award
// leaves the edition unfinished and the next pass retries it. Awards are
// idempotent per (edition, user).
func (t *TournamentTracker) finish(ctx context.Context, key tournament.Key) (int, bool, error) {
	at := t.clock.Now().UTC()

	var champions []tournament.Champion
	if t.awarder != nil {
		awarded, err := t.awarder.AwardEditionChampions(ctx, key, at)
		if err != nil {
			return 0, false, fmt.Errorf("award champions %s: %w", key, err)
		}
		champions = awarded
	}

	changed, err := t.repo.MarkFinished(ctx, key, at)
	if err != nil {
		return 0, false, fmt.Errorf("mark edition %s finished: %w", key, err)
	}
	if !changed {
		return 0, false, nil
	}
	t.logger.InfoContext(ctx, "tournament edition finished", "tournament", key.Name, "year", key.Year)
	return len(champions), true, nil
}

func editionKey(item match.Match) tournament.Key {
	return tournament.Key{Name: item.Tournament, Year: item.SeasonYear}
}
