package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/prode/internal/domain/match"
	qb "github.com/riskibarqy/prode/internal/platform/querybuilder"
)

// matchUpsertSuffix applies the storage merge rule: finished never reverts
// and a stored result survives an incoming row without one.
const matchUpsertSuffix = `ON CONFLICT (external_id)
DO UPDATE SET
    opponent = EXCLUDED.opponent,
    tournament = EXCLUDED.tournament,
    season_year = EXCLUDED.season_year,
    kickoff_at = EXCLUDED.kickoff_at,
    time_undefined = EXCLUDED.time_undefined,
    cancelled = EXCLUDED.cancelled,
    finished = matches.finished OR EXCLUDED.finished,
    goals_club = CASE
        WHEN EXCLUDED.goals_club IS NOT NULL AND EXCLUDED.goals_opponent IS NOT NULL THEN EXCLUDED.goals_club
        ELSE matches.goals_club
    END,
    goals_opponent = CASE
        WHEN EXCLUDED.goals_club IS NOT NULL AND EXCLUDED.goals_opponent IS NOT NULL THEN EXCLUDED.goals_opponent
        ELSE matches.goals_opponent
    END,
    updated_at = NOW()`

type MatchRepository struct {
	db  *sqlx.DB
	loc *time.Location
}

// NewMatchRepository reads kickoffs back in loc, the club's local zone.
func NewMatchRepository(db *sqlx.DB, loc *time.Location) *MatchRepository {
	return &MatchRepository{db: db, loc: loc}
}

func (r *MatchRepository) GetByExternalID(ctx context.Context, externalID string) (match.Match, bool, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(qb.Eq("external_id", externalID)).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build get match by external id query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("get match by external id: %w", err)
	}

	return matchFromRow(row, r.loc), true, nil
}

func (r *MatchRepository) ListByExternalIDs(ctx context.Context, externalIDs []string) ([]match.Match, error) {
	if len(externalIDs) == 0 {
		return []match.Match{}, nil
	}

	query, args, err := qb.Select("*").From("matches").
		Where(qb.InStrings("external_id", externalIDs)).
		OrderBy("kickoff_at", "external_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list matches by external ids query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list matches by external ids: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, matchFromRow(row, r.loc))
	}
	return out, nil
}

func (r *MatchRepository) List(ctx context.Context, filter match.Query) ([]match.Match, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(matchConditions("", filter)...).
		OrderBy("kickoff_at", "external_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list matches query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, matchFromRow(row, r.loc))
	}
	return out, nil
}

func (r *MatchRepository) Upsert(ctx context.Context, item match.Match) error {
	return r.UpsertMany(ctx, []match.Match{item})
}

// UpsertMany writes all rows in one statement, so the batch is atomic.
func (r *MatchRepository) UpsertMany(ctx context.Context, items []match.Match) error {
	if len(items) == 0 {
		return nil
	}

	query, args, err := buildMatchUpsertQuery(items)
	if err != nil {
		return fmt.Errorf("build upsert matches query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert matches: %w", err)
	}
	return nil
}

// buildMatchUpsertQuery keeps the last row per external id; postgres rejects
// a statement that touches the same conflict target twice.
func buildMatchUpsertQuery(items []match.Match) (string, []any, error) {
	position := make(map[string]int, len(items))
	models := make([]matchInsertModel, 0, len(items))
	for _, item := range items {
		model := matchInsertModel{
			ExternalID:    item.ExternalID,
			Opponent:      item.Opponent,
			Tournament:    item.Tournament,
			SeasonYear:    item.SeasonYear,
			KickoffAt:     item.KickoffAt,
			TimeUndefined: item.TimeUndefined,
			Finished:      item.Finished,
			Cancelled:     item.Cancelled,
			GoalsClub:     nullInt64FromPtr(item.GoalsClub),
			GoalsOpponent: nullInt64FromPtr(item.GoalsOpponent),
		}
		if idx, ok := position[item.ExternalID]; ok {
			models[idx] = model
			continue
		}
		position[item.ExternalID] = len(models)
		models = append(models, model)
	}

	return qb.InsertModels("matches", models, matchUpsertSuffix)
}

// matchConditions builds the match.Query filter; prefix qualifies columns in joins.
func matchConditions(prefix string, filter match.Query) []qb.Condition {
	conditions := make([]qb.Condition, 0, 4)
	switch filter.Status {
	case match.StatusPlayed:
		conditions = append(conditions, qb.Eq(prefix+"finished", true), qb.Eq(prefix+"cancelled", false))
	case match.StatusUpcoming:
		conditions = append(conditions, qb.Eq(prefix+"finished", false), qb.Eq(prefix+"cancelled", false))
	}
	if filter.Tournament != "" {
		conditions = append(conditions, qb.Eq(prefix+"tournament", filter.Tournament))
	}
	if filter.Year != 0 {
		conditions = append(conditions, qb.Eq(prefix+"season_year", filter.Year))
	}
	return conditions
}

func matchFromRow(row matchTableModel, loc *time.Location) match.Match {
	return match.Match{
		ExternalID:    row.ExternalID,
		Opponent:      row.Opponent,
		Tournament:    row.Tournament,
		SeasonYear:    row.SeasonYear,
		KickoffAt:     inZone(row.KickoffAt, loc),
		TimeUndefined: row.TimeUndefined,
		Finished:      row.Finished,
		Cancelled:     row.Cancelled,
		GoalsClub:     nullInt64ToPtr(row.GoalsClub),
		GoalsOpponent: nullInt64ToPtr(row.GoalsOpponent),
		UpdatedAt:     row.UpdatedAt,
	}
}
