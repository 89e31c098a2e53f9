package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/prode/internal/domain/match"
	"github.com/riskibarqy/prode/internal/domain/prediction"
	qb "github.com/riskibarqy/prode/internal/platform/querybuilder"
)

type PredictionRepository struct {
	db  *sqlx.DB
	loc *time.Location
}

func NewPredictionRepository(db *sqlx.DB, loc *time.Location) *PredictionRepository {
	return &PredictionRepository{db: db, loc: loc}
}

func (r *PredictionRepository) Get(ctx context.Context, userID, matchExternalID string) (prediction.Prediction, bool, error) {
	query, args, err := qb.Select("*").From("predictions").
		Where(
			qb.Eq("user_id", userID),
			qb.Eq("match_external_id", matchExternalID),
		).
		ToSQL()
	if err != nil {
		return prediction.Prediction{}, false, fmt.Errorf("build get prediction query: %w", err)
	}

	var row predictionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return prediction.Prediction{}, false, nil
		}
		return prediction.Prediction{}, false, fmt.Errorf("get prediction: %w", err)
	}

	return prediction.Prediction{
		ID:              row.PublicID,
		UserID:          row.UserID,
		MatchExternalID: row.MatchExternalID,
		GoalsClub:       row.GoalsClub,
		GoalsOpponent:   row.GoalsOpponent,
		SubmittedAt:     row.SubmittedAt,
		CreatedAt:       row.CreatedAt,
	}, true, nil
}

// Upsert keeps public_id and created_at of an existing (user, match) row.
// An existing row whose match has finished is left untouched and the call
// returns prediction.ErrMatchFinished.
func (r *PredictionRepository) Upsert(ctx context.Context, item prediction.Prediction) error {
	insertModel := predictionInsertModel{
		PublicID:        item.ID,
		UserID:          item.UserID,
		MatchExternalID: item.MatchExternalID,
		GoalsClub:       item.GoalsClub,
		GoalsOpponent:   item.GoalsOpponent,
		SubmittedAt:     item.SubmittedAt,
		CreatedAt:       item.CreatedAt,
	}

	query, args, err := buildPredictionUpsertQuery(insertModel)
	if err != nil {
		return fmt.Errorf("build prediction upsert query: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("upsert prediction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("upsert prediction rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", prediction.ErrMatchFinished, item.MatchExternalID)
	}
	return nil
}

func buildPredictionUpsertQuery(model predictionInsertModel) (string, []any, error) {
	return qb.InsertModel("predictions", model, `ON CONFLICT (user_id, match_external_id)
DO UPDATE SET
    goals_club = EXCLUDED.goals_club,
    goals_opponent = EXCLUDED.goals_opponent,
    submitted_at = EXCLUDED.submitted_at,
    updated_at = NOW()
WHERE NOT EXISTS (
    SELECT 1 FROM matches m
    WHERE m.external_id = EXCLUDED.match_external_id AND m.finished
)`)
}

func (r *PredictionRepository) ListWithMatches(ctx context.Context, filter prediction.Query) ([]prediction.WithMatch, error) {
	query, args, err := buildPredictionListQuery(filter)
	if err != nil {
		return nil, fmt.Errorf("build list predictions with matches query: %w", err)
	}

	var rows []predictionMatchRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list predictions with matches: %w", err)
	}

	out := make([]prediction.WithMatch, 0, len(rows))
	for _, row := range rows {
		out = append(out, prediction.WithMatch{
			Prediction: prediction.Prediction{
				ID:              row.PublicID,
				UserID:          row.UserID,
				MatchExternalID: row.MatchExternalID,
				GoalsClub:       row.GoalsClub,
				GoalsOpponent:   row.GoalsOpponent,
				SubmittedAt:     row.SubmittedAt,
				CreatedAt:       row.CreatedAt,
			},
			Match: match.Match{
				ExternalID:    row.MatchExternalID,
				Opponent:      row.Opponent,
				Tournament:    row.Tournament,
				SeasonYear:    row.SeasonYear,
				KickoffAt:     inZone(row.KickoffAt, r.loc),
				TimeUndefined: row.TimeUndefined,
				Finished:      row.Finished,
				Cancelled:     row.Cancelled,
				GoalsClub:     nullInt64ToPtr(row.MatchGoalsClub),
				GoalsOpponent: nullInt64ToPtr(row.MatchGoalsOpponent),
				UpdatedAt:     row.MatchUpdatedAt,
			},
		})
	}
	return out, nil
}

func buildPredictionListQuery(filter prediction.Query) (string, []any, error) {
	matchFilter := match.Query{Tournament: filter.Tournament, Year: filter.Year}
	if filter.FinishedOnly {
		matchFilter.Status = match.StatusPlayed
	}

	conditions := matchConditions("m.", matchFilter)
	if filter.UserID != "" {
		conditions = append(conditions, qb.Eq("p.user_id", filter.UserID))
	}

	return qb.Select(
		"p.public_id",
		"p.user_id",
		"p.match_external_id",
		"p.goals_club",
		"p.goals_opponent",
		"p.submitted_at",
		"p.created_at",
		"m.opponent AS m_opponent",
		"m.tournament AS m_tournament",
		"m.season_year AS m_season_year",
		"m.kickoff_at AS m_kickoff_at",
		"m.time_undefined AS m_time_undefined",
		"m.finished AS m_finished",
		"m.cancelled AS m_cancelled",
		"m.goals_club AS m_goals_club",
		"m.goals_opponent AS m_goals_opponent",
		"m.updated_at AS m_updated_at",
	).From("predictions p").
		Join("JOIN matches m ON m.external_id = p.match_external_id").
		Where(conditions...).
		OrderBy("m.kickoff_at", "m.external_id", "p.user_id").
		ToSQL()
}
