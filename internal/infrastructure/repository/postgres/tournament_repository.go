package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/prode/internal/domain/tournament"
	qb "github.com/riskibarqy/prode/internal/platform/querybuilder"
)

type TournamentRepository struct {
	db *sqlx.DB
}

func NewTournamentRepository(db *sqlx.DB) *TournamentRepository {
	return &TournamentRepository{db: db}
}

func (r *TournamentRepository) Ensure(ctx context.Context, key tournament.Key) (bool, error) {
	query, args, err := qb.InsertModel("tournament_editions", editionInsertModel{
		Tournament: key.Name,
		SeasonYear: key.Year,
	}, "ON CONFLICT (tournament, season_year) DO NOTHING")
	if err != nil {
		return false, fmt.Errorf("build ensure edition query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("ensure edition %s: %w", key, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected ensure edition: %w", err)
	}
	return affected > 0, nil
}

func (r *TournamentRepository) Get(ctx context.Context, key tournament.Key) (tournament.Edition, bool, error) {
	query, args, err := qb.Select("*").From("tournament_editions").
		Where(
			qb.Eq("tournament", key.Name),
			qb.Eq("season_year", key.Year),
		).
		ToSQL()
	if err != nil {
		return tournament.Edition{}, false, fmt.Errorf("build get edition query: %w", err)
	}

	var row editionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return tournament.Edition{}, false, nil
		}
		return tournament.Edition{}, false, fmt.Errorf("get edition: %w", err)
	}
	return editionFromRow(row), true, nil
}

// MarkFinished only touches unfinished rows, so a repeat call affects nothing.
func (r *TournamentRepository) MarkFinished(ctx context.Context, key tournament.Key, at time.Time) (bool, error) {
	query, args, err := qb.Update("tournament_editions").
		Set("finished", true).
		Set("finished_at", at).
		Where(
			qb.Eq("tournament", key.Name),
			qb.Eq("season_year", key.Year),
			qb.Eq("finished", false),
		).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build mark edition finished query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("mark edition %s finished: %w", key, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected mark edition finished: %w", err)
	}
	return affected > 0, nil
}

func (r *TournamentRepository) List(ctx context.Context) ([]tournament.Edition, error) {
	query, args, err := qb.Select("*").From("tournament_editions").
		OrderBy("season_year", "tournament").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list editions query: %w", err)
	}

	var rows []editionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list editions: %w", err)
	}

	out := make([]tournament.Edition, 0, len(rows))
	for _, row := range rows {
		out = append(out, editionFromRow(row))
	}
	return out, nil
}

// AwardChampions never overwrites an existing trophy.
func (r *TournamentRepository) AwardChampions(ctx context.Context, champions []tournament.Champion) error {
	if len(champions) == 0 {
		return nil
	}

	models := make([]championInsertModel, 0, len(champions))
	for _, item := range champions {
		models = append(models, championInsertModel{
			Tournament: item.Edition.Name,
			SeasonYear: item.Edition.Year,
			UserID:     item.UserID,
			Points:     item.Points,
			AwardedAt:  item.AwardedAt,
		})
	}

	query, args, err := qb.InsertModels("edition_champions", models, "ON CONFLICT (tournament, season_year, user_id) DO NOTHING")
	if err != nil {
		return fmt.Errorf("build award champions query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("award champions: %w", err)
	}
	return nil
}

func (r *TournamentRepository) ListChampions(ctx context.Context, filter tournament.ChampionQuery) ([]tournament.Champion, error) {
	conditions := make([]qb.Condition, 0, 2)
	if filter.Edition.Name != "" {
		conditions = append(conditions,
			qb.Eq("tournament", filter.Edition.Name),
			qb.Eq("season_year", filter.Edition.Year),
		)
	} else if filter.Year != 0 {
		conditions = append(conditions, qb.Eq("season_year", filter.Year))
	}

	query, args, err := qb.Select("*").From("edition_champions").
		Where(conditions...).
		OrderBy("season_year", "tournament", "user_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list champions query: %w", err)
	}

	var rows []championTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list champions: %w", err)
	}

	out := make([]tournament.Champion, 0, len(rows))
	for _, row := range rows {
		out = append(out, tournament.Champion{
			Edition:   tournament.Key{Name: row.Tournament, Year: row.SeasonYear},
			UserID:    row.UserID,
			Points:    row.Points,
			AwardedAt: row.AwardedAt,
		})
	}
	return out, nil
}

func editionFromRow(row editionTableModel) tournament.Edition {
	return tournament.Edition{
		Key:        tournament.Key{Name: row.Tournament, Year: row.SeasonYear},
		Finished:   row.Finished,
		FinishedAt: nullTimeToPtr(row.FinishedAt),
		CreatedAt:  row.CreatedAt,
	}
}
