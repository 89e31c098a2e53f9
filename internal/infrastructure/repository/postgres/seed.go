package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/prode/internal/infrastructure/repository/memory"
)

// BootstrapSeed loads the development fixtures into an empty matches table.
func BootstrapSeed(ctx context.Context, db *sqlx.DB, now time.Time, loc *time.Location) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM matches`); err != nil {
		return fmt.Errorf("count matches for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, m := range memory.SeedMatches(now, loc) {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO matches (external_id, opponent, tournament, season_year, kickoff_at, time_undefined, finished, goals_club, goals_opponent)
VALUES (:external_id, :opponent, :tournament, :season_year, :kickoff_at, :time_undefined, :finished, :goals_club, :goals_opponent)
ON CONFLICT (external_id) DO NOTHING`, map[string]any{
			"external_id":    m.ExternalID,
			"opponent":       m.Opponent,
			"tournament":     m.Tournament,
			"season_year":    m.SeasonYear,
			"kickoff_at":     m.KickoffAt,
			"time_undefined": m.TimeUndefined,
			"finished":       m.Finished,
			"goals_club":     nullInt64FromPtr(m.GoalsClub),
			"goals_opponent": nullInt64FromPtr(m.GoalsOpponent),
		})
		if err != nil {
			return fmt.Errorf("bind seed match %s query: %w", m.ExternalID, err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("seed match %s: %w", m.ExternalID, err)
		}

		if _, err := tx.ExecContext(ctx, `
INSERT INTO tournament_editions (tournament, season_year)
VALUES ($1, $2)
ON CONFLICT (tournament, season_year) DO NOTHING`, m.Tournament, m.SeasonYear); err != nil {
			return fmt.Errorf("seed edition %s %d: %w", m.Tournament, m.SeasonYear, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}
	return nil
}
