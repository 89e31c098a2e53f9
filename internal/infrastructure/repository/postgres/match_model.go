package postgres

import (
	"database/sql"
	"time"
)

type matchTableModel struct {
	ID            int64         `db:"id"`
	ExternalID    string        `db:"external_id"`
	Opponent      string        `db:"opponent"`
	Tournament    string        `db:"tournament"`
	SeasonYear    int           `db:"season_year"`
	KickoffAt     time.Time     `db:"kickoff_at"`
	TimeUndefined bool          `db:"time_undefined"`
	Finished      bool          `db:"finished"`
	Cancelled     bool          `db:"cancelled"`
	GoalsClub     sql.NullInt64 `db:"goals_club"`
	GoalsOpponent sql.NullInt64 `db:"goals_opponent"`
	CreatedAt     time.Time     `db:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at"`
}

type matchInsertModel struct {
	ExternalID    string        `db:"external_id"`
	Opponent      string        `db:"opponent"`
	Tournament    string        `db:"tournament"`
	SeasonYear    int           `db:"season_year"`
	KickoffAt     time.Time     `db:"kickoff_at"`
	TimeUndefined bool          `db:"time_undefined"`
	Finished      bool          `db:"finished"`
	Cancelled     bool          `db:"cancelled"`
	GoalsClub     sql.NullInt64 `db:"goals_club"`
	GoalsOpponent sql.NullInt64 `db:"goals_opponent"`
}
