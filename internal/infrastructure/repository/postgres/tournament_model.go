package postgres

import (
	"database/sql"
	"time"
)

type editionTableModel struct {
	Tournament string       `db:"tournament"`
	SeasonYear int          `db:"season_year"`
	Finished   bool         `db:"finished"`
	FinishedAt sql.NullTime `db:"finished_at"`
	CreatedAt  time.Time    `db:"created_at"`
}

type editionInsertModel struct {
	Tournament string `db:"tournament"`
	SeasonYear int    `db:"season_year"`
}

type championTableModel struct {
	Tournament string    `db:"tournament"`
	SeasonYear int       `db:"season_year"`
	UserID     string    `db:"user_id"`
	Points     int       `db:"points"`
	AwardedAt  time.Time `db:"awarded_at"`
}

type championInsertModel struct {
	Tournament string    `db:"tournament"`
	SeasonYear int       `db:"season_year"`
	UserID     string    `db:"user_id"`
	Points     int       `db:"points"`
	AwardedAt  time.Time `db:"awarded_at"`
}
