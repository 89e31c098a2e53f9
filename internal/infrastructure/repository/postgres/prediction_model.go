package postgres

import (
	"database/sql"
	"time"
)

type predictionInsertModel struct {
	PublicID        string    `db:"public_id"`
	UserID          string    `db:"user_id"`
	MatchExternalID string    `db:"match_external_id"`
	GoalsClub       int       `db:"goals_club"`
	GoalsOpponent   int       `db:"goals_opponent"`
	SubmittedAt     time.Time `db:"submitted_at"`
	CreatedAt       time.Time `db:"created_at"`
}

type predictionTableModel struct {
	ID              int64     `db:"id"`
	PublicID        string    `db:"public_id"`
	UserID          string    `db:"user_id"`
	MatchExternalID string    `db:"match_external_id"`
	GoalsClub       int       `db:"goals_club"`
	GoalsOpponent   int       `db:"goals_opponent"`
	SubmittedAt     time.Time `db:"submitted_at"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// predictionMatchRow is one row of the predictions/matches join.
type predictionMatchRow struct {
	PublicID           string        `db:"public_id"`
	UserID             string        `db:"user_id"`
	MatchExternalID    string        `db:"match_external_id"`
	GoalsClub          int           `db:"goals_club"`
	GoalsOpponent      int           `db:"goals_opponent"`
	SubmittedAt        time.Time     `db:"submitted_at"`
	CreatedAt          time.Time     `db:"created_at"`
	Opponent           string        `db:"m_opponent"`
	Tournament         string        `db:"m_tournament"`
	SeasonYear         int           `db:"m_season_year"`
	KickoffAt          time.Time     `db:"m_kickoff_at"`
	TimeUndefined      bool          `db:"m_time_undefined"`
	Finished           bool          `db:"m_finished"`
	Cancelled          bool          `db:"m_cancelled"`
	MatchGoalsClub     sql.NullInt64 `db:"m_goals_club"`
	MatchGoalsOpponent sql.NullInt64 `db:"m_goals_opponent"`
	MatchUpdatedAt     time.Time     `db:"m_updated_at"`
}
