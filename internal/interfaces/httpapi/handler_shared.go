package httpapi

import (
	"time"

	"github.com/riskibarqy/prode/internal/domain/match"
	"github.com/riskibarqy/prode/internal/domain/ranking"
	"github.com/riskibarqy/prode/internal/domain/scoring"
	"github.com/riskibarqy/prode/internal/domain/tournament"
	"github.com/riskibarqy/prode/internal/usecase"
)

const kickoffDateLayout = "2006-01-02"

type submitPredictionRequest struct {
	GoalsClub     *int `json:"goals_club" validate:"required,gte=0,lte=99"`
	GoalsOpponent *int `json:"goals_opponent" validate:"required,gte=0,lte=99"`
}

type finishEditionRequest struct {
	Tournament string `json:"tournament" validate:"required,max=120"`
	Year       int    `json:"year" validate:"required,gt=0,lte=9999"`
}

type matchDTO struct {
	ID            string `json:"id"`
	Opponent      string `json:"opponent"`
	Tournament    string `json:"tournament"`
	SeasonYear    int    `json:"season_year"`
	KickoffDate   string `json:"kickoff_date"`
	KickoffAt     string `json:"kickoff_at,omitempty"`
	TimeUndefined bool   `json:"time_undefined"`
	Finished      bool   `json:"finished"`
	GoalsClub     *int   `json:"goals_club"`
	GoalsOpponent *int   `json:"goals_opponent"`
}

type predictionDTO struct {
	ID                string          `json:"id"`
	MatchID           string          `json:"match_id"`
	GoalsClub         int             `json:"goals_club"`
	GoalsOpponent     int             `json:"goals_opponent"`
	SubmittedAt       string          `json:"submitted_at"`
	CreatedAt         string          `json:"created_at"`
	Scorable          bool            `json:"scorable"`
	Score             *scoring.Record `json:"score,omitempty"`
	AnticipationHours *float64        `json:"anticipation_hours,omitempty"`
	Match             *matchDTO       `json:"match,omitempty"`
}

type rankingRowDTO struct {
	Rank      int     `json:"rank"`
	UserID    string  `json:"user_id"`
	Value     float64 `json:"value"`
	Samples   int     `json:"samples"`
	Band      string  `json:"band,omitempty"`
	BandLabel string  `json:"band_label,omitempty"`
}

type rankingBoardDTO struct {
	Kind       string          `json:"kind"`
	Tournament string          `json:"tournament,omitempty"`
	Year       int             `json:"year,omitempty"`
	Rows       []rankingRowDTO `json:"rows"`
}

type editionDTO struct {
	Tournament string `json:"tournament"`
	Year       int    `json:"year"`
	Finished   bool   `json:"finished"`
	FinishedAt string `json:"finished_at,omitempty"`
}

type championDTO struct {
	Tournament string `json:"tournament"`
	Year       int    `json:"year"`
	UserID     string `json:"user_id"`
	Points     int    `json:"points"`
	AwardedAt  string `json:"awarded_at"`
}

type syncStatusDTO struct {
	State      string              `json:"state"`
	LastReport *usecase.SyncReport `json:"last_report,omitempty"`
}

type finishEditionDTO struct {
	Finished  []editionKeyDTO `json:"finished"`
	Champions int             `json:"champions"`
}

type editionKeyDTO struct {
	Tournament string `json:"tournament"`
	Year       int    `json:"year"`
}

func formatTime(v time.Time) string {
	if v.IsZero() {
		return ""
	}
	return v.Format(time.RFC3339)
}

func matchToDTO(v match.Match) matchDTO {
	out := matchDTO{
		ID:            v.ExternalID,
		Opponent:      v.Opponent,
		Tournament:    v.Tournament,
		SeasonYear:    v.SeasonYear,
		KickoffDate:   v.KickoffAt.Format(kickoffDateLayout),
		TimeUndefined: v.TimeUndefined,
		Finished:      v.Finished,
		GoalsClub:     v.GoalsClub,
		GoalsOpponent: v.GoalsOpponent,
	}
	if v.KickoffKnown() {
		out.KickoffAt = formatTime(v.KickoffAt)
	}
	return out
}

func scoredPredictionToDTO(v usecase.ScoredPrediction, withMatch bool) predictionDTO {
	out := predictionDTO{
		ID:            v.Prediction.ID,
		MatchID:       v.Prediction.MatchExternalID,
		GoalsClub:     v.Prediction.GoalsClub,
		GoalsOpponent: v.Prediction.GoalsOpponent,
		SubmittedAt:   formatTime(v.Prediction.SubmittedAt),
		CreatedAt:     formatTime(v.Prediction.CreatedAt),
		Scorable:      v.Score != nil,
		Score:         v.Score,
	}
	if lead, ok := v.Prediction.Anticipation(v.Match); ok {
		hours := lead.Hours()
		out.AnticipationHours = &hours
	}
	if withMatch {
		m := matchToDTO(v.Match)
		out.Match = &m
	}
	return out
}

func boardToDTO(v ranking.Board) rankingBoardDTO {
	out := rankingBoardDTO{
		Kind:       string(v.Kind),
		Tournament: v.Filter.Edition.Name,
		Year:       v.Filter.Year,
		Rows:       make([]rankingRowDTO, 0, len(v.Rows)),
	}
	if !v.Filter.Edition.IsZero() {
		out.Year = v.Filter.Edition.Year
	}
	for _, row := range v.Rows {
		out.Rows = append(out.Rows, rankingRowDTO{
			Rank:      row.Rank,
			UserID:    row.UserID,
			Value:     row.Value,
			Samples:   row.Samples,
			Band:      string(row.Band),
			BandLabel: row.Band.Label(),
		})
	}
	return out
}

func editionToDTO(v tournament.Edition) editionDTO {
	out := editionDTO{Tournament: v.Name, Year: v.Year, Finished: v.Finished}
	if v.FinishedAt != nil {
		out.FinishedAt = formatTime(*v.FinishedAt)
	}
	return out
}

func championToDTO(v tournament.Champion) championDTO {
	return championDTO{
		Tournament: v.Edition.Name,
		Year:       v.Edition.Year,
		UserID:     v.UserID,
		Points:     v.Points,
		AwardedAt:  formatTime(v.AwardedAt),
	}
}
