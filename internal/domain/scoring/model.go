package scoring

import (
	"errors"
	"fmt"
)

// MaxTotal is the fixed cap on points per prediction.
const MaxTotal = 9

var (
	ErrNotScorable  = errors.New("match is not scorable yet")
	ErrInvalidTable = errors.New("invalid scoring table")
)

// Outcome is the result category from the club's point of view.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeDraw Outcome = "draw"
	OutcomeLoss Outcome = "loss"
)

// Scoreline is a (club, opponent) goal pair.
type Scoreline struct {
	Club     int `json:"club"`
	Opponent int `json:"opponent"`
}

func (s Scoreline) Outcome() Outcome {
	switch {
	case s.Club > s.Opponent:
		return OutcomeWin
	case s.Club < s.Opponent:
		return OutcomeLoss
	default:
		return OutcomeDraw
	}
}

// Margin is club goals minus opponent goals.
func (s Scoreline) Margin() int {
	return s.Club - s.Opponent
}

// Table holds the full-marks weight of each component.
type Table struct {
	Outcome       int `yaml:"outcome"`
	ClubGoals     int `yaml:"club_goals"`
	OpponentGoals int `yaml:"opponent_goals"`
}

func DefaultTable() Table {
	return Table{Outcome: 5, ClubGoals: 2, OpponentGoals: 2}
}

func (t Table) Validate() error {
	if t.Outcome < 0 || t.ClubGoals < 0 || t.OpponentGoals < 0 {
		return fmt.Errorf("%w: weights must be >= 0, got %+v", ErrInvalidTable, t)
	}
	if sum := t.Outcome + t.ClubGoals + t.OpponentGoals; sum != MaxTotal {
		return fmt.Errorf("%w: weights sum to %d, want %d", ErrInvalidTable, sum, MaxTotal)
	}
	return nil
}

// Record is the derived score of one prediction against one finished match.
type Record struct {
	Predicted      Scoreline `json:"predicted"`
	Actual         Scoreline `json:"actual"`
	OutcomePoints  int       `json:"outcome_points"`
	ClubPoints     int       `json:"club_goals_points"`
	OpponentPoints int       `json:"opponent_goals_points"`
	Total          int       `json:"total"`
	AbsoluteError  int       `json:"absolute_error"`
}

// Exact reports a perfect scoreline.
func (r Record) Exact() bool {
	return r.AbsoluteError == 0
}
