package scoring

import (
	"fmt"

	"github.com/riskibarqy/prode/internal/domain/match"
	"github.com/riskibarqy/prode/internal/domain/prediction"
)

// Score derives the record for p against m. It returns ErrNotScorable unless m
// is finished with both goal counts known.
func Score(table Table, p prediction.Prediction, m match.Match) (Record, error) {
	if !m.Finished || !m.HasResult() {
		return Record{}, fmt.Errorf("%w: match=%s", ErrNotScorable, m.ExternalID)
	}

	predicted := Scoreline{Club: p.GoalsClub, Opponent: p.GoalsOpponent}
	actual := Scoreline{Club: *m.GoalsClub, Opponent: *m.GoalsOpponent}
	return ScoreLines(table, predicted, actual), nil
}

// ScoreLines scores two known scorelines.
func ScoreLines(table Table, predicted, actual Scoreline) Record {
	rec := Record{
		Predicted:     predicted,
		Actual:        actual,
		AbsoluteError: absInt(predicted.Club-actual.Club) + absInt(predicted.Opponent-actual.Opponent),
	}
	if predicted.Outcome() == actual.Outcome() {
		rec.OutcomePoints = table.Outcome
	}
	if predicted.Club == actual.Club {
		rec.ClubPoints = table.ClubGoals
	}
	if predicted.Opponent == actual.Opponent {
		rec.OpponentPoints = table.OpponentGoals
	}
	rec.Total = clamp(rec.OutcomePoints+rec.ClubPoints+rec.OpponentPoints, 0, MaxTotal)
	return rec
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
