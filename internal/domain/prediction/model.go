package prediction

import (
	"time"

	"github.com/riskibarqy/prode/internal/domain/match"
)

// Prediction is a user's scoreline guess for one match. At most one per (user, match).
type Prediction struct {
	ID              string
	UserID          string
	MatchExternalID string
	GoalsClub       int
	GoalsOpponent   int
	SubmittedAt     time.Time
	CreatedAt       time.Time
}

// Anticipation is how long before kickoff the prediction was last submitted.
// ok is false when the kickoff time is not known.
func (p Prediction) Anticipation(m match.Match) (time.Duration, bool) {
	if !m.KickoffKnown() || p.SubmittedAt.IsZero() {
		return 0, false
	}
	lead := m.KickoffAt.Sub(p.SubmittedAt)
	if lead < 0 {
		lead = 0
	}
	return lead, true
}

// WithMatch pairs a prediction with the match it targets.
type WithMatch struct {
	Prediction Prediction
	Match      match.Match
}
