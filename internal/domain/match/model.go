package match

import (
	"strings"
	"time"
)

// Match is one fixture of the tracked club, seen from the club's side.
type Match struct {
	ExternalID string
	Opponent   string
	Tournament string
	SeasonYear int
	// KickoffAt is wall-clock time in the club's local zone. When TimeUndefined
	// is set only the date is meaningful and the clock reads 00:00:00.
	KickoffAt     time.Time
	TimeUndefined bool
	Finished      bool
	Cancelled     bool
	GoalsClub     *int
	GoalsOpponent *int
	UpdatedAt     time.Time
}

// Status selects a slice of the stored schedule.
type Status string

const (
	StatusAll      Status = ""
	StatusPlayed   Status = "played"
	StatusUpcoming Status = "upcoming"
)

func ParseStatus(v string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(v))) {
	case StatusAll:
		return StatusAll, true
	case StatusPlayed:
		return StatusPlayed, true
	case StatusUpcoming:
		return StatusUpcoming, true
	default:
		return StatusAll, false
	}
}

// HasResult reports whether both goal counts are known.
func (m Match) HasResult() bool {
	return m.GoalsClub != nil && m.GoalsOpponent != nil
}

// Played reports whether the match belongs to the played partition.
func (m Match) Played() bool {
	return m.Finished && !m.Cancelled
}

// KickoffKnown is false for time-undefined matches.
func (m Match) KickoffKnown() bool {
	return !m.TimeUndefined && !m.KickoffAt.IsZero()
}

// MarkTimeUndefined moves the kickoff to local midnight of the same date.
func (m *Match) MarkTimeUndefined() {
	y, mo, d := m.KickoffAt.Date()
	m.KickoffAt = time.Date(y, mo, d, 0, 0, 0, 0, m.KickoffAt.Location())
	m.TimeUndefined = true
}

// Merge folds an incoming observation of the same match into a stored one.
// A finished flag never reverts and known goals are never replaced by unknown ones.
func Merge(stored, incoming Match) Match {
	out := incoming
	out.Finished = stored.Finished || incoming.Finished
	if !incoming.HasResult() && stored.HasResult() {
		out.GoalsClub = stored.GoalsClub
		out.GoalsOpponent = stored.GoalsOpponent
	}
	return out
}

func IntPtr(v int) *int {
	return &v
}
