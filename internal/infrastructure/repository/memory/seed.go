package memory

import (
	"time"

	"github.com/riskibarqy/prode/internal/domain/match"
)

// SeedMatches gives a development instance something to predict on before the
// first sync lands: two played and two upcoming fixtures around now.
func SeedMatches(now time.Time, loc *time.Location) []match.Match {
	if loc == nil {
		loc = time.UTC
	}
	day := func(offset int, hour int) time.Time {
		d := now.In(loc).AddDate(0, 0, offset)
		return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, loc)
	}

	items := []match.Match{
		{ExternalID: "seed-001", Opponent: "Racing Club", Tournament: "Liga Profesional", KickoffAt: day(-14, 19), Finished: true, GoalsClub: match.IntPtr(2), GoalsOpponent: match.IntPtr(1)},
		{ExternalID: "seed-002", Opponent: "Independiente", Tournament: "Liga Profesional", KickoffAt: day(-7, 17), Finished: true, GoalsClub: match.IntPtr(0), GoalsOpponent: match.IntPtr(0)},
		{ExternalID: "seed-003", Opponent: "San Lorenzo", Tournament: "Liga Profesional", KickoffAt: day(3, 21)},
		{ExternalID: "seed-004", Opponent: "Talleres", Tournament: "Copa Argentina", KickoffAt: day(10, 0), TimeUndefined: true},
	}
	for i := range items {
		items[i].SeasonYear = items[i].KickoffAt.Year()
	}
	return items
}
