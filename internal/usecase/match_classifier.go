package usecase

import (
	"sort"
	"time"

	"github.com/riskibarqy/prode/internal/domain/match"
)

const (
	DefaultUpcomingWindow = 5

	placeholderHour = 21
	// The three soonest fixtures usually carry a confirmed time.
	placeholderConfirmedRanks = 3
	placeholderHorizon        = 7 * 24 * time.Hour
)

// MergeMatchBuckets merges buckets by external id. Buckets are visited in the
// given order and the last writer wins; output keeps first-seen order.
func MergeMatchBuckets(buckets ...[]match.Match) []match.Match {
	index := make(map[string]int)
	out := make([]match.Match, 0)
	for _, bucket := range buckets {
		for _, item := range bucket {
			if item.ExternalID == "" {
				continue
			}
			if pos, ok := index[item.ExternalID]; ok {
				out[pos] = item
				continue
			}
			index[item.ExternalID] = len(out)
			out = append(out, item)
		}
	}
	return out
}

// Classification is the outcome of one pass over the merged matches.
type Classification struct {
	// Played is most recent first.
	Played []match.Match
	// Upcoming is soonest first, after the placeholder rule.
	Upcoming []match.Match
	// Window is the near-term schedule proposed for persistence.
	Window  []match.Match
	Dropped int
}

// ClassifyMatches drops cancelled matches, partitions the rest and applies the
// 21:00 placeholder rule to the sorted upcoming list.
func ClassifyMatches(merged []match.Match, now time.Time, window int) Classification {
	if window <= 0 {
		window = DefaultUpcomingWindow
	}

	out := Classification{
		Played:   make([]match.Match, 0, len(merged)),
		Upcoming: make([]match.Match, 0, len(merged)),
	}
	for _, item := range merged {
		switch {
		case item.Cancelled:
			out.Dropped++
		case item.Finished:
			out.Played = append(out.Played, item)
		default:
			out.Upcoming = append(out.Upcoming, item)
		}
	}

	sort.SliceStable(out.Played, func(i, j int) bool {
		a, b := out.Played[i], out.Played[j]
		if !a.KickoffAt.Equal(b.KickoffAt) {
			return a.KickoffAt.After(b.KickoffAt)
		}
		return a.ExternalID < b.ExternalID
	})
	sort.SliceStable(out.Upcoming, func(i, j int) bool {
		a, b := out.Upcoming[i], out.Upcoming[j]
		if !a.KickoffAt.Equal(b.KickoffAt) {
			return a.KickoffAt.Before(b.KickoffAt)
		}
		return a.ExternalID < b.ExternalID
	})

	for i := range out.Upcoming {
		item := &out.Upcoming[i]
		if item.TimeUndefined || !isPlaceholderKickoff(item.KickoffAt) {
			continue
		}
		if i >= placeholderConfirmedRanks || item.KickoffAt.Sub(now) > placeholderHorizon {
			item.MarkTimeUndefined()
		}
	}

	if len(out.Upcoming) < window {
		window = len(out.Upcoming)
	}
	out.Window = append([]match.Match(nil), out.Upcoming[:window]...)
	return out
}

func isPlaceholderKickoff(t time.Time) bool {
	hour, minute, second := t.Clock()
	return hour == placeholderHour && minute == 0 && second == 0 && t.Nanosecond() == 0
}

// SelectBackfill returns played matches whose stored row is missing, not yet
// finished, or lacks a result the incoming match carries.
func SelectBackfill(played []match.Match, stored map[string]match.Match) []match.Match {
	out := make([]match.Match, 0, len(played))
	for _, item := range played {
		current, ok := stored[item.ExternalID]
		switch {
		case !ok, !current.Finished:
			out = append(out, item)
		case !current.HasResult() && item.HasResult():
			out = append(out, item)
		}
	}
	return out
}
