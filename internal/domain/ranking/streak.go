package ranking

import "sort"

// Streaks walks chronological totals and returns the run of non-zero totals
// ending at the last one and the longest such run.
func Streaks(totals []int) (current, record int) {
	for _, total := range totals {
		if total > 0 {
			current++
			if current > record {
				record = current
			}
			continue
		}
		current = 0
	}
	return current, record
}

func CurrentStreaks(entries []Entry) []Row {
	return streakRows(entries, func(current, _ int) int { return current })
}

func RecordStreaks(entries []Entry) []Row {
	return streakRows(entries, func(_, record int) int { return record })
}

func streakRows(entries []Entry, pick func(current, record int) int) []Row {
	byUser := make(map[string][]Entry)
	for _, e := range entries {
		if e.UserID == "" {
			continue
		}
		byUser[e.UserID] = append(byUser[e.UserID], e)
	}

	rows := make([]Row, 0, len(byUser))
	for userID, items := range byUser {
		sortChronological(items)
		totals := make([]int, 0, len(items))
		for _, e := range items {
			totals = append(totals, e.Record.Total)
		}
		current, record := Streaks(totals)
		rows = append(rows, Row{
			UserID:  userID,
			Value:   float64(pick(current, record)),
			Samples: len(items),
		})
	}
	return rank(rows, descending)
}

func sortChronological(items []Entry) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].KickoffAt.Equal(items[j].KickoffAt) {
			return items[i].KickoffAt.Before(items[j].KickoffAt)
		}
		return items[i].MatchExternalID < items[j].MatchExternalID
	})
}
