package ranking

import (
	"fmt"
	"math"
	"sort"

	"github.com/riskibarqy/prode/internal/domain/scoring"
	"github.com/riskibarqy/prode/internal/domain/tournament"
)

type order int

const (
	descending order = iota
	ascending
)

// Compute builds one board. Entries must already be narrowed to the filter;
// champions are narrowed by the caller too.
func Compute(kind Kind, entries []Entry, champions []tournament.Champion) ([]Row, error) {
	switch kind {
	case KindTotalPoints:
		return TotalPoints(entries), nil
	case KindTrophies:
		return Trophies(champions), nil
	case KindOptimism:
		return Optimism(entries), nil
	case KindFalseProphet:
		return FalseProphet(entries), nil
	case KindMufa:
		return Mufa(entries), nil
	case KindBestPredictor:
		return BestPredictor(entries), nil
	case KindCurrentStreak:
		return CurrentStreaks(entries), nil
	case KindRecordStreak:
		return RecordStreaks(entries), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

func TotalPoints(entries []Entry) []Row {
	rows := aggregate(entries, func(acc *accumulator, e Entry) {
		acc.sum += float64(e.Record.Total)
		acc.n++
	}, func(acc accumulator) (float64, bool) {
		return acc.sum, true
	})
	return rank(rows, descending)
}

func Trophies(champions []tournament.Champion) []Row {
	counts := make(map[string]int)
	for _, c := range champions {
		if c.UserID == "" {
			continue
		}
		counts[c.UserID]++
	}
	rows := make([]Row, 0, len(counts))
	for userID, count := range counts {
		rows = append(rows, Row{UserID: userID, Value: float64(count), Samples: count})
	}
	return rank(rows, descending)
}

// Optimism ranks the mean of predicted margin minus actual margin.
func Optimism(entries []Entry) []Row {
	rows := aggregate(entries, func(acc *accumulator, e Entry) {
		acc.sum += float64(e.Record.Predicted.Margin() - e.Record.Actual.Margin())
		acc.n++
	}, func(acc accumulator) (float64, bool) {
		return acc.sum / float64(acc.n), true
	})
	for i := range rows {
		rows[i].Band = OptimismBand(rows[i].Value)
	}
	return rank(rows, descending)
}

func OptimismBand(mean float64) Band {
	switch {
	case mean >= 1.5:
		return BandVeryOptimistic
	case mean >= 0.5:
		return BandOptimistic
	case mean > -0.5:
		return BandRealistic
	case mean > -1.5:
		return BandPessimistic
	default:
		return BandVeryPessimistic
	}
}

// FalseProphet ranks the percentage of predicted club wins that did not end
// in a win. Lower is better, but the board lists the worst offender at rank 1.
// Users who never predicted a win are left out.
func FalseProphet(entries []Entry) []Row {
	rows := aggregate(entries, func(acc *accumulator, e Entry) {
		if e.Record.Predicted.Outcome() != scoring.OutcomeWin {
			return
		}
		acc.n++
		if e.Record.Actual.Outcome() != scoring.OutcomeWin {
			acc.sum++
		}
	}, percentOf)
	return rank(rows, descending)
}

// Mufa ranks the percentage of predicted club losses that were losses.
func Mufa(entries []Entry) []Row {
	rows := aggregate(entries, func(acc *accumulator, e Entry) {
		if e.Record.Predicted.Outcome() != scoring.OutcomeLoss {
			return
		}
		acc.n++
		if e.Record.Actual.Outcome() == scoring.OutcomeLoss {
			acc.sum++
		}
	}, percentOf)
	return rank(rows, descending)
}

// BestPredictor ranks mean absolute error, lowest first.
func BestPredictor(entries []Entry) []Row {
	rows := aggregate(entries, func(acc *accumulator, e Entry) {
		acc.sum += float64(e.Record.AbsoluteError)
		acc.n++
	}, func(acc accumulator) (float64, bool) {
		return acc.sum / float64(acc.n), true
	})
	for i := range rows {
		rows[i].Band = PredictorBand(rows[i].Value)
	}
	return rank(rows, ascending)
}

func PredictorBand(meanError float64) Band {
	switch {
	case meanError <= 0:
		return BandPerfect
	case meanError <= 1:
		return BandAccurate
	case meanError <= 2:
		return BandReasonable
	default:
		return BandUnrealistic
	}
}

type accumulator struct {
	sum float64
	n   int
}

func percentOf(acc accumulator) (float64, bool) {
	if acc.n == 0 {
		return 0, false
	}
	return acc.sum * 100 / float64(acc.n), true
}

// aggregate folds entries per user. finish returns false to drop the user.
func aggregate(entries []Entry, add func(*accumulator, Entry), finish func(accumulator) (float64, bool)) []Row {
	accs := make(map[string]*accumulator)
	for _, e := range entries {
		if e.UserID == "" {
			continue
		}
		acc, ok := accs[e.UserID]
		if !ok {
			acc = &accumulator{}
			accs[e.UserID] = acc
		}
		add(acc, e)
	}

	rows := make([]Row, 0, len(accs))
	for userID, acc := range accs {
		if acc.n == 0 {
			continue
		}
		value, keep := finish(*acc)
		if !keep {
			continue
		}
		rows = append(rows, Row{UserID: userID, Value: value, Samples: acc.n})
	}
	return rows
}

// rank rounds values to four decimals, sorts rows and assigns competition
// ranks: equal values share a rank and the next distinct value skips ahead.
// Ties are listed by user id. Bands must be set before rounding.
func rank(rows []Row, o order) []Row {
	for i := range rows {
		rows[i].Value = round4(rows[i].Value)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Value != rows[j].Value {
			if o == ascending {
				return rows[i].Value < rows[j].Value
			}
			return rows[i].Value > rows[j].Value
		}
		return rows[i].UserID < rows[j].UserID
	})
	for i := range rows {
		if i > 0 && rows[i].Value == rows[i-1].Value {
			rows[i].Rank = rows[i-1].Rank
			continue
		}
		rows[i].Rank = i + 1
	}
	return rows
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

// Leaders returns the rows holding rank 1 with a positive value.
func Leaders(rows []Row) []Row {
	out := make([]Row, 0, 1)
	for _, row := range rows {
		if row.Rank != 1 {
			break
		}
		if row.Value <= 0 {
			continue
		}
		out = append(out, row)
	}
	return out
}
