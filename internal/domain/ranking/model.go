package ranking

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/prode/internal/domain/match"
	"github.com/riskibarqy/prode/internal/domain/scoring"
	"github.com/riskibarqy/prode/internal/domain/tournament"
)

var (
	ErrInvalidFilter = errors.New("invalid ranking filter")
	ErrUnknownKind   = errors.New("unknown ranking kind")
)

type Kind string

const (
	KindTotalPoints   Kind = "total_points"
	KindTrophies      Kind = "trophies"
	KindOptimism      Kind = "optimism"
	KindFalseProphet  Kind = "false_prophet"
	KindMufa          Kind = "mufa"
	KindBestPredictor Kind = "best_predictor"
	KindCurrentStreak Kind = "current_streak"
	KindRecordStreak  Kind = "record_streak"
)

// Kinds lists every board in display order.
func Kinds() []Kind {
	return []Kind{
		KindTotalPoints,
		KindTrophies,
		KindOptimism,
		KindFalseProphet,
		KindMufa,
		KindBestPredictor,
		KindCurrentStreak,
		KindRecordStreak,
	}
}

func ParseKind(v string) (Kind, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, kind := range Kinds() {
		if string(kind) == v {
			return kind, true
		}
	}
	return "", false
}

// Filter restricts the scored population to one edition or one year.
// The two are mutually exclusive; the zero Filter means all-time.
type Filter struct {
	Edition tournament.Key
	Year    int
}

func (f Filter) Validate() error {
	if f.Year < 0 || f.Edition.Year < 0 {
		return fmt.Errorf("%w: year must be >= 0", ErrInvalidFilter)
	}
	hasEdition := strings.TrimSpace(f.Edition.Name) != "" || f.Edition.Year != 0
	if hasEdition && (strings.TrimSpace(f.Edition.Name) == "" || f.Edition.Year == 0) {
		return fmt.Errorf("%w: edition needs both tournament and year", ErrInvalidFilter)
	}
	if hasEdition && f.Year != 0 {
		return fmt.Errorf("%w: edition and year filters are mutually exclusive", ErrInvalidFilter)
	}
	return nil
}

func (f Filter) IsZero() bool {
	return f.Edition.IsZero() && f.Year == 0
}

// Key is a stable identifier used for caching.
func (f Filter) Key() string {
	switch {
	case !f.Edition.IsZero():
		return fmt.Sprintf("edition:%s:%d", strings.ToLower(f.Edition.Name), f.Edition.Year)
	case f.Year != 0:
		return fmt.Sprintf("year:%d", f.Year)
	default:
		return "all"
	}
}

func (f Filter) MatchQuery() match.Query {
	if !f.Edition.IsZero() {
		return match.Query{Tournament: f.Edition.Name, Year: f.Edition.Year}
	}
	return match.Query{Year: f.Year}
}

func (f Filter) ChampionQuery() tournament.ChampionQuery {
	return tournament.ChampionQuery{Edition: f.Edition, Year: f.Year}
}

// Entry is one scored prediction, the unit every board aggregates over.
type Entry struct {
	UserID          string
	MatchExternalID string
	KickoffAt       time.Time
	Record          scoring.Record
}

type Band string

const (
	BandVeryOptimistic  Band = "very_optimistic"
	BandOptimistic      Band = "optimistic"
	BandRealistic       Band = "realistic"
	BandPessimistic     Band = "pessimistic"
	BandVeryPessimistic Band = "very_pessimistic"

	BandPerfect     Band = "perfect"
	BandAccurate    Band = "accurate"
	BandReasonable  Band = "reasonable"
	BandUnrealistic Band = "unrealistic"
)

var bandLabels = map[Band]string{
	BandVeryOptimistic:  "Very optimistic",
	BandOptimistic:      "Optimistic",
	BandRealistic:       "Realistic",
	BandPessimistic:     "Pessimistic",
	BandVeryPessimistic: "Very pessimistic",
	BandPerfect:         "Perfect",
	BandAccurate:        "Accurate",
	BandReasonable:      "Reasonable",
	BandUnrealistic:     "Unrealistic",
}

// Label is the human readable band name.
func (b Band) Label() string {
	return bandLabels[b]
}

// Row is one user's line in a board. Value is the metric (points, percent,
// mean, streak length); Samples is how many predictions fed it.
type Row struct {
	Rank    int     `json:"rank"`
	UserID  string  `json:"user_id"`
	Value   float64 `json:"value"`
	Samples int     `json:"samples"`
	Band    Band    `json:"band,omitempty"`
}

type Board struct {
	Kind   Kind   `json:"kind"`
	Filter Filter `json:"-"`
	Rows   []Row  `json:"rows"`
}
