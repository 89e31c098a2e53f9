package usecase

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/prode/internal/domain/match"
)

const defaultFallbackTournament = "Liga Profesional"

var scoreTextRegex = regexp.MustCompile(`^\s*(\d+)\s*-\s*(\d+)\s*$`)

// undefinedTimeVocabulary is matched case-insensitively as substrings of the
// provider status and reason texts.
var undefinedTimeVocabulary = []string{
	"tbd",
	"tbc",
	"to be defined",
	"to be determined",
	"to be confirmed",
	"postponed",
	"pending",
	"awarded",
	"a confirmar",
	"a definir",
	"por definir",
}

var kickoffLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

var errRejectedPayload = errors.New("payload does not describe a club match")

type NormalizerConfig struct {
	ClubID             string
	FallbackTournament string
	// SourceZone applies to kickoff texts without an explicit offset.
	SourceZone *time.Location
	// LocalZone is the fixed zone every kickoff is expressed in.
	LocalZone *time.Location
}

func (c NormalizerConfig) withDefaults() NormalizerConfig {
	if strings.TrimSpace(c.FallbackTournament) == "" {
		c.FallbackTournament = defaultFallbackTournament
	}
	if c.SourceZone == nil {
		c.SourceZone = time.UTC
	}
	if c.LocalZone == nil {
		c.LocalZone = time.UTC
	}
	return c
}

// NormalizeMatch converts one provider entry into a club match. It reports
// false for entries that are rejected or malformed.
func NormalizeMatch(cfg NormalizerConfig, payload ExternalMatchPayload) (match.Match, bool) {
	item, err := normalizeMatch(cfg, payload)
	return item, err == nil
}

// NormalizedBucket keeps the bucket name next to its normalized matches.
type NormalizedBucket struct {
	Name    string
	Matches []match.Match
}

type NormalizedFeed struct {
	Buckets   []NormalizedBucket
	Rejected  int
	Malformed int
}

func (f NormalizedFeed) Matches() [][]match.Match {
	out := make([][]match.Match, 0, len(f.Buckets))
	for _, bucket := range f.Buckets {
		out = append(out, bucket.Matches)
	}
	return out
}

// NormalizeFeed normalizes every bucket in merge order. A malformed entry is
// counted and skipped; it never fails the feed.
func NormalizeFeed(cfg NormalizerConfig, feed MatchFeed) NormalizedFeed {
	out := NormalizedFeed{Malformed: feed.Skipped}
	for _, bucket := range feed.OrderedBuckets() {
		items := make([]match.Match, 0, len(bucket.Entries))
		for _, entry := range bucket.Entries {
			item, err := normalizeMatch(cfg, entry)
			switch {
			case err == nil:
				items = append(items, item)
			case crerr.Is(err, ErrMalformedPayload):
				out.Malformed++
			default:
				out.Rejected++
			}
		}
		out.Buckets = append(out.Buckets, NormalizedBucket{Name: bucket.Name, Matches: items})
	}
	return out
}

func normalizeMatch(cfg NormalizerConfig, payload ExternalMatchPayload) (match.Match, error) {
	cfg = cfg.withDefaults()

	homeID := strings.TrimSpace(payload.Home.ID)
	awayID := strings.TrimSpace(payload.Away.ID)
	clubID := strings.TrimSpace(cfg.ClubID)
	if homeID == "" || awayID == "" {
		return match.Match{}, fmt.Errorf("%w: missing participant id", errRejectedPayload)
	}
	if payload.Cancelled {
		return match.Match{}, fmt.Errorf("%w: cancelled", errRejectedPayload)
	}

	var clubIsHome bool
	switch clubID {
	case homeID:
		clubIsHome = true
	case awayID:
		clubIsHome = false
	default:
		return match.Match{}, fmt.Errorf("%w: club %s not in %s vs %s", errRejectedPayload, clubID, homeID, awayID)
	}

	externalID := strings.TrimSpace(payload.ExternalID)
	if externalID == "" {
		return match.Match{}, crerr.Mark(errors.New("missing external id"), ErrMalformedPayload)
	}

	kickoff, err := parseKickoff(payload.KickoffRaw, cfg.SourceZone)
	if err != nil {
		return match.Match{}, crerr.Mark(fmt.Errorf("match %s: %w", externalID, err), ErrMalformedPayload)
	}
	kickoff = kickoff.In(cfg.LocalZone)

	item := match.Match{
		ExternalID: externalID,
		Tournament: strings.TrimSpace(payload.TournamentName),
		SeasonYear: kickoff.Year(),
		KickoffAt:  kickoff,
		Finished:   payload.Finished,
	}
	if item.Tournament == "" {
		item.Tournament = cfg.FallbackTournament
	}
	if clubIsHome {
		item.Opponent = strings.TrimSpace(payload.Away.Name)
	} else {
		item.Opponent = strings.TrimSpace(payload.Home.Name)
	}

	if payload.Finished {
		if home, away, ok := parseScoreText(payload.ScoreText); ok {
			if clubIsHome {
				item.GoalsClub, item.GoalsOpponent = match.IntPtr(home), match.IntPtr(away)
			} else {
				item.GoalsClub, item.GoalsOpponent = match.IntPtr(away), match.IntPtr(home)
			}
		}
	}

	if payload.TimeUndefined || mentionsUndefinedTime(payload.StatusTexts) {
		item.MarkTimeUndefined()
	}

	return item, nil
}

func parseKickoff(raw string, sourceZone *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("missing kickoff")
	}
	if parsed, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return parsed, nil
	}
	for _, layout := range kickoffLayouts {
		if parsed, err := time.ParseInLocation(layout, raw, sourceZone); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable kickoff %q", raw)
}

// parseScoreText reads a "H - A" string.
func parseScoreText(raw string) (int, int, bool) {
	parts := scoreTextRegex.FindStringSubmatch(raw)
	if len(parts) != 3 {
		return 0, 0, false
	}
	home, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	away, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, false
	}
	return home, away, true
}

func mentionsUndefinedTime(texts []string) bool {
	for _, text := range texts {
		text = strings.ToLower(strings.TrimSpace(text))
		if text == "" {
			continue
		}
		for _, term := range undefinedTimeVocabulary {
			if strings.Contains(text, term) {
				return true
			}
		}
	}
	return false
}

// FixedZone builds the club's local zone from an offset such as -3h.
func FixedZone(offset time.Duration) *time.Location {
	if offset == 0 {
		return time.UTC
	}
	sign := "+"
	abs := offset
	if offset < 0 {
		sign = "-"
		abs = -offset
	}
	hours := int(abs / time.Hour)
	minutes := int((abs % time.Hour) / time.Minute)
	return time.FixedZone(fmt.Sprintf("UTC%s%02d:%02d", sign, hours, minutes), int(offset/time.Second))
}
