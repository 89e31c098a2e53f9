package usecase

import (
	"context"
	"sort"
)

// FixtureSource pulls the club's match document from the external provider.
type FixtureSource interface {
	FetchMatchFeed(ctx context.Context) (MatchFeed, error)
}

const (
	BucketResults     = "results"
	BucketFixtures    = "fixtures"
	BucketAllFixtures = "allFixtures"
)

var bucketOrder = map[string]int{
	BucketResults:     0,
	BucketFixtures:    1,
	BucketAllFixtures: 2,
}

// MatchFeed is one provider response split into its category buckets.
// Skipped counts entries the client could not decode at all.
type MatchFeed struct {
	Buckets []FeedBucket
	Skipped int
}

type FeedBucket struct {
	Name    string
	Entries []ExternalMatchPayload
}

// OrderedBuckets returns buckets in merge order: results, fixtures,
// allFixtures, then anything else by name. Buckets sharing a name keep
// their relative order.
func (f MatchFeed) OrderedBuckets() []FeedBucket {
	out := make([]FeedBucket, len(f.Buckets))
	copy(out, f.Buckets)
	sort.SliceStable(out, func(i, j int) bool {
		ri, iKnown := bucketOrder[out[i].Name]
		rj, jKnown := bucketOrder[out[j].Name]
		switch {
		case iKnown && jKnown:
			return ri < rj
		case iKnown != jKnown:
			return iKnown
		default:
			return out[i].Name < out[j].Name
		}
	})
	return out
}

func (f MatchFeed) EntryCount() int {
	total := 0
	for _, bucket := range f.Buckets {
		total += len(bucket.Entries)
	}
	return total
}

type ExternalTeamRef struct {
	ID   string
	Name string
}

// ExternalMatchPayload is one provider match entry, still from the home/away
// point of view and with the provider's raw kickoff text.
type ExternalMatchPayload struct {
	ExternalID     string
	Home           ExternalTeamRef
	Away           ExternalTeamRef
	TournamentName string
	KickoffRaw     string
	Finished       bool
	Cancelled      bool
	ScoreText      string
	StatusTexts    []string
	TimeUndefined  bool
}
