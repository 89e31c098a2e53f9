package match

import "context"

// Query narrows a schedule listing. Zero values mean no restriction.
type Query struct {
	Status     Status
	Tournament string
	Year       int
}

func (q Query) Matches(m Match) bool {
	switch q.Status {
	case StatusPlayed:
		if !m.Played() {
			return false
		}
	case StatusUpcoming:
		if m.Finished || m.Cancelled {
			return false
		}
	}
	if q.Tournament != "" && m.Tournament != q.Tournament {
		return false
	}
	if q.Year != 0 && m.SeasonYear != q.Year {
		return false
	}
	return true
}

// Repository persists matches. Every write goes through Merge semantics.
type Repository interface {
	GetByExternalID(ctx context.Context, externalID string) (Match, bool, error)
	ListByExternalIDs(ctx context.Context, externalIDs []string) ([]Match, error)
	List(ctx context.Context, query Query) ([]Match, error)
	Upsert(ctx context.Context, item Match) error
	UpsertMany(ctx context.Context, items []Match) error
}
