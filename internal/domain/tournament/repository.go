package tournament

import (
	"context"
	"time"
)

// ChampionQuery filters champions by edition or by year. Zero means all.
type ChampionQuery struct {
	Edition Key
	Year    int
}

func (q ChampionQuery) Matches(c Champion) bool {
	if q.Edition.Name != "" && c.Edition != q.Edition {
		return false
	}
	if q.Year != 0 && c.Edition.Year != q.Year {
		return false
	}
	return true
}

type Repository interface {
	// Ensure creates the edition when missing and reports whether it did.
	Ensure(ctx context.Context, key Key) (bool, error)
	Get(ctx context.Context, key Key) (Edition, bool, error)
	// MarkFinished reports whether the edition moved from unfinished to finished.
	MarkFinished(ctx context.Context, key Key, at time.Time) (bool, error)
	List(ctx context.Context) ([]Edition, error)

	AwardChampions(ctx context.Context, champions []Champion) error
	ListChampions(ctx context.Context, query ChampionQuery) ([]Champion, error)
}
