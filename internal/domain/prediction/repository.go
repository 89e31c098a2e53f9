package prediction

import (
	"context"
	"errors"
)

// ErrMatchFinished is returned by Upsert when the match finished before the
// write landed. Predictions freeze once their match is final.
var ErrMatchFinished = errors.New("match is finished")

// Query narrows prediction listings. Zero values mean no restriction.
type Query struct {
	UserID       string
	Tournament   string
	Year         int
	FinishedOnly bool
}

type Repository interface {
	Get(ctx context.Context, userID, matchExternalID string) (Prediction, bool, error)
	Upsert(ctx context.Context, item Prediction) error
	ListWithMatches(ctx context.Context, query Query) ([]WithMatch, error)
}
