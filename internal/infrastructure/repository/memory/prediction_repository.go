package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/riskibarqy/prode/internal/domain/match"
	"github.com/riskibarqy/prode/internal/domain/prediction"
)

type predictionKey struct {
	userID  string
	matchID string
}

// PredictionRepository joins against a MatchRepository the way the SQL
// implementation joins against the matches table.
type PredictionRepository struct {
	mu      sync.RWMutex
	items   map[predictionKey]prediction.Prediction
	matches *MatchRepository
}

func NewPredictionRepository(matches *MatchRepository) *PredictionRepository {
	return &PredictionRepository{
		items:   make(map[predictionKey]prediction.Prediction),
		matches: matches,
	}
}

func (r *PredictionRepository) Get(_ context.Context, userID, matchExternalID string) (prediction.Prediction, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[predictionKey{userID: userID, matchID: matchExternalID}]
	return item, ok, nil
}

// Upsert refuses to overwrite a prediction whose match has finished.
func (r *PredictionRepository) Upsert(ctx context.Context, item prediction.Prediction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := predictionKey{userID: item.UserID, matchID: item.MatchExternalID}
	if current, ok := r.items[key]; ok {
		if r.matches != nil {
			m, found, err := r.matches.GetByExternalID(ctx, item.MatchExternalID)
			if err != nil {
				return err
			}
			if found && m.Finished {
				return fmt.Errorf("%w: %s", prediction.ErrMatchFinished, item.MatchExternalID)
			}
		}
		item.ID = current.ID
		item.CreatedAt = current.CreatedAt
	}
	r.items[key] = item
	return nil
}

// ListWithMatches returns pairs ordered by kickoff, match id and user id.
// Predictions whose match is unknown are left out.
func (r *PredictionRepository) ListWithMatches(ctx context.Context, query prediction.Query) ([]prediction.WithMatch, error) {
	r.mu.RLock()
	items := make([]prediction.Prediction, 0, len(r.items))
	for key, item := range r.items {
		if query.UserID != "" && key.userID != query.UserID {
			continue
		}
		items = append(items, item)
	}
	r.mu.RUnlock()

	matchQuery := match.Query{Tournament: query.Tournament, Year: query.Year}
	if query.FinishedOnly {
		matchQuery.Status = match.StatusPlayed
	}

	out := make([]prediction.WithMatch, 0, len(items))
	for _, item := range items {
		m, ok, err := r.matches.GetByExternalID(ctx, item.MatchExternalID)
		if err != nil {
			return nil, err
		}
		if !ok || !matchQuery.Matches(m) {
			continue
		}
		out = append(out, prediction.WithMatch{Prediction: item, Match: m})
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Match.KickoffAt.Equal(b.Match.KickoffAt) {
			return a.Match.KickoffAt.Before(b.Match.KickoffAt)
		}
		if a.Match.ExternalID != b.Match.ExternalID {
			return a.Match.ExternalID < b.Match.ExternalID
		}
		return a.Prediction.UserID < b.Prediction.UserID
	})
	return out, nil
}
