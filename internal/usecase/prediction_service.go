package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/prode/internal/domain/match"
	"github.com/riskibarqy/prode/internal/domain/prediction"
	"github.com/riskibarqy/prode/internal/domain/ranking"
	"github.com/riskibarqy/prode/internal/domain/scoring"
	"github.com/riskibarqy/prode/internal/platform/id"
	"github.com/riskibarqy/prode/internal/platform/logging"
)

const maxPredictedGoals = 99

type SubmitPredictionInput struct {
	UserID          string
	MatchExternalID string
	GoalsClub       int
	GoalsOpponent   int
}

// ScoredPrediction is a prediction with its match and, once the match is
// scorable, its score. Score stays nil until then.
type ScoredPrediction struct {
	Prediction prediction.Prediction
	Match      match.Match
	Score      *scoring.Record
}

type UserStats struct {
	UserID      string `json:"user_id"`
	Predictions int    `json:"predictions"`
	Scored      int    `json:"scored"`
	TotalPoints int    `json:"total_points"`
	ExactScores int    `json:"exact_scores"`
	// Averages are nil when there is nothing to average.
	AveragePoints       *float64 `json:"average_points"`
	AverageError        *float64 `json:"average_error"`
	AverageAnticipation *float64 `json:"average_anticipation_hours"`
}

type PredictionService struct {
	matches     match.Repository
	predictions prediction.Repository
	ids         id.Generator
	table       scoring.Table
	publisher   RefreshPublisher
	clock       clockwork.Clock
	logger      *logging.Logger
}

func NewPredictionService(
	matches match.Repository,
	predictions prediction.Repository,
	ids id.Generator,
	table scoring.Table,
	publisher RefreshPublisher,
	clock clockwork.Clock,
	logger *logging.Logger,
) *PredictionService {
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	if publisher == nil {
		publisher = noopRefreshPublisher{}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PredictionService{
		matches:     matches,
		predictions: predictions,
		ids:         ids,
		table:       table,
		publisher:   publisher,
		clock:       clock,
		logger:      logger.Named("prediction_service"),
	}
}

// Submit creates or overwrites the caller's prediction for a match. It fails
// with ErrPredictionLocked once the match is finished or its known kickoff
// has passed.
func (s *PredictionService) Submit(ctx context.Context, input SubmitPredictionInput) (prediction.Prediction, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionService.Submit")
	defer span.End()

	input.UserID = strings.TrimSpace(input.UserID)
	input.MatchExternalID = strings.TrimSpace(input.MatchExternalID)
	if input.UserID == "" {
		return prediction.Prediction{}, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}
	if input.MatchExternalID == "" {
		return prediction.Prediction{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}
	if input.GoalsClub < 0 || input.GoalsClub > maxPredictedGoals || input.GoalsOpponent < 0 || input.GoalsOpponent > maxPredictedGoals {
		return prediction.Prediction{}, fmt.Errorf("%w: goals must be between 0 and %d", ErrInvalidInput, maxPredictedGoals)
	}

	item, exists, err := s.matches.GetByExternalID(ctx, input.MatchExternalID)
	if err != nil {
		return prediction.Prediction{}, fmt.Errorf("get match %s: %w", input.MatchExternalID, err)
	}
	if !exists || item.Cancelled {
		return prediction.Prediction{}, fmt.Errorf("%w: match=%s", ErrNotFound, input.MatchExternalID)
	}

	now := s.clock.Now().UTC()
	if item.Finished {
		return prediction.Prediction{}, fmt.Errorf("%w: match %s is finished", ErrPredictionLocked, item.ExternalID)
	}
	if item.KickoffKnown() && !now.Before(item.KickoffAt) {
		return prediction.Prediction{}, fmt.Errorf("%w: match %s kicked off at %s", ErrPredictionLocked, item.ExternalID, item.KickoffAt.Format(time.RFC3339))
	}

	current, found, err := s.predictions.Get(ctx, input.UserID, input.MatchExternalID)
	if err != nil {
		return prediction.Prediction{}, fmt.Errorf("get prediction: %w", err)
	}

	out := prediction.Prediction{
		ID:              current.ID,
		UserID:          input.UserID,
		MatchExternalID: input.MatchExternalID,
		GoalsClub:       input.GoalsClub,
		GoalsOpponent:   input.GoalsOpponent,
		SubmittedAt:     now,
		CreatedAt:       current.CreatedAt,
	}
	if !found {
		newID, err := s.ids.NewID()
		if err != nil {
			return prediction.Prediction{}, fmt.Errorf("generate prediction id: %w", err)
		}
		out.ID = newID
		out.CreatedAt = now
	}

	if err := s.predictions.Upsert(ctx, out); err != nil {
		if errors.Is(err, prediction.ErrMatchFinished) {
			return prediction.Prediction{}, fmt.Errorf("%w: %v", ErrPredictionLocked, err)
		}
		return prediction.Prediction{}, fmt.Errorf("upsert prediction: %w", err)
	}

	if err := s.publisher.PublishRefresh(ctx, RefreshFlags{Predictions: true}); err != nil {
		s.logger.WarnContext(ctx, "publish prediction refresh failed", "user_id", out.UserID, "match_id", out.MatchExternalID, "error", err)
	}
	return out, nil
}

func (s *PredictionService) Get(ctx context.Context, userID, matchExternalID string) (ScoredPrediction, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionService.Get")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ScoredPrediction{}, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}

	item, exists, err := s.matches.GetByExternalID(ctx, matchExternalID)
	if err != nil {
		return ScoredPrediction{}, fmt.Errorf("get match %s: %w", matchExternalID, err)
	}
	if !exists {
		return ScoredPrediction{}, fmt.Errorf("%w: match=%s", ErrNotFound, matchExternalID)
	}

	p, found, err := s.predictions.Get(ctx, userID, matchExternalID)
	if err != nil {
		return ScoredPrediction{}, fmt.Errorf("get prediction: %w", err)
	}
	if !found {
		return ScoredPrediction{}, fmt.Errorf("%w: prediction user=%s match=%s", ErrNotFound, userID, matchExternalID)
	}

	return s.score(p, item)
}

// ListByUser returns the user's predictions, oldest kickoff first.
func (s *PredictionService) ListByUser(ctx context.Context, userID string, filter ranking.Filter) ([]ScoredPrediction, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionService.ListByUser")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	query := predictionQuery(filter, false)
	query.UserID = userID
	items, err := s.predictions.ListWithMatches(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list predictions user=%s: %w", userID, err)
	}

	out := make([]ScoredPrediction, 0, len(items))
	for _, item := range items {
		scored, err := s.score(item.Prediction, item.Match)
		if err != nil {
			return nil, err
		}
		out = append(out, scored)
	}
	return out, nil
}

// Stats summarizes a user's history. Unscorable predictions count towards
// Predictions only.
func (s *PredictionService) Stats(ctx context.Context, userID string, filter ranking.Filter) (UserStats, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionService.Stats")
	defer span.End()

	items, err := s.ListByUser(ctx, userID, filter)
	if err != nil {
		return UserStats{}, err
	}

	stats := UserStats{UserID: strings.TrimSpace(userID), Predictions: len(items)}
	errorSum := 0
	var anticipationSum time.Duration
	anticipationSamples := 0
	for _, item := range items {
		if lead, ok := item.Prediction.Anticipation(item.Match); ok {
			anticipationSum += lead
			anticipationSamples++
		}
		if item.Score == nil {
			continue
		}
		stats.Scored++
		stats.TotalPoints += item.Score.Total
		errorSum += item.Score.AbsoluteError
		if item.Score.Exact() {
			stats.ExactScores++
		}
	}

	if stats.Scored > 0 {
		stats.AveragePoints = floatPtr(roundTo(float64(stats.TotalPoints)/float64(stats.Scored), 2))
		stats.AverageError = floatPtr(roundTo(float64(errorSum)/float64(stats.Scored), 2))
	}
	if anticipationSamples > 0 {
		hours := anticipationSum.Hours() / float64(anticipationSamples)
		stats.AverageAnticipation = floatPtr(roundTo(hours, 2))
	}
	return stats, nil
}

func (s *PredictionService) score(p prediction.Prediction, m match.Match) (ScoredPrediction, error) {
	out := ScoredPrediction{Prediction: p, Match: m}
	record, err := scoring.Score(s.table, p, m)
	switch {
	case err == nil:
		out.Score = &record
	case errors.Is(err, scoring.ErrNotScorable):
	default:
		return ScoredPrediction{}, fmt.Errorf("score prediction %s: %w", p.ID, err)
	}
	return out, nil
}

func predictionQuery(filter ranking.Filter, finishedOnly bool) prediction.Query {
	matchQuery := filter.MatchQuery()
	return prediction.Query{
		Tournament:   matchQuery.Tournament,
		Year:         matchQuery.Year,
		FinishedOnly: finishedOnly,
	}
}

func floatPtr(v float64) *float64 {
	return &v
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
