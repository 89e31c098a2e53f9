package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/prode/internal/domain/match"
)

// MatchService serves the stored schedule to readers.
type MatchService struct {
	matches match.Repository
}

func NewMatchService(matches match.Repository) *MatchService {
	return &MatchService{matches: matches}
}

func (s *MatchService) List(ctx context.Context, query match.Query) ([]match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.List")
	defer span.End()

	status, ok := match.ParseStatus(string(query.Status))
	if !ok {
		return nil, fmt.Errorf("%w: unknown match status %q", ErrInvalidInput, query.Status)
	}
	if query.Year < 0 {
		return nil, fmt.Errorf("%w: year must be >= 0", ErrInvalidInput)
	}
	query.Status = status
	query.Tournament = strings.TrimSpace(query.Tournament)

	items, err := s.matches.List(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	return items, nil
}

func (s *MatchService) Get(ctx context.Context, externalID string) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.Get")
	defer span.End()

	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return match.Match{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}

	item, exists, err := s.matches.GetByExternalID(ctx, externalID)
	if err != nil {
		return match.Match{}, fmt.Errorf("get match %s: %w", externalID, err)
	}
	if !exists || item.Cancelled {
		return match.Match{}, fmt.Errorf("%w: match=%s", ErrNotFound, externalID)
	}
	return item, nil
}
