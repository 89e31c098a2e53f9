package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/prode/internal/domain/match"
	"github.com/riskibarqy/prode/internal/domain/prediction"
)

func TestPredictionRepository_UpsertFreezesFinishedMatches(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	kickoff := time.Date(2026, 4, 5, 21, 0, 0, 0, time.UTC)
	matches := NewMatchRepository([]match.Match{{ExternalID: "m1", Opponent: "Boca", KickoffAt: kickoff}})
	repo := NewPredictionRepository(matches)

	first := prediction.Prediction{ID: "p1", UserID: "u1", MatchExternalID: "m1", GoalsClub: 1, CreatedAt: kickoff.Add(-time.Hour)}
	if err := repo.Upsert(ctx, first); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	finished := match.Match{ExternalID: "m1", Opponent: "Boca", KickoffAt: kickoff, Finished: true, GoalsClub: match.IntPtr(1), GoalsOpponent: match.IntPtr(0)}
	if err := matches.UpsertMany(ctx, []match.Match{finished}); err != nil {
		t.Fatalf("finish match: %v", err)
	}

	late := prediction.Prediction{ID: "p2", UserID: "u1", MatchExternalID: "m1", GoalsClub: 3}
	if err := repo.Upsert(ctx, late); !errors.Is(err, prediction.ErrMatchFinished) {
		t.Fatalf("expected ErrMatchFinished, got %v", err)
	}

	got, ok, err := repo.Get(ctx, "u1", "m1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.ID != "p1" || got.GoalsClub != 1 {
		t.Fatalf("frozen prediction must be unchanged: %+v", got)
	}
}
