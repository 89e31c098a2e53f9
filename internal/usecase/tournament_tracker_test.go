package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/prode/internal/domain/match"
	"github.com/riskibarqy/prode/internal/domain/tournament"
	"github.com/riskibarqy/prode/internal/infrastructure/repository/memory"
	tournamentmock "github.com/riskibarqy/prode/internal/mocks/domain/tournament"
	"github.com/riskibarqy/prode/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

type recordingAwarder struct {
	mu    sync.Mutex
	calls []tournament.Key
}

func (a *recordingAwarder) AwardEditionChampions(_ context.Context, key tournament.Key, at time.Time) ([]tournament.Champion, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, key)
	return []tournament.Champion{{Edition: key, UserID: "u1", Points: 9, AwardedAt: at}}, nil
}

type flakyAwarder struct {
	recordingAwarder
	failures int
}

func (a *flakyAwarder) AwardEditionChampions(ctx context.Context, key tournament.Key, at time.Time) ([]tournament.Champion, error) {
	a.mu.Lock()
	if a.failures > 0 {
		a.failures--
		a.mu.Unlock()
		return nil, errors.New("champions write failed")
	}
	a.mu.Unlock()
	return a.recordingAwarder.AwardEditionChampions(ctx, key, at)
}

func TestFinishedEditionKeys(t *testing.T) {
	t.Parallel()

	liga2025 := match.Match{ExternalID: "1", Tournament: "Liga Profesional", SeasonYear: 2025, Finished: true}
	copa2025 := match.Match{ExternalID: "2", Tournament: "Copa Argentina", SeasonYear: 2025, Finished: true}
	liga2025Next := match.Match{ExternalID: "3", Tournament: "Liga Profesional", SeasonYear: 2025}
	copa2024 := match.Match{ExternalID: "4", Tournament: "Copa Argentina", SeasonYear: 2024, Finished: true}

	got := FinishedEditionKeys([]match.Match{liga2025, copa2025, copa2024, copa2025}, []match.Match{liga2025Next})
	want := []tournament.Key{{Name: "Copa Argentina", Year: 2024}, {Name: "Copa Argentina", Year: 2025}}
	if len(got) != len(want) {
		t.Fatalf("unexpected keys: got=%v want=%v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected key %d: got=%v want=%v", i, got[i], want[i])
		}
	}
}

func TestTournamentTracker_FinalizeIsMonotonic(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.NewTournamentRepository()
	awarder := &recordingAwarder{}
	clock := clockwork.NewFakeClockAt(time.Date(2025, 12, 15, 3, 0, 0, 0, time.UTC))
	tracker := NewTournamentTracker(repo, awarder, clock, logging.NewNop())

	key := tournament.Key{Name: "Copa Argentina", Year: 2025}
	played := []match.Match{{ExternalID: "1", Tournament: key.Name, SeasonYear: key.Year, Finished: true}}

	// Unknown editions are never created by finalization.
	result, err := tracker.Finalize(ctx, played, nil)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if len(result.Finished) != 0 {
		t.Fatalf("missing edition must not be finished: %+v", result)
	}

	if _, err := tracker.EnsureEditions(ctx, played); err != nil {
		t.Fatalf("ensure editions: %v", err)
	}
	result, err = tracker.Finalize(ctx, played, nil)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if len(result.Finished) != 1 || result.Champions != 1 {
		t.Fatalf("unexpected finalize result: %+v", result)
	}

	// The edition shows up as upcoming again: still finished, no second award.
	upcoming := []match.Match{{ExternalID: "9", Tournament: key.Name, SeasonYear: key.Year}}
	if _, err := tracker.Finalize(ctx, played, upcoming); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	result, err = tracker.Finalize(ctx, played, nil)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if len(result.Finished) != 0 {
		t.Fatalf("re-marking must be a no-op: %+v", result)
	}

	edition, ok, _ := repo.Get(ctx, key)
	if !ok || !edition.Finished || edition.FinishedAt == nil {
		t.Fatalf("edition must stay finished: %+v", edition)
	}
	if len(awarder.calls) != 1 {
		t.Fatalf("champions must be awarded once, got %d", len(awarder.calls))
	}
}

func TestTournamentTracker_FinalizeRetriesFailedAward(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.NewTournamentRepository()
	awarder := &flakyAwarder{failures: 1}
	tracker := NewTournamentTracker(repo, awarder, clockwork.NewFakeClock(), logging.NewNop())

	key := tournament.Key{Name: "Copa Argentina", Year: 2025}
	played := []match.Match{{ExternalID: "1", Tournament: key.Name, SeasonYear: key.Year, Finished: true}}
	if _, err := tracker.EnsureEditions(ctx, played); err != nil {
		t.Fatalf("ensure editions: %v", err)
	}

	if _, err := tracker.Finalize(ctx, played, nil); err == nil {
		t.Fatalf("expected award failure")
	}
	edition, _, _ := repo.Get(ctx, key)
	if edition.Finished {
		t.Fatalf("failed award must leave the edition unfinished: %+v", edition)
	}

	result, err := tracker.Finalize(ctx, played, nil)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if len(result.Finished) != 1 || result.Champions != 1 {
		t.Fatalf("unexpected finalize result: %+v", result)
	}
	edition, _, _ = repo.Get(ctx, key)
	if !edition.Finished {
		t.Fatalf("edition must be finished after the retry: %+v", edition)
	}
	if len(awarder.calls) != 1 || awarder.calls[0] != key {
		t.Fatalf("unexpected award calls: %v", awarder.calls)
	}
}

func TestTournamentTracker_FinishEdition(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := tournamentmock.NewRepository(t)
	tracker := NewTournamentTracker(repo, nil, clockwork.NewFakeClock(), logging.NewNop())

	missing := tournament.Key{Name: "Supercopa", Year: 2025}
	repo.On("Get", mock.Anything, missing).Return(tournament.Edition{}, false, nil).Once()
	if _, err := tracker.FinishEdition(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if _, err := tracker.FinishEdition(ctx, tournament.Key{Name: " "}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	key := tournament.Key{Name: "Liga Profesional", Year: 2025}
	repo.On("Get", mock.Anything, key).Return(tournament.Edition{Key: key}, true, nil).Once()
	repo.On("MarkFinished", mock.Anything, key, mock.AnythingOfType("time.Time")).Return(true, nil).Once()

	result, err := tracker.FinishEdition(ctx, key)
	if err != nil {
		t.Fatalf("finish edition: %v", err)
	}
	if len(result.Finished) != 1 || result.Finished[0] != key {
		t.Fatalf("unexpected result: %+v", result)
	}
}
