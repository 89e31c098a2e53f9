package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/prode/internal/domain/match"
	"github.com/riskibarqy/prode/internal/domain/tournament"
	"github.com/riskibarqy/prode/internal/infrastructure/repository/memory"
	matchmock "github.com/riskibarqy/prode/internal/mocks/domain/match"
	"github.com/riskibarqy/prode/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

type stubFixtureSource struct {
	feed    MatchFeed
	err     error
	release chan struct{}
	calls   atomic.Int32
}

func (s *stubFixtureSource) FetchMatchFeed(ctx context.Context) (MatchFeed, error) {
	s.calls.Add(1)
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return MatchFeed{}, ctx.Err()
		}
	}
	return s.feed, s.err
}

type recordingPublisher struct {
	mu    sync.Mutex
	flags []RefreshFlags
}

func (p *recordingPublisher) PublishRefresh(_ context.Context, flags RefreshFlags) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.flags = append(p.flags, flags)
	return nil
}

func (p *recordingPublisher) last() (RefreshFlags, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.flags) == 0 {
		return RefreshFlags{}, 0
	}
	return p.flags[len(p.flags)-1], len(p.flags)
}

func syncPayload(id, opponentID, tournamentName, kickoff string, finished bool, score string) ExternalMatchPayload {
	return ExternalMatchPayload{
		ExternalID:     id,
		Home:           ExternalTeamRef{ID: "10077", Name: "Club"},
		Away:           ExternalTeamRef{ID: opponentID, Name: "Rival " + opponentID},
		TournamentName: tournamentName,
		KickoffRaw:     kickoff,
		Finished:       finished,
		ScoreText:      score,
	}
}

func testSyncFeed() MatchFeed {
	r1 := syncPayload("r1", "1", "Liga Profesional", "2025-11-30T22:00:00Z", true, "2 - 1")
	r2 := syncPayload("r2", "2", "Copa Argentina", "2025-10-01T23:00:00Z", true, "0 - 1")
	r2.Home, r2.Away = r2.Away, r2.Home
	f1 := syncPayload("f1", "3", "Liga Profesional", "2026-04-05T00:00:00Z", false, "")

	return MatchFeed{Buckets: []FeedBucket{
		{Name: BucketResults, Entries: []ExternalMatchPayload{r1, r2}},
		{Name: BucketFixtures, Entries: []ExternalMatchPayload{f1}},
		{Name: BucketAllFixtures, Entries: []ExternalMatchPayload{r1}},
	}}
}

type syncFixture struct {
	service   *FixtureSyncService
	matches   *memory.MatchRepository
	editions  *memory.TournamentRepository
	publisher *recordingPublisher
	awarder   *recordingAwarder
}

func newSyncFixture(source FixtureSource) syncFixture {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 4, 1, 15, 0, 0, 0, time.UTC))
	matches := memory.NewMatchRepository(nil)
	editions := memory.NewTournamentRepository()
	awarder := &recordingAwarder{}
	publisher := &recordingPublisher{}
	tracker := NewTournamentTracker(editions, awarder, clock, logging.NewNop())
	cfg := FixtureSyncConfig{
		Normalizer: NormalizerConfig{ClubID: "10077", LocalZone: argentina},
		Window:     5,
	}
	return syncFixture{
		service:   NewFixtureSyncService(source, matches, tracker, publisher, cfg, clock, logging.NewNop()),
		matches:   matches,
		editions:  editions,
		publisher: publisher,
		awarder:   awarder,
	}
}

func TestFixtureSyncService_RunOnceReconcilesAndPublishes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fx := newSyncFixture(&stubFixtureSource{feed: testSyncFeed()})

	report, err := fx.service.RunOnce(ctx)
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if report.Outcome != SyncOutcomeSucceeded {
		t.Fatalf("unexpected outcome: %s", report.Outcome)
	}
	if report.Fetched != 4 || report.Played != 2 || report.Upcoming != 1 {
		t.Fatalf("unexpected counters: %+v", report)
	}
	if report.Backfilled != 2 || report.UpcomingUpserted != 1 || report.EditionsEnsured != 3 || report.EditionsFinished != 2 {
		t.Fatalf("unexpected write counters: %+v", report)
	}

	r2, ok, _ := fx.matches.GetByExternalID(ctx, "r2")
	if !ok || !r2.HasResult() || *r2.GoalsClub != 1 || *r2.GoalsOpponent != 0 {
		t.Fatalf("away result must be stored from the club side: %+v", r2)
	}
	f1, ok, _ := fx.matches.GetByExternalID(ctx, "f1")
	if !ok || f1.KickoffAt.Hour() != 21 || f1.TimeUndefined {
		t.Fatalf("soonest 21:00 fixture must keep its time: %+v", f1)
	}

	liga2026, ok, _ := fx.editions.Get(ctx, tournament.Key{Name: "Liga Profesional", Year: 2026})
	if !ok || liga2026.Finished {
		t.Fatalf("edition with upcoming matches must stay open: %+v", liga2026)
	}
	copa, _, _ := fx.editions.Get(ctx, tournament.Key{Name: "Copa Argentina", Year: 2025})
	if !copa.Finished {
		t.Fatalf("edition without upcoming matches must be finished")
	}

	flags, published := fx.publisher.last()
	want := RefreshFlags{Matches: true, Predictions: true, Rankings: true, Trophies: true, AdminLists: true}
	if published != 1 || flags != want {
		t.Fatalf("unexpected refresh flags: got=%+v want=%+v published=%d", flags, want, published)
	}
	if fx.service.State() != SyncStateIdle {
		t.Fatalf("service must return to idle, got %s", fx.service.State())
	}
	if last, ok := fx.service.LastReport(); !ok || last.Backfilled != 2 {
		t.Fatalf("unexpected last report: %+v", last)
	}
}

func TestFixtureSyncService_SecondPassSelfHeals(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fx := newSyncFixture(&stubFixtureSource{feed: testSyncFeed()})

	if _, err := fx.service.RunOnce(ctx); err != nil {
		t.Fatalf("first run: %v", err)
	}
	report, err := fx.service.RunOnce(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if report.Backfilled != 0 || report.EditionsEnsured != 0 || report.EditionsFinished != 0 {
		t.Fatalf("second pass must not rewrite stored results: %+v", report)
	}
	if report.Refresh != (RefreshFlags{Matches: true}) {
		t.Fatalf("unexpected refresh flags: %+v", report.Refresh)
	}
	if len(fx.awarder.calls) != 2 {
		t.Fatalf("champions must be awarded once per finished edition, got %d", len(fx.awarder.calls))
	}
}

func TestFixtureSyncService_FetchFailureWritesNothing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fx := newSyncFixture(&stubFixtureSource{err: errors.New("dial tcp: i/o timeout")})

	report, err := fx.service.RunOnce(ctx)
	if !crerr.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	if report.Outcome != SyncOutcomeFetchFailed || report.Error == "" {
		t.Fatalf("unexpected report: %+v", report)
	}

	stored, _ := fx.matches.List(ctx, match.Query{})
	if len(stored) != 0 {
		t.Fatalf("failed fetch must not write: %+v", stored)
	}
	flags, published := fx.publisher.last()
	if published != 1 || flags.Any() {
		t.Fatalf("failed fetch must publish empty flags: %+v published=%d", flags, published)
	}
	if fx.service.State() != SyncStateIdle {
		t.Fatalf("service must return to idle, got %s", fx.service.State())
	}
}

func TestFixtureSyncService_BusyTriggerIsNoop(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	source := &stubFixtureSource{feed: testSyncFeed(), release: make(chan struct{})}
	fx := newSyncFixture(source)

	if !fx.service.Trigger(ctx) {
		t.Fatalf("first trigger must start a cycle")
	}
	if fx.service.Trigger(ctx) {
		t.Fatalf("trigger while busy must be a no-op")
	}
	if _, err := fx.service.RunOnce(ctx); !errors.Is(err, ErrSyncInProgress) {
		t.Fatalf("expected ErrSyncInProgress, got %v", err)
	}

	close(source.release)
	fx.service.Wait()

	if calls := source.calls.Load(); calls != 1 {
		t.Fatalf("unexpected fetch count: got=%d want=1", calls)
	}
	if fx.service.State() != SyncStateIdle {
		t.Fatalf("service must return to idle, got %s", fx.service.State())
	}
	if !fx.service.Trigger(ctx) {
		t.Fatalf("idle service must accept a new trigger")
	}
	fx.service.Wait()
}

func TestFixtureSyncService_PersistenceFailureStopsCycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := matchmock.NewRepository(t)
	publisher := &recordingPublisher{}
	service := NewFixtureSyncService(
		&stubFixtureSource{feed: testSyncFeed()},
		repo,
		nil,
		publisher,
		FixtureSyncConfig{Normalizer: NormalizerConfig{ClubID: "10077", LocalZone: argentina}},
		clockwork.NewFakeClockAt(time.Date(2026, 4, 1, 15, 0, 0, 0, time.UTC)),
		logging.NewNop(),
	)

	repo.On("ListByExternalIDs", mock.Anything, mock.Anything).Return([]match.Match{}, nil).Once()
	repo.On("Upsert", mock.Anything, mock.MatchedBy(func(m match.Match) bool { return m.ExternalID == "r1" })).Return(nil).Once()
	repo.On("Upsert", mock.Anything, mock.MatchedBy(func(m match.Match) bool { return m.ExternalID == "r2" })).Return(errors.New("connection reset")).Once()

	report, err := service.RunOnce(ctx)
	if !crerr.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if report.Outcome != SyncOutcomeReconcileFailed || report.Backfilled != 1 || report.UpcomingUpserted != 0 {
		t.Fatalf("committed writes must be reported, got %+v", report)
	}
	flags, _ := publisher.last()
	if !flags.Matches || !flags.Predictions {
		t.Fatalf("partial writes must still refresh views: %+v", flags)
	}
	repo.AssertNotCalled(t, "UpsertMany", mock.Anything, mock.Anything)
}
