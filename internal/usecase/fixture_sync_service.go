package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"
	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/prode/internal/domain/match"
	"github.com/riskibarqy/prode/internal/platform/logging"
)

const (
	defaultFetchTimeout    = 15 * time.Second
	defaultBackfillWorkers = 4
)

type SyncState int32

const (
	SyncStateIdle SyncState = iota
	SyncStateFetching
	SyncStateReconciling
)

func (s SyncState) String() string {
	switch s {
	case SyncStateFetching:
		return "fetching"
	case SyncStateReconciling:
		return "reconciling"
	default:
		return "idle"
	}
}

type SyncOutcome string

const (
	SyncOutcomeSucceeded       SyncOutcome = "succeeded"
	SyncOutcomeFetchFailed     SyncOutcome = "fetch_failed"
	SyncOutcomeReconcileFailed SyncOutcome = "reconcile_failed"
)

type FixtureSyncConfig struct {
	Normalizer      NormalizerConfig
	Window          int
	BackfillWorkers int
	FetchTimeout    time.Duration
}

func (c FixtureSyncConfig) withDefaults() FixtureSyncConfig {
	c.Normalizer = c.Normalizer.withDefaults()
	if c.Window <= 0 {
		c.Window = DefaultUpcomingWindow
	}
	if c.BackfillWorkers <= 0 {
		c.BackfillWorkers = defaultBackfillWorkers
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = defaultFetchTimeout
	}
	return c
}

// SyncReport describes one cycle. Counters reflect writes that landed even
// when the cycle failed part way.
type SyncReport struct {
	StartedAt        time.Time    `json:"started_at"`
	FinishedAt       time.Time    `json:"finished_at"`
	Outcome          SyncOutcome  `json:"outcome"`
	Fetched          int          `json:"fetched"`
	Skipped          int          `json:"skipped"`
	Rejected         int          `json:"rejected"`
	Dropped          int          `json:"dropped"`
	Played           int          `json:"played"`
	Upcoming         int          `json:"upcoming"`
	Backfilled       int          `json:"backfilled"`
	UpcomingUpserted int          `json:"upcoming_upserted"`
	EditionsEnsured  int          `json:"editions_ensured"`
	EditionsFinished int          `json:"editions_finished"`
	ChampionsAwarded int          `json:"champions_awarded"`
	Refresh          RefreshFlags `json:"refresh"`
	Error            string       `json:"error,omitempty"`
}

// Flags derives which views the writes of this cycle made stale.
func (r SyncReport) Flags() RefreshFlags {
	return RefreshFlags{
		Matches:     r.Backfilled > 0 || r.UpcomingUpserted > 0,
		Predictions: r.Backfilled > 0,
		Rankings:    r.Backfilled > 0 || r.EditionsFinished > 0,
		Trophies:    r.EditionsFinished > 0,
		AdminLists:  r.EditionsEnsured > 0 || r.EditionsFinished > 0,
	}
}

// FixtureSyncService runs the Idle → Fetching → Reconciling → Idle cycle.
// At most one cycle runs at a time; extra triggers are dropped, not queued.
type FixtureSyncService struct {
	source    FixtureSource
	matches   match.Repository
	tracker   *TournamentTracker
	publisher RefreshPublisher
	cfg       FixtureSyncConfig
	clock     clockwork.Clock
	logger    *logging.Logger

	state atomic.Int32
	wg    sync.WaitGroup

	mu   sync.RWMutex
	last *SyncReport
}

func NewFixtureSyncService(
	source FixtureSource,
	matches match.Repository,
	tracker *TournamentTracker,
	publisher RefreshPublisher,
	cfg FixtureSyncConfig,
	clock clockwork.Clock,
	logger *logging.Logger,
) *FixtureSyncService {
	if publisher == nil {
		publisher = noopRefreshPublisher{}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &FixtureSyncService{
		source:    source,
		matches:   matches,
		tracker:   tracker,
		publisher: publisher,
		cfg:       cfg.withDefaults(),
		clock:     clock,
		logger:    logger.Named("fixture_sync"),
	}
}

func (s *FixtureSyncService) State() SyncState {
	return SyncState(s.state.Load())
}

func (s *FixtureSyncService) LastReport() (SyncReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return SyncReport{}, false
	}
	return *s.last, true
}

// Trigger starts a cycle in the background and reports whether it did.
// The cycle outlives ctx cancellation but keeps its values.
func (s *FixtureSyncService) Trigger(ctx context.Context) bool {
	if !s.acquire() {
		s.logger.InfoContext(ctx, "fixture sync busy, trigger ignored", "state", s.State().String())
		return false
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_, _ = s.run(context.WithoutCancel(ctx))
	}()
	return true
}

// Wait blocks until every triggered cycle has returned.
func (s *FixtureSyncService) Wait() {
	s.wg.Wait()
}

// RunOnce runs a cycle synchronously.
func (s *FixtureSyncService) RunOnce(ctx context.Context) (SyncReport, error) {
	if !s.acquire() {
		return SyncReport{}, ErrSyncInProgress
	}
	return s.run(ctx)
}

func (s *FixtureSyncService) acquire() bool {
	return s.state.CompareAndSwap(int32(SyncStateIdle), int32(SyncStateFetching))
}

func (s *FixtureSyncService) run(ctx context.Context) (report SyncReport, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureSyncService.run")
	defer span.End()

	report = SyncReport{StartedAt: s.clock.Now().UTC()}
	defer func() {
		s.state.Store(int32(SyncStateIdle))
		report.FinishedAt = s.clock.Now().UTC()
		report.Refresh = report.Flags()
		if err != nil {
			report.Error = err.Error()
		}
		s.storeReport(report)
		s.publish(ctx, report.Refresh)
	}()

	if s.source == nil {
		report.Outcome = SyncOutcomeFetchFailed
		return report, fmt.Errorf("%w: match source is not configured", ErrDependencyUnavailable)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	feed, fetchErr := s.source.FetchMatchFeed(fetchCtx)
	cancel()
	if fetchErr != nil {
		report.Outcome = SyncOutcomeFetchFailed
		s.logger.WarnContext(ctx, "fixture sync fetch failed", "error", fetchErr)
		return report, markTransport(fmt.Errorf("fetch match feed: %w", fetchErr))
	}

	s.state.Store(int32(SyncStateReconciling))
	report.Fetched = feed.EntryCount()

	if err := s.reconcile(ctx, feed, &report); err != nil {
		report.Outcome = SyncOutcomeReconcileFailed
		s.logger.ErrorContext(ctx, "fixture sync reconcile failed",
			"error", err,
			"backfilled", report.Backfilled,
			"upcoming_upserted", report.UpcomingUpserted,
		)
		return report, err
	}

	report.Outcome = SyncOutcomeSucceeded
	s.logger.InfoContext(ctx, "fixture sync finished",
		"fetched", report.Fetched,
		"skipped", report.Skipped,
		"rejected", report.Rejected,
		"played", report.Played,
		"upcoming", report.Upcoming,
		"backfilled", report.Backfilled,
		"upcoming_upserted", report.UpcomingUpserted,
		"editions_finished", report.EditionsFinished,
	)
	return report, nil
}

func (s *FixtureSyncService) reconcile(ctx context.Context, feed MatchFeed, report *SyncReport) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reconcile panic: %v", r)
		}
	}()

	normalized := NormalizeFeed(s.cfg.Normalizer, feed)
	report.Skipped = normalized.Malformed
	report.Rejected = normalized.Rejected

	merged := MergeMatchBuckets(normalized.Matches()...)
	now := s.clock.Now().In(s.cfg.Normalizer.LocalZone)
	classified := ClassifyMatches(merged, now, s.cfg.Window)
	report.Played = len(classified.Played)
	report.Upcoming = len(classified.Upcoming)
	report.Dropped = classified.Dropped

	backfill, err := s.selectBackfill(ctx, classified.Played)
	if err != nil {
		return err
	}
	written, err := s.backfillResults(ctx, backfill)
	report.Backfilled = written
	if err != nil {
		return markPersistence(err)
	}

	if len(classified.Window) > 0 {
		if err := s.matches.UpsertMany(ctx, classified.Window); err != nil {
			return markPersistence(fmt.Errorf("upsert upcoming window: %w", err))
		}
		report.UpcomingUpserted = len(classified.Window)
	}

	if s.tracker == nil {
		return nil
	}

	touched := make([]match.Match, 0, len(backfill)+len(classified.Window))
	touched = append(touched, backfill...)
	touched = append(touched, classified.Window...)
	created, err := s.tracker.EnsureEditions(ctx, touched)
	report.EditionsEnsured = created
	if err != nil {
		return markPersistence(err)
	}

	finalized, err := s.tracker.Finalize(ctx, classified.Played, classified.Upcoming)
	report.EditionsFinished = len(finalized.Finished)
	report.ChampionsAwarded = finalized.Champions
	if err != nil {
		return markPersistence(err)
	}
	return nil
}

func (s *FixtureSyncService) selectBackfill(ctx context.Context, played []match.Match) ([]match.Match, error) {
	if len(played) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(played))
	for _, item := range played {
		ids = append(ids, item.ExternalID)
	}
	stored, err := s.matches.ListByExternalIDs(ctx, ids)
	if err != nil {
		return nil, markPersistence(fmt.Errorf("load stored played matches: %w", err))
	}
	byID := make(map[string]match.Match, len(stored))
	for _, item := range stored {
		byID[item.ExternalID] = item
	}
	return SelectBackfill(played, byID), nil
}

// backfillResults writes each match independently on a bounded pool. Writes
// that succeed stand even when others fail.
func (s *FixtureSyncService) backfillResults(ctx context.Context, items []match.Match) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	workers := s.cfg.BackfillWorkers
	if workers > len(items) {
		workers = len(items)
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return 0, fmt.Errorf("create backfill pool: %w", err)
	}
	defer pool.Release()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		errs    error
		written atomic.Int32
	)
	addErr := func(err error) {
		mu.Lock()
		errs = crerr.CombineErrors(errs, err)
		mu.Unlock()
	}

	for _, item := range items {
		item := item
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if err := s.matches.Upsert(ctx, item); err != nil {
				addErr(fmt.Errorf("backfill match %s: %w", item.ExternalID, err))
				return
			}
			written.Add(1)
		})
		if submitErr != nil {
			wg.Done()
			addErr(fmt.Errorf("submit backfill match %s: %w", item.ExternalID, submitErr))
		}
	}
	wg.Wait()

	return int(written.Load()), errs
}

func (s *FixtureSyncService) storeReport(report SyncReport) {
	s.mu.Lock()
	s.last = &report
	s.mu.Unlock()
}

func (s *FixtureSyncService) publish(ctx context.Context, flags RefreshFlags) {
	if err := s.publisher.PublishRefresh(ctx, flags); err != nil {
		s.logger.WarnContext(ctx, "publish refresh flags failed", "error", err)
	}
}
