package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/prode/internal/config"
	"github.com/riskibarqy/prode/internal/platform/logging"
	"github.com/riskibarqy/prode/internal/usecase"
)

type countingSource struct {
	calls atomic.Int32
}

func (s *countingSource) FetchMatchFeed(context.Context) (usecase.MatchFeed, error) {
	s.calls.Add(1)
	return usecase.MatchFeed{}, nil
}

func testConfig() config.Config {
	return config.Config{
		AppEnv:              config.EnvDev,
		ServiceName:         "prode-api-test",
		HTTPAddr:            ":0",
		ReadTimeout:         time.Second,
		WriteTimeout:        time.Second,
		CORSAllowedOrigins:  []string{"*"},
		StorageDriver:       config.StorageMemory,
		DBSeedEnabled:       true,
		CacheEnabled:        true,
		CacheTTL:            time.Minute,
		InternalJobToken:    "job-secret",
		SyncWindow:          5,
		SyncBackfillWorkers: 2,
		SyncFetchTimeout:    time.Second,
		SyncLocalOffset:     -3 * time.Hour,
	}
}

func newTestApp(t *testing.T, cfg config.Config, source usecase.FixtureSource) *App {
	t.Helper()

	clock := clockwork.NewFakeClockAt(time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC))
	a, err := newApp(context.Background(), cfg, dependencies{clock: clock, source: source}, logging.NewNop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = a.Shutdown(ctx)
	})
	return a
}

func TestNewApp_ServesRoutes(t *testing.T) {
	t.Parallel()

	a := newTestApp(t, testConfig(), &countingSource{})

	for _, path := range []string{"/healthz", "/v1/matches", "/v1/rankings"} {
		rec := httptest.NewRecorder()
		a.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s: got=%d want=%d body=%s", path, rec.Code, http.StatusOK, rec.Body.String())
		}
	}

	rec := httptest.NewRecorder()
	a.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/internal/sync/status", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("internal route without token: got=%d want=%d", rec.Code, http.StatusUnauthorized)
	}
}

func TestApp_StartRunsStartupSync(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.SyncOnStart = true
	source := &countingSource{}
	a := newTestApp(t, cfg, source)

	a.Start()
	a.sync.Wait()

	if got := source.calls.Load(); got != 1 {
		t.Fatalf("unexpected fetch count: got=%d want=1", got)
	}
	if _, ok := a.sync.LastReport(); !ok {
		t.Fatalf("expected a stored sync report after startup")
	}
}

func TestApp_StartWithoutSyncOnStart(t *testing.T) {
	t.Parallel()

	source := &countingSource{}
	a := newTestApp(t, testConfig(), source)

	a.Start()
	a.sync.Wait()

	if got := source.calls.Load(); got != 0 {
		t.Fatalf("unexpected fetch count: got=%d want=0", got)
	}
}

func TestNewApp_ConfigErrors(t *testing.T) {
	t.Parallel()

	cases := map[string]func(*config.Config){
		"empty addr":         func(c *config.Config) { c.HTTPAddr = " " },
		"missing table file": func(c *config.Config) { c.ScoringTableFile = filepath.Join(t.TempDir(), "missing.yaml") },
		"bad cron":           func(c *config.Config) { c.SyncCron = "not a schedule" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig()
			mutate(&cfg)
			if _, err := newApp(context.Background(), cfg, dependencies{}, logging.NewNop()); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestSyncScheduler_RegistersEntry(t *testing.T) {
	t.Parallel()

	source := &countingSource{}
	a := newTestApp(t, testConfig(), source)

	scheduler, err := newSyncScheduler(context.Background(), "*/5 * * * *", time.UTC, a.sync, logging.NewNop())
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	if got := len(scheduler.cron.Entries()); got != 1 {
		t.Fatalf("unexpected entries: got=%d want=1", got)
	}
	scheduler.Start()
	scheduler.Stop()
}
