package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	crerr "github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/prode/external/matchfeed"
	"github.com/riskibarqy/prode/internal/config"
	"github.com/riskibarqy/prode/internal/domain/scoring"
	"github.com/riskibarqy/prode/internal/infrastructure/messaging/natsbus"
	"github.com/riskibarqy/prode/internal/interfaces/httpapi"
	"github.com/riskibarqy/prode/internal/platform/cache"
	idgen "github.com/riskibarqy/prode/internal/platform/id"
	"github.com/riskibarqy/prode/internal/platform/logging"
	"github.com/riskibarqy/prode/internal/usecase"
)

// App owns the HTTP server and the background pieces that feed it.
type App struct {
	Server *http.Server

	cfg       config.Config
	logger    *logging.Logger
	sync      *usecase.FixtureSyncService
	scheduler *syncScheduler
	events    *httpapi.EventHub
	bus       *natsbus.Publisher
	closeRepo func() error

	runCtx    context.Context
	cancelRun context.CancelFunc
}

type dependencies struct {
	clock  clockwork.Clock
	source usecase.FixtureSource
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	return newApp(ctx, cfg, dependencies{}, logger)
}

func newApp(ctx context.Context, cfg config.Config, deps dependencies, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Named("app")
	if strings.TrimSpace(cfg.HTTPAddr) == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}
	if deps.clock == nil {
		deps.clock = clockwork.NewRealClock()
	}

	table := scoring.DefaultTable()
	if cfg.ScoringTableFile != "" {
		loaded, err := scoring.LoadTable(cfg.ScoringTableFile)
		if err != nil {
			return nil, err
		}
		table = loaded
		logger.Info("scoring table loaded", "path", cfg.ScoringTableFile)
	}

	repos, err := openRepositories(ctx, cfg, deps.clock, logger)
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, logger: logger, closeRepo: repos.close}
	a.runCtx, a.cancelRun = context.WithCancel(context.Background())

	var rankingCache *cache.Store
	if cfg.CacheEnabled {
		rankingCache = cache.NewStore(cfg.CacheTTL, cache.WithClock(deps.clock))
	}
	rankingSvc := usecase.NewRankingService(repos.predictions, repos.tournaments, table, rankingCache, logger)

	a.events = httpapi.NewEventHub(cfg.CORSAllowedOrigins, deps.clock, logger)
	fanout := usecase.NewRefreshFanout(rankingSvc, a.events)
	if cfg.NATSEnabled {
		bus, err := natsbus.Connect(natsbus.Config{
			URL:           cfg.NATSURL,
			Subject:       cfg.NATSSubject,
			Name:          cfg.ServiceName,
			MaxReconnects: cfg.NATSMaxReconnects,
			ReconnectWait: cfg.NATSReconnectWait,
		}, logger)
		if err != nil {
			a.closeResources()
			return nil, err
		}
		a.bus = bus
		fanout.Add(bus)
		logger.Info("nats refresh publisher enabled", "subject", cfg.NATSSubject)
	}

	source := deps.source
	if source == nil && cfg.MatchFeedEnabled {
		source = matchfeed.NewClient(matchfeed.ClientConfig{
			BaseURL:        cfg.MatchFeedBaseURL,
			APIKey:         cfg.MatchFeedAPIKey,
			ClubID:         cfg.MatchFeedClubID,
			Timezone:       cfg.MatchFeedTimezone,
			CountryCode:    cfg.MatchFeedCountryCode,
			Timeout:        cfg.MatchFeedTimeout,
			MaxRetries:     cfg.MatchFeedMaxRetries,
			Logger:         logger,
			Clock:          deps.clock,
			CircuitBreaker: cfg.MatchFeedCircuit,
		})
	}
	if source == nil {
		logger.Warn("match feed disabled", "reason", "MATCHFEED_ENABLED=false")
	}

	tracker := usecase.NewTournamentTracker(repos.tournaments, rankingSvc, deps.clock, logger)
	a.sync = usecase.NewFixtureSyncService(source, repos.matches, tracker, fanout, usecase.FixtureSyncConfig{
		Normalizer: usecase.NormalizerConfig{
			ClubID:             cfg.MatchFeedClubID,
			FallbackTournament: cfg.SyncDefaultTournament,
			SourceZone:         cfg.SourceZone(),
			LocalZone:          cfg.LocalZone(),
		},
		Window:          cfg.SyncWindow,
		BackfillWorkers: cfg.SyncBackfillWorkers,
		FetchTimeout:    cfg.SyncFetchTimeout,
	}, deps.clock, logger)

	matchSvc := usecase.NewMatchService(repos.matches)
	predictionSvc := usecase.NewPredictionService(
		repos.matches,
		repos.predictions,
		idgen.NewUUIDGenerator(),
		table,
		fanout,
		deps.clock,
		logger,
	)

	if cfg.SyncCron != "" {
		a.scheduler, err = newSyncScheduler(a.runCtx, cfg.SyncCron, cfg.LocalZone(), a.sync, logger)
		if err != nil {
			a.closeResources()
			return nil, err
		}
	}

	handler := httpapi.NewHandler(matchSvc, predictionSvc, rankingSvc, tracker, a.sync, fanout, a.events, logger)
	router := httpapi.NewRouter(handler, logger, cfg.SwaggerEnabled, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	a.Server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return a, nil
}

// Start kicks off background work: the startup sync and the cron schedule.
func (a *App) Start() {
	if a.cfg.SyncOnStart {
		if a.sync.Trigger(a.runCtx) {
			a.logger.Info("startup sync triggered")
		}
	}
	if a.scheduler != nil {
		a.scheduler.Start()
	}
}

// Shutdown stops the HTTP server first, then background work, then storage.
func (a *App) Shutdown(ctx context.Context) error {
	var errs error
	if err := a.Server.Shutdown(ctx); err != nil {
		errs = crerr.CombineErrors(errs, fmt.Errorf("shutdown http server: %w", err))
	}
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	a.cancelRun()
	a.sync.Wait()
	if err := a.closeResources(); err != nil {
		errs = crerr.CombineErrors(errs, err)
	}
	return errs
}

func (a *App) closeResources() error {
	var errs error
	if a.events != nil {
		a.events.Close()
	}
	if a.bus != nil {
		if err := a.bus.Close(); err != nil {
			errs = crerr.CombineErrors(errs, fmt.Errorf("close nats: %w", err))
		}
	}
	if a.closeRepo != nil {
		if err := a.closeRepo(); err != nil {
			errs = crerr.CombineErrors(errs, fmt.Errorf("close storage: %w", err))
		}
	}
	if a.cancelRun != nil {
		a.cancelRun()
	}
	return errs
}
