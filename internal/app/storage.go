package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	_ "github.com/lib/pq"
	"github.com/riskibarqy/prode/internal/config"
	"github.com/riskibarqy/prode/internal/domain/match"
	"github.com/riskibarqy/prode/internal/domain/prediction"
	"github.com/riskibarqy/prode/internal/domain/tournament"
	cacherepo "github.com/riskibarqy/prode/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/prode/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/prode/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/prode/internal/platform/cache"
	"github.com/riskibarqy/prode/internal/platform/logging"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

const dbPingTimeout = 5 * time.Second

type repositories struct {
	matches     match.Repository
	tournaments tournament.Repository
	predictions prediction.Repository
	close       func() error
}

func openRepositories(ctx context.Context, cfg config.Config, clock clockwork.Clock, logger *logging.Logger) (repositories, error) {
	now := clock.Now()
	var (
		repos repositories
		err   error
	)
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		repos, err = openPostgres(ctx, cfg, now, logger)
	default:
		repos = openMemory(cfg, now, logger)
	}
	if err != nil {
		return repositories{}, err
	}

	if cfg.CacheEnabled {
		store := cache.NewStore(cfg.CacheTTL, cache.WithClock(clock))
		repos.matches = cacherepo.NewMatchRepository(repos.matches, store)
		repos.tournaments = cacherepo.NewTournamentRepository(repos.tournaments, store)
		logger.Info("repository cache enabled", "ttl", cfg.CacheTTL.String())
	}
	return repos, nil
}

func openMemory(cfg config.Config, now time.Time, logger *logging.Logger) repositories {
	var seed []match.Match
	if cfg.DBSeedEnabled {
		seed = memory.SeedMatches(now, cfg.LocalZone())
	}
	matches := memory.NewMatchRepository(seed)
	logger.Info("memory storage ready", "seed_matches", len(seed))

	return repositories{
		matches:     matches,
		tournaments: memory.NewTournamentRepository(),
		predictions: memory.NewPredictionRepository(matches),
		close:       func() error { return nil },
	}
}

func openPostgres(ctx context.Context, cfg config.Config, now time.Time, logger *logging.Logger) (repositories, error) {
	dsn := postgresDSN(cfg.DatabaseURL())
	db, err := otelsqlx.Open("postgres",
		string(dsn),
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dsn.databaseName()),
		otelsql.WithQueryFormatter(traceQuery),
	)
	if err != nil {
		return repositories{}, fmt.Errorf("open postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, dbPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return repositories{}, fmt.Errorf("ping postgres: %w", err)
	}

	if cfg.DBSeedEnabled {
		if err := postgres.BootstrapSeed(ctx, db, now, cfg.LocalZone()); err != nil {
			_ = db.Close()
			return repositories{}, err
		}
	}
	logger.Info("postgres storage ready", "db_name", dsn.databaseName(), "seed", cfg.DBSeedEnabled)

	return newPostgresRepositories(db, cfg.LocalZone()), nil
}

func newPostgresRepositories(db *sqlx.DB, loc *time.Location) repositories {
	return repositories{
		matches:     postgres.NewMatchRepository(db, loc),
		tournaments: postgres.NewTournamentRepository(db),
		predictions: postgres.NewPredictionRepository(db, loc),
		close:       db.Close,
	}
}
