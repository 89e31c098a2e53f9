package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/riskibarqy/prode/internal/config"
	"github.com/riskibarqy/prode/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/prode/internal/platform/logging"
)

const seedTimeout = 30 * time.Second

var errUsage = errors.New("usage")

// step is one schema command run against an open migrator.
type step func(m *migrate.Migrate, args []string, logger *logging.Logger) error

var steps = map[string]step{
	"up":      up,
	"down":    down,
	"version": version,
	"force":   force,
	"goto":    gotoVersion,
}

var usageExamples = []string{"up", "down 1", "version", "force 1775000000", "goto 1775000000", "seed"}

func main() {
	_ = godotenv.Load()
	logger := logging.NewJSON(logging.ParseLevel(os.Getenv("APP_LOG_LEVEL"))).Named("migration")

	err := run(os.Args[1:], logger)
	switch {
	case errors.Is(err, errUsage):
		printUsage()
		os.Exit(2)
	case err != nil:
		logger.Error("migration failed", "error", err)
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func run(args []string, logger *logging.Logger) error {
	if len(args) == 0 {
		return errUsage
	}
	name := strings.ToLower(strings.TrimSpace(args[0]))
	fn, known := steps[name]
	if !known && name != "seed" {
		return errUsage
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if name == "seed" {
		return seed(cfg, logger)
	}

	dir, err := migrationsDir()
	if err != nil {
		return err
	}
	source := "file://" + filepath.ToSlash(dir)
	m, err := migrate.New(source, cfg.DatabaseURL())
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if err := errors.Join(srcErr, dbErr); err != nil {
			logger.Warn("close migrator", "error", err)
		}
	}()

	logger.Info("running migration step", "step", name, "source", source)
	return fn(m, args[1:], logger)
}

func up(m *migrate.Migrate, _ []string, logger *logging.Logger) error {
	return applied(m.Up(), logger, "migrations applied")
}

func down(m *migrate.Migrate, args []string, logger *logging.Logger) error {
	n := 1
	if len(args) > 0 {
		parsed, err := strconv.Atoi(strings.TrimSpace(args[0]))
		if err != nil || parsed <= 0 {
			return fmt.Errorf("down steps must be a positive integer, got %q", args[0])
		}
		n = parsed
	}
	return applied(m.Steps(-n), logger, "migrations rolled back", "steps", n)
}

func version(m *migrate.Migrate, _ []string, _ *logging.Logger) error {
	v, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		fmt.Println("version: none")
		fmt.Println("dirty: false")
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		fmt.Printf("version: %d\n", v)
		fmt.Printf("dirty: %t\n", dirty)
	}
	return nil
}

func force(m *migrate.Migrate, args []string, logger *logging.Logger) error {
	v, err := versionArg(args)
	if err != nil {
		return err
	}
	if v > math.MaxInt {
		return fmt.Errorf("version %d is too large for this platform", v)
	}
	if err := m.Force(int(v)); err != nil {
		return fmt.Errorf("force version %d: %w", v, err)
	}
	logger.Info("migration version forced", "version", v)
	return nil
}

func gotoVersion(m *migrate.Migrate, args []string, logger *logging.Logger) error {
	v, err := versionArg(args)
	if err != nil {
		return err
	}
	return applied(m.Migrate(v), logger, "migrated", "version", v)
}

func versionArg(args []string) (uint, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("a target version argument is required")
	}
	v, err := strconv.ParseUint(strings.TrimSpace(args[0]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid version %q: %w", args[0], err)
	}
	return uint(v), nil
}

// applied treats migrate.ErrNoChange as success.
func applied(err error, logger *logging.Logger, msg string, kv ...any) error {
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("no migration changes")
		return nil
	case err != nil:
		return err
	}
	logger.Info(msg, kv...)
	return nil
}

// seed loads the development fixtures when the matches table is empty.
func seed(cfg config.Config, logger *logging.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), seedTimeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DatabaseURL())
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	if err := postgres.BootstrapSeed(ctx, db, time.Now(), cfg.LocalZone()); err != nil {
		return err
	}
	logger.Info("seed applied", "local_zone", cfg.LocalZone().String())
	return nil
}

func migrationsDir() (string, error) {
	for _, candidate := range []string{os.Getenv("MIGRATIONS_DIR"), "./db/migrations", "/app/db/migrations"} {
		if candidate = strings.TrimSpace(candidate); candidate == "" {
			continue
		}
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			return abs, nil
		}
	}
	return "", fmt.Errorf("migration directory not found (checked MIGRATIONS_DIR, ./db/migrations, /app/db/migrations)")
}

func printUsage() {
	name := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "usage: %s <up|down|version|force|goto|seed> [args]\nexamples:\n", name)
	for _, example := range usageExamples {
		fmt.Fprintf(os.Stderr, "  %s %s\n", name, example)
	}
}
