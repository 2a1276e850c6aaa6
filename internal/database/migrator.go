package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"finance-tracker/internal/config"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const defaultMigrationsPath = "db/migrations"

// readiness polling used by RunMigrationsIfEnabled; tests shorten these
var (
	readyAttempts = 30
	readyInterval = 2 * time.Second
)

var ErrMigrationsNotFound = errors.New("migrations directory not found")

// MigrationRunner applies the versioned SQL files in db/migrations to postgres
type MigrationRunner struct {
	db       *sql.DB
	path     string
	attempts int
	interval time.Duration
}

func NewMigrationRunner(db *sql.DB, path string) *MigrationRunner {
	if path == "" {
		path = defaultMigrationsPath
	}
	return &MigrationRunner{db: db, path: path, attempts: readyAttempts, interval: readyInterval}
}

// WaitForDatabase pings until the database answers, the attempts run out
// or ctx is done.
func (mr *MigrationRunner) WaitForDatabase(ctx context.Context) error {
	var lastErr error
	for attempt := 1; attempt <= mr.attempts; attempt++ {
		if lastErr = mr.db.PingContext(ctx); lastErr == nil {
			return nil
		}
		slog.Warn("Database not ready", "attempt", attempt, "of", mr.attempts, "error", lastErr)

		if attempt == mr.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(mr.interval):
		}
	}
	return fmt.Errorf("database not ready after %d attempts: %w", mr.attempts, lastErr)
}

func (mr *MigrationRunner) open() (*migrate.Migrate, error) {
	if _, err := os.Stat(mr.path); errors.Is(err, os.ErrNotExist) {
		return nil, ErrMigrationsNotFound
	}

	abs, err := filepath.Abs(mr.path)
	if err != nil {
		return nil, fmt.Errorf("resolve migrations path: %w", err)
	}

	driver, err := postgres.WithInstance(mr.db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("migrate postgres driver: %w", err)
	}
	return migrate.NewWithDatabaseInstance("file://"+abs, "postgres", driver)
}

// RunMigrations applies pending up migrations. A dirty version left by a
// crashed run is forced clean first. A missing directory is not an error.
func (mr *MigrationRunner) RunMigrations() error {
	m, err := mr.open()
	switch {
	case errors.Is(err, ErrMigrationsNotFound):
		slog.Info("No migrations directory, skipping", "path", mr.path)
		return nil
	case err != nil:
		return err
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read migration version: %w", err)
	}
	if dirty {
		slog.Warn("Forcing dirty migration version", "version", version)
		if err := m.Force(int(version)); err != nil {
			return fmt.Errorf("force version %d: %w", version, err)
		}
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	if version, _, err = m.Version(); err == nil {
		slog.Info("Schema at migration version", "version", version)
	}
	return nil
}

func (mr *MigrationRunner) Status() (version uint, dirty bool, err error) {
	m, err := mr.open()
	if err != nil {
		return 0, false, err
	}
	return m.Version()
}

// RunMigrationsIfEnabled reports whether SQL migrations ran. They only exist
// for postgres; false tells the caller to fall back to AutoMigrate.
func RunMigrationsIfEnabled(db *sql.DB, cfg *config.DatabaseConfig) (bool, error) {
	if !cfg.AutoMigrate || cfg.Driver != config.DriverPostgres {
		return false, nil
	}

	runner := NewMigrationRunner(db, cfg.MigrationsPath)
	if err := runner.WaitForDatabase(context.Background()); err != nil {
		return false, fmt.Errorf("database readiness check failed: %w", err)
	}
	if err := runner.RunMigrations(); err != nil {
		return false, fmt.Errorf("migration execution failed: %w", err)
	}
	return true, nil
}
