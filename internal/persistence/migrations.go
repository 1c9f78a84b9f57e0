package persistence

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/hashicorp/go-multierror"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/lewisedginton/lead_capture_chatbot/pkg/logger"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// MigrationManager applies the embedded schema migrations.
type MigrationManager struct {
	db       *sql.DB
	migrator *migrate.Migrate
	logger   logger.Logger
}

// NewMigrationManager creates a migration manager from pgxpool
func NewMigrationManager(pool *pgxpool.Pool, logger logger.Logger) *MigrationManager {
	db := stdlib.OpenDBFromPool(pool)
	return &MigrationManager{
		db:     db,
		logger: logger,
	}
}

// RunMigrations executes pending migrations
func (m *MigrationManager) RunMigrations() error {
	return m.run("up", func(migrator *migrate.Migrate) error { return migrator.Up() })
}

// Rollback reverts the given number of migrations.
func (m *MigrationManager) Rollback(steps int) error {
	if steps < 1 {
		return fmt.Errorf("rollback steps must be at least 1, got %d", steps)
	}
	return m.run("down", func(migrator *migrate.Migrate) error { return migrator.Steps(-steps) })
}

// Version returns the current schema version and whether it is dirty.
func (m *MigrationManager) Version() (uint, bool, error) {
	migrator, err := m.createMigrator()
	if err != nil {
		return 0, false, fmt.Errorf("create migrator: %w", err)
	}
	version, dirty, err := migrator.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (m *MigrationManager) run(direction string, fn func(*migrate.Migrate) error) error {
	migrator, err := m.createMigrator()
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	log := m.logger.WithFields(logger.StringField("direction", direction))
	log.Info("Starting database migrations")

	err = fn(migrator)
	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("No migrations to apply")
			return nil
		}
		log.Error("Failed to run migrations", logger.ErrorField(err))
		return fmt.Errorf("run migrations %s: %w", direction, err)
	}

	log.Info("Successfully applied migrations")
	return nil
}

func (m *MigrationManager) createMigrator() (*migrate.Migrate, error) {
	if m.migrator != nil {
		return m.migrator, nil
	}

	sourceDriver, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("create embedded migration source: %w", err)
	}

	driver, err := postgres.WithInstance(m.db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("create postgres driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}

	m.migrator = migrator
	return migrator, nil
}

// Close releases the migrator and the database handle. The pool stays open.
func (m *MigrationManager) Close() error {
	if m.migrator == nil {
		return m.db.Close()
	}
	var result error
	srcErr, dbErr := m.migrator.Close()
	if srcErr != nil {
		result = multierror.Append(result, srcErr)
	}
	if dbErr != nil {
		result = multierror.Append(result, dbErr)
	}
	return result
}
