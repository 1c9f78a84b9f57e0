package cli

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/urfave/cli/v2"

	"github.com/lewisedginton/lead_capture_chatbot/internal/persistence"
	"github.com/lewisedginton/lead_capture_chatbot/pkg/logger"
)

// MigrateCommand returns a command for schema migrations
func MigrateCommand() *cli.Command {
	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Database schema migrations",
		Subcommands: []*cli.Command{
			{
				Name:   "up",
				Usage:  "Apply all pending migrations",
				Action: migrateUpAction,
			},
			{
				Name:  "down",
				Usage: "Roll back migrations",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "steps",
						Value: 1,
						Usage: "Number of migrations to roll back",
					},
				},
				Action: migrateDownAction,
			},
			{
				Name:   "version",
				Usage:  "Print the current schema version",
				Action: migrateVersionAction,
			},
		},
	}
}

// withMigrations connects to the database and runs fn with a migration manager.
func withMigrations(ctx *cli.Context, fn func(*persistence.MigrationManager) error) (err error) {
	log := getLogger(ctx)

	cfg, err := loadMaintenanceConfig(ctx)
	if err != nil {
		log.Error("Failed to load config", logger.ErrorField(err))
		return err
	}

	pool, err := persistence.Connect(ctx.Context, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	mm := persistence.NewMigrationManager(pool, log)
	defer func() {
		if closeErr := mm.Close(); closeErr != nil {
			err = multierror.Append(err, closeErr).ErrorOrNil()
		}
	}()

	return fn(mm)
}

func migrateUpAction(ctx *cli.Context) error {
	return withMigrations(ctx, func(mm *persistence.MigrationManager) error {
		return mm.RunMigrations()
	})
}

func migrateDownAction(ctx *cli.Context) error {
	return withMigrations(ctx, func(mm *persistence.MigrationManager) error {
		return mm.Rollback(ctx.Int("steps"))
	})
}

func migrateVersionAction(ctx *cli.Context) error {
	return withMigrations(ctx, func(mm *persistence.MigrationManager) error {
		version, dirty, err := mm.Version()
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(ctx.App.Writer, "version %d (dirty: %t)\n", version, dirty)
		return nil
	})
}
