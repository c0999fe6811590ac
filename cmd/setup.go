package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/playsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the embedded example config to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Config written to %s\n", path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Fill in [credentials.spotify] and [credentials.youtube]\n")
	r.writePlain("2. Add a [[pairs]] entry per playlist pair\n")
	r.writePlain("3. Run 'playsync auth spotify' and 'playsync auth youtube'\n")
	return nil
}

// SetupDatabase initializes the database, runs migrations and prints their status.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := r.database(true)
	if err != nil {
		return err
	}

	if cmd.Bool("rollback") {
		if err := shared.RollbackMigration(db); err != nil {
			return err
		}
		r.logger.Warn("rolled back most recent migration", "path", r.config.Database.Path)
	}

	statuses, err := shared.MigrationStatuses(db)
	if err != nil {
		return fmt.Errorf("failed to read migration status: %w", err)
	}

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	r.writePlain("✓ Database ready at %s\n", r.config.Database.Path)
	for _, s := range statuses {
		mark := "✗"
		if s.Applied {
			mark = "✓"
		}
		r.writePlain("  %s %04d %s\n", mark, s.Version, s.Name)
	}
	return nil
}
