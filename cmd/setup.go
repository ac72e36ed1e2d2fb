package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/classify/internal/shared"
	"github.com/desertthunder/classify/internal/ui"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the embedded example config to --path, or with --resolved
// the currently loaded config including .env and environment overrides.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("path")
	if !cmd.Bool("resolved") {
		if err := shared.CreateConfigFile(path); err != nil {
			return err
		}
	} else {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s", path)
		}
		if err := shared.SaveConfig(path, r.cfg()); err != nil {
			return err
		}
	}
	r.logger.Info("config file created", "path", path)
	return r.writePlainln(ui.Styles.OK("Config written to %s", path))
}

// SetupDatabase creates the database file and applies pending migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	path := r.cfg().Database.Path
	if path == "" {
		return fmt.Errorf("%w: database path", shared.ErrMissingConfig)
	}

	r.logger.Info("initializing database", "path", path)
	db, err := shared.NewDatabase(path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	applied, err := shared.ApplyPending(db)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if len(applied) == 0 {
		return r.writePlainln(ui.Styles.OK("Database %s is up to date", path))
	}
	return r.writePlainln(ui.Styles.OK("Applied migrations %v to %s", applied, path))
}

// RollbackDatabase reverts the most recent migration.
func (r *Runner) RollbackDatabase(ctx context.Context, cmd *cli.Command) error {
	path := r.cfg().Database.Path
	if path == "" {
		return fmt.Errorf("%w: database path", shared.ErrMissingConfig)
	}

	db, err := shared.NewDatabase(path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := shared.RollbackMigration(db); err != nil {
		return err
	}
	return r.writePlainln(ui.Styles.OK("Rolled back latest migration on %s", path))
}
