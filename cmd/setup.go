package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/festa/internal/shared"
)

// Setup writes a config file when none exists and migrates the local database.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err == nil {
		r.logger.Info("using existing config file", "path", configPath)
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.logger.Info("config file created", "path", configPath)
		}
	}

	db := r.db
	if db == nil {
		r.logger.Info("initializing database", "path", r.config.Database.Path)
		opened, err := shared.NewDatabase(r.config.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to create database: %w", err)
		}
		defer opened.Close()
		shared.ConfigureDatabase(opened, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
		db = opened
	}

	if cmd.Bool("rollback") {
		r.logger.Info("rolling back latest migration")
		if err := shared.RollbackMigration(db); err != nil {
			return fmt.Errorf("%w: %w", shared.ErrStorage, err)
		}
		return r.writePlainln("✓ Rolled back latest migration")
	}

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)

	r.writePlainln("✓ Setup complete")
	return r.writePlainln("Next: run 'festa auth login --id <id>' to sign in")
}
