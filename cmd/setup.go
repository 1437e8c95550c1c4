package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/coursefinder/internal/kv"
	"github.com/desertthunder/coursefinder/internal/shared"
	"github.com/urfave/cli/v3"
)

func (r *Runner) configFile() string {
	if r.configPath != "" {
		return r.configPath
	}
	return "config.toml"
}

// SetupConfig writes the default configuration file.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := r.configFile()
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", path)
	return r.writePlain("✓ Wrote %s\n", path)
}

// SetupDatabase prepares the configured storage backend.
//
// SQLite databases are created and migrated; Redis is pinged; the memory driver needs nothing.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Storage

	switch cfg.Driver {
	case "", "sqlite":
		r.logger.Info("initializing database", "path", cfg.Path)

		db, err := shared.NewDatabase(cfg.Path)
		if err != nil {
			return fmt.Errorf("failed to create database: %w", err)
		}
		defer db.Close()

		shared.ConfigureDatabase(db, cfg.MaxOpenConns, cfg.MaxIdleConns)

		r.logger.Info("running database migrations")
		if err := shared.RunMigrationsContext(ctx, db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		applied, err := shared.AppliedMigrations(db)
		if err != nil {
			return err
		}
		r.logger.Infof("setup complete for database: %v", cfg.Path)
		r.writePlain("✓ Database ready: %s\n", cfg.Path)
		for _, m := range applied {
			r.writePlain("  migration %04d applied %s\n", m.Version, m.AppliedAt.Format("2006-01-02 15:04:05"))
		}
		return nil

	case "redis":
		store, err := kv.OpenRedis(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()
		return r.writePlain("✓ Redis reachable at %s (prefix %q)\n", cfg.Redis.Addr, cfg.Redis.Prefix)

	case "memory":
		return r.writePlain("Memory storage needs no setup; nothing will persist between runs\n")

	default:
		return fmt.Errorf("%w: %q", shared.ErrUnknownDriver, cfg.Driver)
	}
}

// SetupRollback reverts the latest SQLite migration.
func (r *Runner) SetupRollback(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Storage
	if cfg.Driver != "" && cfg.Driver != "sqlite" {
		return fmt.Errorf("%w: rollback needs the sqlite driver, got %q", shared.ErrInvalidConfig, cfg.Driver)
	}

	db, err := shared.NewDatabase(cfg.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := shared.RollbackMigration(db); err != nil {
		return fmt.Errorf("failed to roll back: %w", err)
	}
	r.logger.Warn("rolled back latest migration", "path", cfg.Path)
	return r.writePlain("✓ Rolled back latest migration\n")
}
