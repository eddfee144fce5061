// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"codeberg.org/oliverandrich/shortlink/internal/config"
	"codeberg.org/oliverandrich/shortlink/internal/database"
	"codeberg.org/oliverandrich/shortlink/internal/server"
)

type migrateFunc func(db *sql.DB, dialect database.Dialect) error

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage the database schema",
		Flags: config.Flags(),
		Commands: []*cli.Command{
			{
				Name:   "up",
				Usage:  "Apply all pending migrations",
				Action: migrateAction("up", database.RunMigrations),
			},
			{
				Name:   "down",
				Usage:  "Roll back the last migration",
				Action: migrateAction("down", database.MigrateDown),
			},
			{
				Name:   "reset",
				Usage:  "Roll back all migrations",
				Action: migrateAction("reset", database.MigrateReset),
			},
			{
				Name:   "status",
				Usage:  "Print the current schema version",
				Action: migrateStatus,
			},
		},
	}
}

func migrateAction(name string, fn migrateFunc) cli.ActionFunc {
	return func(_ context.Context, cmd *cli.Command) error {
		cfg := config.NewFromCLI(cmd)
		server.SetupLogger(cfg.Log.Level, cfg.Log.Format)

		db, err := database.Connect(cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer func() { _ = db.Close() }()

		dialect := database.DialectFor(cfg.Database.DSN)
		if err := fn(db.DB, dialect); err != nil {
			return fmt.Errorf("migrate %s: %w", name, err)
		}

		version, err := database.MigrationVersion(db.DB, dialect)
		if err != nil {
			return err
		}
		slog.Info("migrate_done", "action", name, "version", version)
		return nil
	}
}

func migrateStatus(_ context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)

	db, err := database.Connect(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	version, err := database.MigrationVersion(db.DB, database.DialectFor(cfg.Database.DSN))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.Root().Writer, "schema version %d\n", version)
	return err
}
