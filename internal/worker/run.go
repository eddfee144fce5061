// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"codeberg.org/oliverandrich/shortlink/internal/config"
	"codeberg.org/oliverandrich/shortlink/internal/i18n"
	"codeberg.org/oliverandrich/shortlink/internal/server"
	"codeberg.org/oliverandrich/shortlink/internal/services/email"
)

// Run starts the worker with the given CLI command and blocks until it
// receives a shutdown signal or ctx is cancelled.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	server.SetupLogger(cfg.Log.Level, cfg.Log.Format)

	if !cfg.QueueEnabled() {
		return fmt.Errorf("worker needs --redis-addr")
	}

	if err := i18n.Init(); err != nil {
		return fmt.Errorf("failed to init i18n: %w", err)
	}

	mailer, err := email.NewService(&cfg.SMTP, cfg.Server.BaseURL)
	if err != nil {
		return fmt.Errorf("failed to create mailer: %w", err)
	}

	slog.Info("starting worker",
		"redis", cfg.Redis.Addr,
		"concurrency", cfg.Worker.Concurrency,
		"smtp_host", cfg.SMTP.Host,
	)

	srv := NewServer(server.RedisOpt(cfg), cfg.Worker.Concurrency, mailer)
	if err := srv.Start(); err != nil {
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		slog.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		slog.Info("context cancelled")
	}

	srv.Shutdown()
	return nil
}
