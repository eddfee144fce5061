// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v3"

	"codeberg.org/oliverandrich/shortlink/internal/config"
	"codeberg.org/oliverandrich/shortlink/internal/database"
	"codeberg.org/oliverandrich/shortlink/internal/handlers"
	"codeberg.org/oliverandrich/shortlink/internal/i18n"
	"codeberg.org/oliverandrich/shortlink/internal/linkslug"
	"codeberg.org/oliverandrich/shortlink/internal/repository"
	"codeberg.org/oliverandrich/shortlink/internal/service"
	"codeberg.org/oliverandrich/shortlink/internal/services/session"
	"codeberg.org/oliverandrich/shortlink/internal/tasks"
)

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	SetupLogger(cfg.Log.Level, cfg.Log.Format)

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
		"own_domain", cfg.Links.OwnDomain,
	)

	// Database (migrations run on open)
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	// i18n
	if initErr := i18n.Init(); initErr != nil {
		return fmt.Errorf("failed to init i18n: %w", initErr)
	}

	repo := repository.New(db)

	// Activation mails
	notifier, closeNotifier := newNotifier(cfg)
	defer closeNotifier()

	svc := service.New(repo, linkslug.NewPolicy(cfg.Links.OwnDomain), notifier)

	sessions, err := session.NewManager(&cfg.Session, cfg.SecureCookies())
	if err != nil {
		return fmt.Errorf("failed to create session manager: %w", err)
	}

	h := handlers.New(svc, sessions, repo, cfg.Server.BaseURL)
	e := New(cfg, h, sessions, svc)

	return startWithGracefulShutdown(ctx, e, cfg)
}

// newNotifier returns the queue notifier when redis is configured and a
// logging fallback otherwise.
func newNotifier(cfg *config.Config) (service.Notifier, func()) {
	if !cfg.QueueEnabled() {
		slog.Warn("job queue disabled, activation links are only logged")
		return tasks.LogNotifier{BaseURL: cfg.Server.BaseURL}, func() {}
	}

	client := asynq.NewClient(RedisOpt(cfg))
	notifier := tasks.NewQueueNotifier(client, i18n.GetLocale)
	return notifier, func() {
		if err := client.Close(); err != nil {
			slog.Error("failed to close queue client", "error", err)
		}
	}
}

// RedisOpt builds the asynq connection options from the configuration.
func RedisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
}

// New builds the echo instance with middleware and routes.
func New(cfg *config.Config, h *handlers.Handlers, sessions *session.Manager, users UserLoader) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handlers.ErrorHandler

	setupMiddleware(e, cfg, sessions, users)
	setupRoutes(e, h)

	return e
}

func startWithGracefulShutdown(ctx context.Context, e *echo.Echo, cfg *config.Config) error {
	errChan := make(chan error, 1)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		slog.Info("Server running", "url", cfg.Server.BaseURL)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Wait for interrupt signal or error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		slog.Info("shutting down server")
	case <-ctx.Done():
		slog.Info("shutting down server")
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}
