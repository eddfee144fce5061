// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package worker runs the background job server that delivers activation
// mails.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"codeberg.org/oliverandrich/shortlink/internal/tasks"
)

// Server wraps the asynq server and its routing.
type Server struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

// NewServer creates a worker server consuming the default queue.
func NewServer(redisOpt asynq.RedisClientOpt, concurrency int, mailer Mailer) *Server {
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				tasks.QueueDefault: 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(logTaskError),
			Logger:       newLogger(slog.Default()),
		},
	)

	return &Server{
		server: server,
		mux:    NewMux(mailer),
	}
}

// NewMux registers every task handler.
func NewMux(mailer Mailer) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeActivationEmail, NewActivationHandler(mailer).ProcessTask)
	return mux
}

// Start processes tasks in the background.
func (s *Server) Start() error {
	slog.Info("worker_starting")
	if err := s.server.Start(s.mux); err != nil {
		return fmt.Errorf("starting worker: %w", err)
	}
	return nil
}

// Shutdown stops fetching new tasks and waits for active ones.
func (s *Server) Shutdown() {
	slog.Info("worker_stopping")
	s.server.Shutdown()
	slog.Info("worker_stopped")
}

func logTaskError(ctx context.Context, task *asynq.Task, err error) {
	retry, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	slog.Error("task_failed",
		"task_type", task.Type(),
		"retry", retry,
		"max_retry", maxRetry,
		"error", err,
	)
}

// logger adapts slog to the asynq.Logger interface.
type logger struct {
	l *slog.Logger
}

func newLogger(l *slog.Logger) *logger {
	return &logger{l: l.With("component", "asynq")}
}

func (l *logger) Debug(args ...any) { l.l.Debug(fmt.Sprint(args...)) }
func (l *logger) Info(args ...any)  { l.l.Info(fmt.Sprint(args...)) }
func (l *logger) Warn(args ...any)  { l.l.Warn(fmt.Sprint(args...)) }
func (l *logger) Error(args ...any) { l.l.Error(fmt.Sprint(args...)) }

func (l *logger) Fatal(args ...any) {
	l.l.Error(fmt.Sprint(args...))
	os.Exit(1)
}
