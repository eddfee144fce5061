// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package tasks defines the background jobs exchanged between the web
// process and the worker.
package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"codeberg.org/oliverandrich/shortlink/internal/models"
)

const (
	// TypeActivationEmail sends the account activation mail.
	TypeActivationEmail = "email:activation"

	// QueueDefault is the queue activation mails are put on.
	QueueDefault = "default"

	activationMaxRetry = 5
	activationTimeout  = 30 * time.Second
)

// ActivationPayload carries everything the worker needs to build the
// activation mail without reading the database.
type ActivationPayload struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	TokenID     string `json:"token_id"`
	Locale      string `json:"locale,omitempty"`
}

// NewActivationTask builds the activation job for a freshly created account.
func NewActivationTask(user *models.User, token *models.VerificationToken, locale string) (*asynq.Task, error) {
	payload, err := json.Marshal(ActivationPayload{
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		TokenID:     token.ID,
		Locale:      locale,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding activation payload: %w", err)
	}
	return asynq.NewTask(TypeActivationEmail, payload,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(activationMaxRetry),
		asynq.Timeout(activationTimeout),
	), nil
}

// ParseActivationPayload decodes the payload of an activation job.
func ParseActivationPayload(t *asynq.Task) (ActivationPayload, error) {
	var p ActivationPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, err
	}
	if p.UserID == "" || p.TokenID == "" || p.Email == "" {
		return p, fmt.Errorf("incomplete activation payload")
	}
	return p, nil
}

// Enqueuer is the part of *asynq.Client the notifier uses.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueNotifier enqueues activation mails.
type QueueNotifier struct {
	client Enqueuer
	locale func(context.Context) string
}

// NewQueueNotifier creates a notifier on top of an asynq client. locale may
// be nil; it picks the language of the mail from the request context.
func NewQueueNotifier(client Enqueuer, locale func(context.Context) string) *QueueNotifier {
	return &QueueNotifier{client: client, locale: locale}
}

// NotifyActivation enqueues the activation mail and returns without
// waiting for delivery.
func (n *QueueNotifier) NotifyActivation(ctx context.Context, user *models.User, token *models.VerificationToken) error {
	locale := ""
	if n.locale != nil {
		locale = n.locale(ctx)
	}
	task, err := NewActivationTask(user, token, locale)
	if err != nil {
		return err
	}
	info, err := n.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("enqueueing activation mail: %w", err)
	}
	slog.Debug("activation_enqueued", "user_id", user.ID, "task_id", info.ID, "queue", info.Queue)
	return nil
}

// LogNotifier logs the activation link instead of sending mail. It is used
// when no queue is configured.
type LogNotifier struct {
	BaseURL string
}

// NotifyActivation logs the verification URL.
func (n LogNotifier) NotifyActivation(_ context.Context, user *models.User, token *models.VerificationToken) error {
	slog.Info("activation_link", "user_id", user.ID, "url", VerifyURL(n.BaseURL, token.ID, user.ID))
	return nil
}

// VerifyURL returns the link a user follows to activate their account.
func VerifyURL(baseURL, tokenID, userID string) string {
	return fmt.Sprintf("%s/verify/%s/%s", strings.TrimSuffix(baseURL, "/"), tokenID, userID)
}
