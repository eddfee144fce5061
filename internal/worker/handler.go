// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"codeberg.org/oliverandrich/shortlink/internal/i18n"
	"codeberg.org/oliverandrich/shortlink/internal/services/email"
	"codeberg.org/oliverandrich/shortlink/internal/tasks"
)

// Mailer sends activation mails.
type Mailer interface {
	SendActivation(ctx context.Context, a email.Activation) error
}

// ActivationHandler processes email:activation tasks.
type ActivationHandler struct {
	mailer Mailer
}

// NewActivationHandler creates the handler.
func NewActivationHandler(mailer Mailer) *ActivationHandler {
	return &ActivationHandler{mailer: mailer}
}

// ProcessTask implements asynq.Handler.
func (h *ActivationHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	retry, _ := asynq.GetRetryCount(ctx)
	log := slog.With("task_type", t.Type(), "retry", retry)

	payload, err := tasks.ParseActivationPayload(t)
	if err != nil {
		log.Error("activation_payload_invalid", "error", err)
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	ctx = i18n.WithLocale(ctx, i18n.ParseLocale(payload.Locale))
	err = h.mailer.SendActivation(ctx, email.Activation{
		To:          payload.Email,
		DisplayName: payload.DisplayName,
		TokenID:     payload.TokenID,
		UserID:      payload.UserID,
	})
	if err != nil {
		log.Warn("activation_send_failed", "user_id", payload.UserID, "error", err)
		return fmt.Errorf("sending activation mail to user %s: %w", payload.UserID, err)
	}

	log.Info("activation_sent", "user_id", payload.UserID)
	return nil
}
