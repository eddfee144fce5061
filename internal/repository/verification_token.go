// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"github.com/vinovest/sqlx"

	"codeberg.org/oliverandrich/shortlink/internal/apperror"
	"codeberg.org/oliverandrich/shortlink/internal/models"
)

const tokenColumns = `id, user_id, scope, created_at, updated_at`

func insertToken(ctx context.Context, tx *sqlx.Tx, token *models.VerificationToken) error {
	_, err := tx.ExecContext(ctx, tx.Rebind(
		`INSERT INTO verification_tokens (`+tokenColumns+`) VALUES (?, ?, ?, ?, ?)`),
		token.ID, token.UserID, string(token.Scope), token.CreatedAt, token.UpdatedAt)
	return err
}

// GetVerificationToken retrieves a token matching id, owner and scope.
func (r *Repository) GetVerificationToken(ctx context.Context, id, userID string, scope models.TokenScope) (*models.VerificationToken, error) {
	var token models.VerificationToken
	err := r.db.GetContext(ctx, &token, r.db.Rebind(
		`SELECT `+tokenColumns+` FROM verification_tokens WHERE id = ? AND user_id = ? AND scope = ?`),
		id, userID, string(scope))
	if err != nil {
		return nil, apperror.FromStorage(err)
	}
	return &token, nil
}

// ConsumeVerificationToken marks the token's owner as verified and deletes
// the token in one transaction.
func (r *Repository) ConsumeVerificationToken(ctx context.Context, token *models.VerificationToken, at time.Time) error {
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(
			`UPDATE users SET email_verified = ?, updated_at = ? WHERE id = ?`),
			true, at, token.UserID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM verification_tokens WHERE id = ?`), token.ID)
		return err
	})
	return apperror.FromStorage(err)
}
