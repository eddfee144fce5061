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

const userColumns = `id, display_name, email, email_verified, password_hash, created_at, updated_at`

// CreateUserWithToken inserts the user and its activation token in one
// transaction.
func (r *Repository) CreateUserWithToken(ctx context.Context, user *models.User, token *models.VerificationToken) error {
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(
			`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`),
			user.ID, user.DisplayName, user.Email, user.EmailVerified, user.PasswordHash,
			user.CreatedAt, user.UpdatedAt); err != nil {
			return err
		}
		return insertToken(ctx, tx, token)
	})
	return apperror.FromStorage(err)
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, r.db.Rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	if err != nil {
		return nil, apperror.FromStorage(err)
	}
	return &user, nil
}

// GetUserByDisplayName retrieves a user by display name.
func (r *Repository) GetUserByDisplayName(ctx context.Context, displayName string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, r.db.Rebind(`SELECT `+userColumns+` FROM users WHERE display_name = ?`), displayName)
	if err != nil {
		return nil, apperror.FromStorage(err)
	}
	return &user, nil
}

// UpdatePasswordHash replaces a user's password hash and returns the
// updated user.
func (r *Repository) UpdatePasswordHash(ctx context.Context, id, passwordHash string, at time.Time) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, r.db.Rebind(
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ? RETURNING `+userColumns),
		passwordHash, at, id)
	if err != nil {
		return nil, apperror.FromStorage(err)
	}
	return &user, nil
}
