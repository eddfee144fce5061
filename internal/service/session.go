// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"codeberg.org/oliverandrich/shortlink/internal/apperror"
	"codeberg.org/oliverandrich/shortlink/internal/credential"
	"codeberg.org/oliverandrich/shortlink/internal/models"
)

// dummyHash is verified against for unknown users so that a login attempt
// takes the same time whether or not the account exists.
var dummyHash = sync.OnceValue(func() string {
	hash, _ := credential.Hash("Dummy-password-for-timing-1")
	return hash
})

// CreateSessionRequest holds login credentials.
type CreateSessionRequest struct {
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

// CreateSession authenticates a user. Unknown users and wrong passwords
// both yield a login error; a correct password on an unverified account
// yields EmailNotVerified.
func (s *Service) CreateSession(ctx context.Context, req CreateSessionRequest) (*models.User, error) {
	user, err := s.store.GetUserByDisplayName(ctx, req.DisplayName)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			_ = credential.Verify(dummyHash(), req.Password)
			slog.Warn("login_failed", "display_name", req.DisplayName, "reason", "user_not_found")
			return nil, apperror.ErrLogin
		}
		return nil, err
	}

	if !credential.Verify(user.PasswordHash, req.Password) {
		slog.Warn("login_failed", "display_name", req.DisplayName, "reason", "invalid_password")
		return nil, apperror.ErrLogin
	}

	if !user.EmailVerified {
		slog.Warn("login_failed", "display_name", req.DisplayName, "reason", "email_not_verified")
		return nil, apperror.ErrEmailNotVerified
	}

	slog.Info("login_success", "user_id", user.ID)
	return user, nil
}
