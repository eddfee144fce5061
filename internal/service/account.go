// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"

	"codeberg.org/oliverandrich/shortlink/internal/apperror"
	"codeberg.org/oliverandrich/shortlink/internal/credential"
	"codeberg.org/oliverandrich/shortlink/internal/models"
	"codeberg.org/oliverandrich/shortlink/internal/pagination"
)

// CreateAccountRequest holds the parameters for account creation.
type CreateAccountRequest struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

// CreateAccount creates an unverified user together with an activation
// token and hands both to the notifier.
func (s *Service) CreateAccount(ctx context.Context, req CreateAccountRequest) (*models.User, *models.VerificationToken, error) {
	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		return nil, nil, apperror.InvalidValue("Display Name")
	}
	addr, err := mail.ParseAddress(req.Email)
	if err != nil || addr.Address != req.Email {
		return nil, nil, apperror.InvalidValue("Email")
	}

	hash, err := credential.Hash(req.Password)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	user := &models.User{
		ID:           s.newID(),
		DisplayName:  displayName,
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	token := &models.VerificationToken{
		ID:        s.newID(),
		UserID:    user.ID,
		Scope:     models.ScopeActivation,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateUserWithToken(ctx, user, token); err != nil {
		slog.Warn("register_failed", "display_name", displayName, "reason", apperror.KindOf(err).String())
		return nil, nil, err
	}

	slog.Info("register_success", "user_id", user.ID, "display_name", displayName)

	if err := s.notifier.NotifyActivation(ctx, user, token); err != nil {
		slog.Error("activation_notify_failed", "user_id", user.ID, "error", err)
	}

	return user, token, nil
}

// ReadAccount returns the user with the given ID.
func (s *Service) ReadAccount(ctx context.Context, userID string) (*models.User, error) {
	if !validID(userID) {
		return nil, apperror.ErrNotFound
	}
	return s.store.GetUserByID(ctx, userID)
}

// VerifyAccount consumes an activation token and marks its owner as
// verified. A token can be used once. If marking the user fails the error
// is logged and the token is still returned.
func (s *Service) VerifyAccount(ctx context.Context, tokenID, userID string) (*models.VerificationToken, error) {
	if !validID(tokenID) || !validID(userID) {
		return nil, apperror.ErrNotFound
	}

	token, err := s.store.GetVerificationToken(ctx, tokenID, userID, models.ScopeActivation)
	if err != nil {
		return nil, err
	}

	if err := s.store.ConsumeVerificationToken(ctx, token, s.now()); err != nil {
		slog.Error("verify_update_failed", "user_id", userID, "token_id", tokenID, "error", err)
		return token, nil
	}

	slog.Info("verify_success", "user_id", userID)
	return token, nil
}

// ChangePasswordRequest holds the parameters for a password change.
type ChangePasswordRequest struct {
	UserID          string `json:"-"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// ChangePassword replaces the user's password after checking the current
// one. A mismatched confirmation or a wrong current password is a login
// error.
func (s *Service) ChangePassword(ctx context.Context, req ChangePasswordRequest) (*models.User, error) {
	if req.NewPassword != req.ConfirmPassword {
		return nil, apperror.ErrLogin
	}
	if !validID(req.UserID) {
		return nil, apperror.ErrLogin
	}

	user, err := s.store.GetUserByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.ErrLogin
		}
		return nil, err
	}

	if !credential.Verify(user.PasswordHash, req.CurrentPassword) {
		slog.Warn("password_change_failed", "user_id", user.ID, "reason", "invalid_password")
		return nil, apperror.ErrLogin
	}

	hash, err := credential.Hash(req.NewPassword)
	if err != nil {
		return nil, err
	}

	updated, err := s.store.UpdatePasswordHash(ctx, user.ID, hash, s.now())
	if err != nil {
		return nil, err
	}

	slog.Info("password_change_success", "user_id", user.ID)
	return updated, nil
}

// ProfilePage is one page of a user's links.
type ProfilePage struct {
	User       *models.User       `json:"user"`
	Links      []models.ShortLink `json:"links"`
	Page       int                `json:"page"`
	TotalLinks int                `json:"total_links"`
	TotalPages int                `json:"total_pages"`
	Window     []int              `json:"window"`
	Prev       int                `json:"prev,omitempty"`
	Next       int                `json:"next,omitempty"`
}

// ReadProfilePage returns the given page of the user's links, most
// recently updated first.
func (s *Service) ReadProfilePage(ctx context.Context, userID string, page int) (*ProfilePage, error) {
	if page < 1 {
		return nil, apperror.ErrBadRequest
	}
	if !validID(userID) {
		return nil, apperror.ErrNotFound
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	count, err := s.store.CountLinksByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	links, err := s.store.ListLinksByUser(ctx, userID, pagination.PageSize, pagination.Offset(page, pagination.PageSize))
	if err != nil {
		return nil, err
	}

	total := pagination.TotalPages(count, pagination.PageSize)
	return &ProfilePage{
		User:       user,
		Links:      links,
		Page:       page,
		TotalLinks: count,
		TotalPages: total,
		Window:     pagination.Window(page, total),
		Prev:       pagination.Prev(page),
		Next:       pagination.Next(page, total),
	}, nil
}
