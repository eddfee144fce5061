// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package service implements the operations of the link shortener: account
// creation and verification, login, password changes, link creation and
// resolution, and the paged profile listing.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"codeberg.org/oliverandrich/shortlink/internal/linkslug"
	"codeberg.org/oliverandrich/shortlink/internal/models"
)

// Store is the persistence the service needs. Implementations return
// apperror values for missing rows and constraint violations.
type Store interface {
	CreateUserWithToken(ctx context.Context, user *models.User, token *models.VerificationToken) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByDisplayName(ctx context.Context, displayName string) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id, passwordHash string, at time.Time) (*models.User, error)

	GetVerificationToken(ctx context.Context, id, userID string, scope models.TokenScope) (*models.VerificationToken, error)
	ConsumeVerificationToken(ctx context.Context, token *models.VerificationToken, at time.Time) error

	CreateLink(ctx context.Context, link *models.ShortLink) error
	GetLinkBySlug(ctx context.Context, slug string) (*models.ShortLink, error)
	IncrementVisits(ctx context.Context, id string) (int64, error)
	ListLinksByUser(ctx context.Context, userID string, limit, offset int) ([]models.ShortLink, error)
	CountLinksByUser(ctx context.Context, userID string) (int, error)
}

// Notifier hands a new account's activation token to the mailer. Delivery
// is asynchronous and not acknowledged.
type Notifier interface {
	NotifyActivation(ctx context.Context, user *models.User, token *models.VerificationToken) error
}

type noopNotifier struct{}

func (noopNotifier) NotifyActivation(context.Context, *models.User, *models.VerificationToken) error {
	return nil
}

// Service implements all operations on top of a Store.
type Service struct {
	store    Store
	policy   *linkslug.Policy
	notifier Notifier
	now      func() time.Time
	newID    func() string
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDGenerator sets the generator for record IDs.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		s.newID = newID
	}
}

// New creates a Service. A nil notifier discards activation notifications.
func New(store Store, policy *linkslug.Policy, notifier Notifier, opts ...Option) *Service {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	s := &Service{
		store:    store,
		policy:   policy,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// validID reports whether id can name a stored record.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
