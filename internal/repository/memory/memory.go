// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package memory is an in-memory store with the same semantics as the SQL
// repository, including its uniqueness and reference constraints. It backs
// service tests.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"codeberg.org/oliverandrich/shortlink/internal/apperror"
	"codeberg.org/oliverandrich/shortlink/internal/models"
)

// Store is safe for concurrent use. It stores copies, so callers never
// share state with it.
type Store struct {
	mu     sync.RWMutex
	users  map[string]models.User
	tokens map[string]models.VerificationToken
	links  map[string]models.ShortLink

	// FailNext, if set, is returned by the next write and then cleared.
	FailNext error
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		users:  make(map[string]models.User),
		tokens: make(map[string]models.VerificationToken),
		links:  make(map[string]models.ShortLink),
	}
}

func (s *Store) takeFailure() error {
	err := s.FailNext
	s.FailNext = nil
	return err
}

// CreateUserWithToken inserts the user and its activation token atomically.
func (s *Store) CreateUserWithToken(_ context.Context, user *models.User, token *models.VerificationToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFailure(); err != nil {
		return err
	}
	if _, ok := s.users[user.ID]; ok {
		return apperror.DuplicateValue(apperror.UnknownField)
	}
	for _, u := range s.users {
		if u.DisplayName == user.DisplayName {
			return apperror.DuplicateValue("Display Name")
		}
		if u.Email == user.Email {
			return apperror.DuplicateValue("Email")
		}
	}
	if token.UserID != user.ID {
		return apperror.UnknownValue("User")
	}
	if _, ok := s.tokens[token.ID]; ok {
		return apperror.DuplicateValue(apperror.UnknownField)
	}

	s.users[user.ID] = *user
	s.tokens[token.ID] = *token
	return nil
}

// GetUserByID retrieves a user by ID.
func (s *Store) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	return &u, nil
}

// GetUserByDisplayName retrieves a user by display name.
func (s *Store) GetUserByDisplayName(_ context.Context, displayName string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.DisplayName == displayName {
			return &u, nil
		}
	}
	return nil, apperror.ErrNotFound
}

// UpdatePasswordHash replaces a user's password hash.
func (s *Store) UpdatePasswordHash(_ context.Context, id, passwordHash string, at time.Time) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFailure(); err != nil {
		return nil, err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = at
	s.users[id] = u
	return &u, nil
}

// GetVerificationToken retrieves a token matching id, owner and scope.
func (s *Store) GetVerificationToken(_ context.Context, id, userID string, scope models.TokenScope) (*models.VerificationToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tokens[id]
	if !ok || t.UserID != userID || t.Scope != scope {
		return nil, apperror.ErrNotFound
	}
	return &t, nil
}

// ConsumeVerificationToken marks the owner verified and deletes the token.
func (s *Store) ConsumeVerificationToken(_ context.Context, token *models.VerificationToken, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFailure(); err != nil {
		return err
	}
	u, ok := s.users[token.UserID]
	if !ok {
		return apperror.ErrNotFound
	}
	u.EmailVerified = true
	u.UpdatedAt = at
	s.users[u.ID] = u
	delete(s.tokens, token.ID)
	return nil
}

// CreateLink inserts a new short link.
func (s *Store) CreateLink(_ context.Context, link *models.ShortLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFailure(); err != nil {
		return err
	}
	if link.Visits < 0 {
		return apperror.InvalidValue("Visits")
	}
	if link.UserID != nil {
		if _, ok := s.users[*link.UserID]; !ok {
			return apperror.UnknownValue("Owner")
		}
	}
	if _, ok := s.links[link.Slug]; ok {
		return apperror.DuplicateValue("Short URL")
	}

	stored := *link
	if link.UserID != nil {
		owner := *link.UserID
		stored.UserID = &owner
	}
	s.links[link.Slug] = stored
	return nil
}

// GetLinkBySlug retrieves a short link by slug.
func (s *Store) GetLinkBySlug(_ context.Context, slug string) (*models.ShortLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.links[slug]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	return copyLink(l), nil
}

// IncrementVisits adds one visit to the link and returns the new count.
func (s *Store) IncrementVisits(_ context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFailure(); err != nil {
		return 0, err
	}
	for slug, l := range s.links {
		if l.ID == id {
			l.Visits++
			s.links[slug] = l
			return l.Visits, nil
		}
	}
	return 0, apperror.ErrNotFound
}

// ListLinksByUser returns a page of the user's links, most recently updated
// first.
func (s *Store) ListLinksByUser(_ context.Context, userID string, limit, offset int) ([]models.ShortLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owned := s.ownedBy(userID)
	slices.SortFunc(owned, func(a, b models.ShortLink) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	links := []models.ShortLink{}
	if offset >= len(owned) {
		return links, nil
	}
	end := min(offset+limit, len(owned))
	for _, l := range owned[offset:end] {
		links = append(links, *copyLink(l))
	}
	return links, nil
}

// CountLinksByUser returns the number of links owned by the user.
func (s *Store) CountLinksByUser(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.ownedBy(userID)), nil
}

func (s *Store) ownedBy(userID string) []models.ShortLink {
	var owned []models.ShortLink
	for _, l := range s.links {
		if l.UserID != nil && *l.UserID == userID {
			owned = append(owned, l)
		}
	}
	return owned
}

func copyLink(l models.ShortLink) *models.ShortLink {
	if l.UserID != nil {
		owner := *l.UserID
		l.UserID = &owner
	}
	return &l
}
