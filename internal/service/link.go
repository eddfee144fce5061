// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package service

import (
	"context"
	"errors"
	"log/slog"

	"codeberg.org/oliverandrich/shortlink/internal/apperror"
	"codeberg.org/oliverandrich/shortlink/internal/models"
)

// generateAttempts bounds retries of generated slugs that collide.
const generateAttempts = 3

var errSlugTaken = apperror.DuplicateValue("Short URL")

// CreateLinkRequest holds the parameters for link creation. An empty Slug
// requests a generated one; a nil OwnerID creates an anonymous link.
type CreateLinkRequest struct {
	URL     string  `json:"url"`
	Slug    string  `json:"slug"`
	OwnerID *string `json:"-"`
}

// CreateLink validates the target and slug and stores a new link.
func (s *Service) CreateLink(ctx context.Context, req CreateLinkRequest) (*models.ShortLink, error) {
	if err := s.policy.ValidateTarget(req.URL); err != nil {
		return nil, err
	}

	slug, generated, err := s.policy.ResolveSlug(req.Slug)
	if err != nil {
		return nil, err
	}

	if req.OwnerID != nil && !validID(*req.OwnerID) {
		return nil, apperror.UnknownValue("Owner")
	}

	for attempt := 1; ; attempt++ {
		now := s.now()
		link := &models.ShortLink{
			ID:        s.newID(),
			UserID:    req.OwnerID,
			Slug:      slug,
			URL:       req.URL,
			CreatedAt: now,
			UpdatedAt: now,
		}

		err := s.store.CreateLink(ctx, link)
		if err == nil {
			slog.Info("link_created", "slug", slug, "generated", generated)
			return link, nil
		}
		if !generated || !errors.Is(err, errSlugTaken) || attempt == generateAttempts {
			return nil, err
		}

		slog.Warn("slug_collision", "slug", slug, "attempt", attempt)
		if slug, err = s.policy.Generate(); err != nil {
			return nil, err
		}
	}
}

// ReadLink resolves a slug and counts the visit. A failure to count is
// logged and does not fail the read.
func (s *Service) ReadLink(ctx context.Context, slug string) (*models.ShortLink, error) {
	link, err := s.store.GetLinkBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	visits, err := s.store.IncrementVisits(ctx, link.ID)
	if err != nil {
		slog.Warn("visit_count_failed", "slug", slug, "error", err)
		return link, nil
	}

	link.Visits = visits
	return link, nil
}
