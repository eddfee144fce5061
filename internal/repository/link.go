// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"

	"codeberg.org/oliverandrich/shortlink/internal/apperror"
	"codeberg.org/oliverandrich/shortlink/internal/models"
)

const linkColumns = `id, user_id, slug, url, visits, created_at, updated_at`

// CreateLink inserts a new short link.
func (r *Repository) CreateLink(ctx context.Context, link *models.ShortLink) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(
		`INSERT INTO links (`+linkColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		link.ID, link.UserID, link.Slug, link.URL, link.Visits, link.CreatedAt, link.UpdatedAt)
	return apperror.FromStorage(err)
}

// GetLinkBySlug retrieves a short link by slug.
func (r *Repository) GetLinkBySlug(ctx context.Context, slug string) (*models.ShortLink, error) {
	var link models.ShortLink
	err := r.db.GetContext(ctx, &link, r.db.Rebind(`SELECT `+linkColumns+` FROM links WHERE slug = ?`), slug)
	if err != nil {
		return nil, apperror.FromStorage(err)
	}
	return &link, nil
}

// IncrementVisits adds one visit to the link and returns the new count.
func (r *Repository) IncrementVisits(ctx context.Context, id string) (int64, error) {
	var visits int64
	err := r.db.GetContext(ctx, &visits, r.db.Rebind(
		`UPDATE links SET visits = visits + 1 WHERE id = ? RETURNING visits`), id)
	if err != nil {
		return 0, apperror.FromStorage(err)
	}
	return visits, nil
}

// ListLinksByUser returns a page of the user's links, most recently updated
// first.
func (r *Repository) ListLinksByUser(ctx context.Context, userID string, limit, offset int) ([]models.ShortLink, error) {
	links := []models.ShortLink{}
	err := r.db.SelectContext(ctx, &links, r.db.Rebind(
		`SELECT `+linkColumns+` FROM links WHERE user_id = ? ORDER BY updated_at DESC, id LIMIT ? OFFSET ?`),
		userID, limit, offset)
	if err != nil {
		return nil, apperror.FromStorage(err)
	}
	return links, nil
}

// CountLinksByUser returns the number of links owned by the user.
func (r *Repository) CountLinksByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, r.db.Rebind(`SELECT count(*) FROM links WHERE user_id = ?`), userID)
	if err != nil {
		return 0, apperror.FromStorage(err)
	}
	return count, nil
}
