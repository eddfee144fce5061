// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// ShortLink maps a slug to a target URL. UserID is nil for anonymous links.
type ShortLink struct { //nolint:govet // fieldalignment: readability over optimization
	ID        string    `db:"id" json:"id"`
	UserID    *string   `db:"user_id" json:"user_id,omitempty"`
	Slug      string    `db:"slug" json:"slug"`
	URL       string    `db:"url" json:"url"`
	Visits    int64     `db:"visits" json:"visits"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
