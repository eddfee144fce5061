// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// TokenScope is the purpose of a verification token.
type TokenScope string

// ScopeActivation tokens verify a new account's email address.
const ScopeActivation TokenScope = "activation"

// VerificationToken is issued together with a new user and consumed when
// the user verifies their email address.
type VerificationToken struct { //nolint:govet // fieldalignment: readability over optimization
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"user_id"`
	Scope     TokenScope `db:"scope" json:"scope"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}
