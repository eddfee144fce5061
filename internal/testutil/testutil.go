// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"

	"codeberg.org/oliverandrich/shortlink/internal/credential"
	"codeberg.org/oliverandrich/shortlink/internal/database"
	"codeberg.org/oliverandrich/shortlink/internal/models"
	"codeberg.org/oliverandrich/shortlink/internal/repository"
)

// TestPassword satisfies the password policy. Users created by NewTestUser
// have this password.
const TestPassword = "S3curePassw0rd!"

var testPasswordHash = sync.OnceValue(func() string {
	hash, err := credential.Hash(TestPassword)
	if err != nil {
		panic(err)
	}
	return hash
})

// NewTestDB creates an in-memory SQLite database for tests.
// Returns both the database connection and the repository for convenience.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	repo := repository.New(db)
	return db, repo
}

// NewTestUser creates an unverified user with TestPassword and its
// activation token.
func NewTestUser(t *testing.T, repo *repository.Repository, displayName string) (*models.User, *models.VerificationToken) {
	t.Helper()
	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.NewString(),
		DisplayName:  displayName,
		Email:        displayName + "@example.com",
		PasswordHash: testPasswordHash(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	token := &models.VerificationToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Scope:     models.ScopeActivation,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.CreateUserWithToken(context.Background(), user, token))
	return user, token
}

// NewTestLink creates a link with the given slug, owned by ownerID if it is
// not nil. updatedAt orders links in profile listings.
func NewTestLink(t *testing.T, repo *repository.Repository, ownerID *string, slug string, updatedAt time.Time) *models.ShortLink {
	t.Helper()
	link := &models.ShortLink{
		ID:        uuid.NewString(),
		UserID:    ownerID,
		Slug:      slug,
		URL:       "https://example.com/" + slug,
		CreatedAt: updatedAt,
		UpdatedAt: updatedAt,
	}
	require.NoError(t, repo.CreateLink(context.Background(), link))
	return link
}

// NewEchoContext creates an Echo context for handler tests.
func NewEchoContext(e *echo.Echo, method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, path string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}
