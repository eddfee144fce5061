// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/oliverandrich/shortlink/internal/config"
	"codeberg.org/oliverandrich/shortlink/internal/handlers"
	"codeberg.org/oliverandrich/shortlink/internal/i18n"
	"codeberg.org/oliverandrich/shortlink/internal/linkslug"
	"codeberg.org/oliverandrich/shortlink/internal/models"
	"codeberg.org/oliverandrich/shortlink/internal/repository/memory"
	"codeberg.org/oliverandrich/shortlink/internal/service"
	"codeberg.org/oliverandrich/shortlink/internal/services/session"
	"codeberg.org/oliverandrich/shortlink/internal/testutil"
)

const testHashKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

type capturingNotifier struct {
	mu     sync.Mutex
	tokens map[string]string // display name -> token id
}

func (n *capturingNotifier) NotifyActivation(_ context.Context, user *models.User, token *models.VerificationToken) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.tokens[user.DisplayName] = token.ID
	return nil
}

type testApp struct {
	e        *echo.Echo
	store    *memory.Store
	notifier *capturingNotifier
	sessions *session.Manager
}

func newTestConfig() *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{Host: "localhost", Port: 8080, BaseURL: "https://urus.ai", MaxBodySize: 1},
		Session: config.SessionConfig{CookieName: "_session", MaxAge: 3600, HashKey: testHashKey},
		Links:   config.LinksConfig{OwnDomain: "urus.ai"},
	}
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	require.NoError(t, i18n.Init())

	cfg := newTestConfig()
	store := memory.New()
	notifier := &capturingNotifier{tokens: map[string]string{}}
	svc := service.New(store, linkslug.NewPolicy(cfg.Links.OwnDomain), notifier)

	sessions, err := session.NewManager(&cfg.Session, false)
	require.NoError(t, err)

	h := handlers.New(svc, sessions, nil, cfg.Server.BaseURL)
	return &testApp{
		e:        New(cfg, h, sessions, svc),
		store:    store,
		notifier: notifier,
		sessions: sessions,
	}
}

func (a *testApp) do(method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = testutil.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "_session" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handlers.ErrorResponse {
	t.Helper()
	var body handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// registerAndLogin walks through registration, activation and login.
func (a *testApp) registerAndLogin(t *testing.T, name string) (*models.User, *http.Cookie) {
	t.Helper()
	rec := a.do(http.MethodPost, "/api/users",
		`{"display_name":"`+name+`","email":"`+name+`@example.com","password":"`+testutil.TestPassword+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var user models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.NotContains(t, rec.Body.String(), "password_hash")

	rec = a.do(http.MethodGet, "/verify/"+a.notifier.tokens[name]+"/"+user.ID, "")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	rec = a.do(http.MethodPost, "/api/sessions",
		`{"display_name":"`+name+`","password":"`+testutil.TestPassword+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	return &user, sessionCookie(t, rec)
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAccountLinkAndProfileFlow(t *testing.T) {
	app := newTestApp(t)
	user, cookie := app.registerAndLogin(t, "alice")

	rec := app.do(http.MethodPost, "/api/links", `{"url":"https://example.com/docs","slug":"docs"}`, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created handlers.LinkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "https://urus.ai/docs", created.ShortURL)
	require.NotNil(t, created.UserID)
	assert.Equal(t, user.ID, *created.UserID)

	rec = app.do(http.MethodGet, "/docs", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "https://example.com/docs", rec.Header().Get("Location"))

	rec = app.do(http.MethodGet, "/api/profile/links?page=1", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var page handlers.ProfileLinksResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.NotNil(t, page.ProfilePage)
	require.Len(t, page.Links, 1)
	assert.Equal(t, int64(1), page.Links[0].Visits)
	assert.Equal(t, 1, page.TotalLinks)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, []int{1}, page.Window)
	assert.Equal(t, "1 link", page.Summary)
}

func TestAnonymousLink(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodPost, "/api/links", `{"url":"example.org"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created handlers.LinkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Nil(t, created.UserID)
	assert.Len(t, created.Slug, linkslug.GeneratedLength)

	rec = app.do(http.MethodGet, "/"+created.Slug, "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "http://example.org", rec.Header().Get("Location"))
}

func TestLinkErrors(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name string
		body string
		code string
	}{
		{"already shortened", `{"url":"https://bit.ly/abc"}`, "link_already_shortened"},
		{"own domain", `{"url":"https://urus.ai/abc"}`, "link_already_shortened"},
		{"not a url", `{"url":"not a url"}`, "invalid_link"},
		{"bad slug", `{"url":"https://example.com","slug":"a b"}`, "invalid_characters_in_url"},
		{"malformed body", `{"url":`, "bad_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(http.MethodPost, "/api/links", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestDuplicateSlug(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodPost, "/api/links", `{"url":"https://example.com","slug":"taken"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = app.do(http.MethodPost, "/api/links", `{"url":"https://example.org","slug":"taken"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "duplicate_value", body.Code)
	assert.Equal(t, "Short URL is already in use!", body.Error)
}

func TestUnknownSlug(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodGet, "/missing", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Code)
}

func TestUnknownRoute(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodGet, "/api/nothing/here", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Code)
}

func TestRegisterErrorsLocalized(t *testing.T) {
	app := newTestApp(t)
	app.registerAndLogin(t, "bob")

	req := testutil.NewRequest(http.MethodPost, "/api/users",
		strings.NewReader(`{"display_name":"bob","email":"other@example.com","password":"`+testutil.TestPassword+`"}`))
	req.Header.Set("Accept-Language", "de-DE")
	rec := httptest.NewRecorder()
	app.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "duplicate_value", body.Code)
	assert.Equal(t, "Anzeigename wird bereits verwendet!", body.Error)
}

func TestRegisterWeakPassword(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodPost, "/api/users", `{"display_name":"carol","email":"carol@example.com","password":"short"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "password_too_short", decodeError(t, rec).Code)
}

func TestLoginUnverified(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodPost, "/api/users",
		`{"display_name":"dave","email":"dave@example.com","password":"`+testutil.TestPassword+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = app.do(http.MethodPost, "/api/sessions", `{"display_name":"dave","password":"`+testutil.TestPassword+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "email_not_verified", decodeError(t, rec).Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestLoginWrongPassword(t *testing.T) {
	app := newTestApp(t)
	app.registerAndLogin(t, "erin")

	rec := app.do(http.MethodPost, "/api/sessions", `{"display_name":"erin","password":"Wrong-passw0rd"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "login_error", decodeError(t, rec).Code)
}

func TestVerifyInvalidLinkStillRedirects(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodGet, "/verify/not-a-uuid/also-not", "")

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestLoginSlugCannotHijackVerifyRedirect(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodPost, "/api/links", `{"url":"https://evil.example.com","slug":"login"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "duplicate_value", decodeError(t, rec).Code)

	rec = app.do(http.MethodGet, "/verify/not-a-uuid/also-not", "")
	require.Equal(t, "/login", rec.Header().Get("Location"))

	rec = app.do(http.MethodGet, "/login", "")
	assert.NotEqual(t, "https://evil.example.com", rec.Header().Get("Location"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReservedSlugsRejected(t *testing.T) {
	app := newTestApp(t)

	for _, slug := range []string{"health", "api", "verify"} {
		rec := app.do(http.MethodPost, "/api/links", `{"url":"https://example.com","slug":"`+slug+`"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code, slug)
	}
}

func TestProfileRequiresSession(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodGet, "/api/profile/links", "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", decodeError(t, rec).Code)
}

func TestProfileBadPage(t *testing.T) {
	app := newTestApp(t)
	_, cookie := app.registerAndLogin(t, "frank")

	rec := app.do(http.MethodGet, "/api/profile/links?page=0", "", cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "bad_request", decodeError(t, rec).Code)

	rec = app.do(http.MethodGet, "/api/profile/links?page=abc", "", cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChangePassword(t *testing.T) {
	app := newTestApp(t)
	_, cookie := app.registerAndLogin(t, "grace")
	const newPassword = "N3w-Passw0rd!"

	rec := app.do(http.MethodPost, "/api/profile/password",
		`{"current_password":"`+testutil.TestPassword+`","new_password":"`+newPassword+`","confirm_password":"mismatch"}`, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "login_error", decodeError(t, rec).Code)

	rec = app.do(http.MethodPost, "/api/profile/password",
		`{"current_password":"`+testutil.TestPassword+`","new_password":"`+newPassword+`","confirm_password":"`+newPassword+`"}`, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.do(http.MethodPost, "/api/sessions", `{"display_name":"grace","password":"`+newPassword+`"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogout(t *testing.T) {
	app := newTestApp(t)
	_, cookie := app.registerAndLogin(t, "heidi")

	rec := app.do(http.MethodDelete, "/api/sessions", "", cookie)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	cleared := sessionCookie(t, rec)
	assert.Empty(t, cleared.Value)
	assert.Equal(t, -1, cleared.MaxAge)
}

func TestTrailingSlashRemoved(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodGet, "/health/", "")

	assert.Equal(t, http.StatusOK, rec.Code)
}
