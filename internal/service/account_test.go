// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/oliverandrich/shortlink/internal/apperror"
	"codeberg.org/oliverandrich/shortlink/internal/credential"
	"codeberg.org/oliverandrich/shortlink/internal/linkslug"
	"codeberg.org/oliverandrich/shortlink/internal/pagination"
	"codeberg.org/oliverandrich/shortlink/internal/service"
	"codeberg.org/oliverandrich/shortlink/internal/testutil"
)

func TestCreateAccount(t *testing.T) {
	svc, _, notifier := newService(t)
	ctx := context.Background()

	user, token, err := svc.CreateAccount(ctx, service.CreateAccountRequest{
		DisplayName: "alice",
		Email:       "a@x.com",
		Password:    testPassword,
	})

	require.NoError(t, err)
	assert.False(t, user.EmailVerified)
	assert.Equal(t, "alice", user.DisplayName)
	assert.NotEqual(t, testPassword, user.PasswordHash)
	assert.True(t, credential.Verify(user.PasswordHash, testPassword))
	assert.Equal(t, user.ID, token.UserID)
	require.Len(t, notifier.calls, 1)
	assert.Equal(t, token.ID, notifier.calls[0].ID)
}

func TestCreateAccount_Validation(t *testing.T) {
	svc, _, notifier := newService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     service.CreateAccountRequest
		wantErr error
	}{
		{"empty display name", service.CreateAccountRequest{DisplayName: " ", Email: "a@x.com", Password: testPassword}, apperror.InvalidValue("Display Name")},
		{"bad email", service.CreateAccountRequest{DisplayName: "alice", Email: "not-an-email", Password: testPassword}, apperror.InvalidValue("Email")},
		{"named email", service.CreateAccountRequest{DisplayName: "alice", Email: "Alice <a@x.com>", Password: testPassword}, apperror.InvalidValue("Email")},
		{"short password", service.CreateAccountRequest{DisplayName: "alice", Email: "a@x.com", Password: "Ab1!"}, apperror.ErrPasswordTooShort},
		{"simple password", service.CreateAccountRequest{DisplayName: "alice", Email: "a@x.com", Password: "password"}, apperror.ErrPasswordNotComplex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.CreateAccount(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Empty(t, notifier.calls)
}

func TestCreateAccount_Duplicates(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, _, err := svc.CreateAccount(ctx, service.CreateAccountRequest{DisplayName: "alice", Email: "a@x.com", Password: testPassword})
	require.NoError(t, err)

	_, _, err = svc.CreateAccount(ctx, service.CreateAccountRequest{DisplayName: "alice", Email: "b@x.com", Password: testPassword})
	assert.ErrorIs(t, err, apperror.DuplicateValue("Display Name"))

	_, _, err = svc.CreateAccount(ctx, service.CreateAccountRequest{DisplayName: "bob", Email: "a@x.com", Password: testPassword})
	assert.ErrorIs(t, err, apperror.DuplicateValue("Email"))
}

func TestCreateAccount_NotifierFailureIsNotSurfaced(t *testing.T) {
	svc, _, notifier := newService(t)
	notifier.failed = true

	user, _, err := svc.CreateAccount(context.Background(), service.CreateAccountRequest{
		DisplayName: "alice", Email: "a@x.com", Password: testPassword,
	})

	require.NoError(t, err)
	assert.NotNil(t, user)
	assert.Len(t, notifier.calls, 1)
}

func TestVerifyAccount(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	user, token, err := svc.CreateAccount(ctx, service.CreateAccountRequest{DisplayName: "alice", Email: "a@x.com", Password: testPassword})
	require.NoError(t, err)

	verified, err := svc.VerifyAccount(ctx, token.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, token.ID, verified.ID)

	account, err := svc.ReadAccount(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, account.EmailVerified)
}

func TestVerifyAccount_SingleUse(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	user, token, err := svc.CreateAccount(ctx, service.CreateAccountRequest{DisplayName: "alice", Email: "a@x.com", Password: testPassword})
	require.NoError(t, err)

	_, err = svc.VerifyAccount(ctx, token.ID, user.ID)
	require.NoError(t, err)

	_, err = svc.VerifyAccount(ctx, token.ID, user.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestVerifyAccount_WrongPair(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	alice, aliceToken, err := svc.CreateAccount(ctx, service.CreateAccountRequest{DisplayName: "alice", Email: "a@x.com", Password: testPassword})
	require.NoError(t, err)
	bob, _, err := svc.CreateAccount(ctx, service.CreateAccountRequest{DisplayName: "bob", Email: "b@x.com", Password: testPassword})
	require.NoError(t, err)

	_, err = svc.VerifyAccount(ctx, aliceToken.ID, bob.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = svc.VerifyAccount(ctx, uuid.NewString(), alice.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = svc.VerifyAccount(ctx, "not-a-uuid", alice.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	account, err := svc.ReadAccount(ctx, alice.ID)
	require.NoError(t, err)
	assert.False(t, account.EmailVerified)
}

func TestVerifyAccount_UpdateFailureIsLogged(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()

	user, token, err := svc.CreateAccount(ctx, service.CreateAccountRequest{DisplayName: "alice", Email: "a@x.com", Password: testPassword})
	require.NoError(t, err)

	store.FailNext = errors.New("disk full")
	got, err := svc.VerifyAccount(ctx, token.ID, user.ID)

	require.NoError(t, err)
	assert.Equal(t, token.ID, got.ID)
}

func TestReadAccount_NotFound(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.ReadAccount(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = svc.ReadAccount(context.Background(), "garbage")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestChangePassword(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	user := createVerifiedUser(t, svc, "alice")

	updated, err := svc.ChangePassword(ctx, service.ChangePasswordRequest{
		UserID:          user.ID,
		CurrentPassword: testPassword,
		NewPassword:     "N3w-Passw0rd!",
		ConfirmPassword: "N3w-Passw0rd!",
	})
	require.NoError(t, err)
	assert.True(t, credential.Verify(updated.PasswordHash, "N3w-Passw0rd!"))

	_, err = svc.CreateSession(ctx, service.CreateSessionRequest{DisplayName: "alice", Password: testPassword})
	assert.ErrorIs(t, err, apperror.ErrLogin)

	_, err = svc.CreateSession(ctx, service.CreateSessionRequest{DisplayName: "alice", Password: "N3w-Passw0rd!"})
	assert.NoError(t, err)
}

func TestChangePassword_Errors(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	user := createVerifiedUser(t, svc, "alice")

	tests := []struct {
		name    string
		req     service.ChangePasswordRequest
		wantErr error
	}{
		{"confirm mismatch", service.ChangePasswordRequest{UserID: user.ID, CurrentPassword: testPassword, NewPassword: "N3w-Passw0rd!", ConfirmPassword: "other"}, apperror.ErrLogin},
		{"wrong current", service.ChangePasswordRequest{UserID: user.ID, CurrentPassword: "wrong", NewPassword: "N3w-Passw0rd!", ConfirmPassword: "N3w-Passw0rd!"}, apperror.ErrLogin},
		{"unknown user", service.ChangePasswordRequest{UserID: uuid.NewString(), CurrentPassword: testPassword, NewPassword: "N3w-Passw0rd!", ConfirmPassword: "N3w-Passw0rd!"}, apperror.ErrLogin},
		{"weak new", service.ChangePasswordRequest{UserID: user.ID, CurrentPassword: testPassword, NewPassword: "weak", ConfirmPassword: "weak"}, apperror.ErrPasswordTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ChangePassword(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestReadProfilePage(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	user := createVerifiedUser(t, svc, "alice")

	for i := range 45 {
		_, err := svc.CreateLink(ctx, service.CreateLinkRequest{
			URL:     "https://example.com",
			Slug:    fmt.Sprintf("link-%02d", i),
			OwnerID: &user.ID,
		})
		require.NoError(t, err)
	}
	_, err := svc.CreateLink(ctx, service.CreateLinkRequest{URL: "https://example.com", Slug: "anon"})
	require.NoError(t, err)

	page, err := svc.ReadProfilePage(ctx, user.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, user.ID, page.User.ID)
	assert.Len(t, page.Links, pagination.PageSize)
	assert.Equal(t, 45, page.TotalLinks)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, []int{1, 2, 3}, page.Window)
	assert.Equal(t, 0, page.Prev)
	assert.Equal(t, 2, page.Next)

	last, err := svc.ReadProfilePage(ctx, user.ID, 3)
	require.NoError(t, err)
	assert.Len(t, last.Links, 5)
	assert.Equal(t, 0, last.Next)

	beyond, err := svc.ReadProfilePage(ctx, user.ID, 7)
	require.NoError(t, err)
	assert.Empty(t, beyond.Links)
}

func TestReadProfilePage_Empty(t *testing.T) {
	svc, _, _ := newService(t)
	user := createVerifiedUser(t, svc, "alice")

	page, err := svc.ReadProfilePage(context.Background(), user.ID, 1)

	require.NoError(t, err)
	assert.Empty(t, page.Links)
	assert.Zero(t, page.TotalLinks)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, []int{1}, page.Window)
}

func TestReadProfilePage_Errors(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	user := createVerifiedUser(t, svc, "alice")

	_, err := svc.ReadProfilePage(ctx, user.ID, 0)
	assert.ErrorIs(t, err, apperror.ErrBadRequest)

	_, err = svc.ReadProfilePage(ctx, uuid.NewString(), 1)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestEndToEndWithSQLite(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := service.New(repo, linkslug.NewPolicy("urus.ai"), nil, service.WithClock(func() time.Time { return fixed }))
	ctx := context.Background()

	user, token, err := svc.CreateAccount(ctx, service.CreateAccountRequest{
		DisplayName: "alice",
		Email:       "a@x.com",
		Password:    "S3curePassw0rd!",
	})
	require.NoError(t, err)
	assert.False(t, user.EmailVerified)

	_, err = svc.CreateSession(ctx, service.CreateSessionRequest{DisplayName: "alice", Password: "S3curePassw0rd!"})
	assert.ErrorIs(t, err, apperror.ErrEmailNotVerified)

	_, err = svc.VerifyAccount(ctx, token.ID, user.ID)
	require.NoError(t, err)

	session, err := svc.CreateSession(ctx, service.CreateSessionRequest{DisplayName: "alice", Password: "S3curePassw0rd!"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.ID)
	assert.True(t, session.EmailVerified)

	link, err := svc.CreateLink(ctx, service.CreateLinkRequest{URL: "https://example.com", OwnerID: &user.ID})
	require.NoError(t, err)
	assert.Len(t, link.Slug, linkslug.GeneratedLength)

	read, err := svc.ReadLink(ctx, link.Slug)
	require.NoError(t, err)
	assert.Equal(t, int64(1), read.Visits)

	_, err = svc.CreateLink(ctx, service.CreateLinkRequest{URL: "https://example.com", Slug: link.Slug})
	assert.ErrorIs(t, err, apperror.DuplicateValue("Short URL"))

	page, err := svc.ReadProfilePage(ctx, user.ID, 1)
	require.NoError(t, err)
	require.Len(t, page.Links, 1)
	assert.Equal(t, link.Slug, page.Links[0].Slug)
}
