// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"codeberg.org/oliverandrich/shortlink/internal/linkslug"
	"codeberg.org/oliverandrich/shortlink/internal/models"
	"codeberg.org/oliverandrich/shortlink/internal/repository"
	"codeberg.org/oliverandrich/shortlink/internal/repository/memory"
	"codeberg.org/oliverandrich/shortlink/internal/service"
)

var (
	_ service.Store = (*repository.Repository)(nil)
	_ service.Store = (*memory.Store)(nil)
)

const testPassword = "S3curePassw0rd!"

type recordingNotifier struct {
	mu     sync.Mutex
	calls  []models.VerificationToken
	failed bool
}

func (n *recordingNotifier) NotifyActivation(_ context.Context, _ *models.User, token *models.VerificationToken) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, *token)
	if n.failed {
		return errors.New("queue unavailable")
	}
	return nil
}

func newService(t *testing.T) (*service.Service, *memory.Store, *recordingNotifier) {
	t.Helper()
	store := memory.New()
	notifier := &recordingNotifier{}
	return service.New(store, linkslug.NewPolicy("urus.ai"), notifier), store, notifier
}

func createVerifiedUser(t *testing.T, svc *service.Service, name string) *models.User {
	t.Helper()
	ctx := context.Background()
	user, token, err := svc.CreateAccount(ctx, service.CreateAccountRequest{
		DisplayName: name,
		Email:       name + "@example.com",
		Password:    testPassword,
	})
	require.NoError(t, err)
	_, err = svc.VerifyAccount(ctx, token.ID, user.ID)
	require.NoError(t, err)
	return user
}
