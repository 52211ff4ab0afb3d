package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewAuthService(f.store.Admins())

	_, err := svc.CreateAdmin(ctx, "ops", "short")
	assert.ErrorIs(t, err, ErrWeakPassword)

	admin, err := svc.CreateAdmin(ctx, " ops ", "correct-horse-battery")
	require.NoError(t, err)
	assert.Equal(t, "ops", admin.Username)
	assert.NotEqual(t, "correct-horse-battery", admin.PasswordHash)

	_, err = svc.CreateAdmin(ctx, "ops", "another-password")
	assert.ErrorIs(t, err, ErrAdminExists)

	ensured, err := svc.EnsureAdmin(ctx, "ops", "ignored-password")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, ensured.ID)

	logged, err := svc.Login(ctx, "ops", "correct-horse-battery")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, logged.ID)

	_, err = svc.Login(ctx, "ops", "wrong-password")
	assert.ErrorIs(t, err, ErrWrongPassword)

	_, err = svc.Login(ctx, "nobody", "correct-horse-battery")
	assert.ErrorIs(t, err, ErrWrongPassword)

	found, err := svc.GetAdmin(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "ops", found.Username)

	_, err = svc.GetAdmin(ctx, 404)
	assert.ErrorIs(t, err, ErrAdminNotFound)
}
