package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/tally/internal/domain"
)

func TestListUsersExcludesCaller(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.store.Users())

	users, err := svc.ListUsers(context.Background(), f.alice.ID)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, f.bob.ID, users[0].ID)
}

func TestUpdateAvatar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewUserService(f.store.Users())

	user, err := svc.UpdateAvatar(ctx, f.alice.ID, "https://cdn.example.com/a.png")
	require.NoError(t, err)
	require.NotNil(t, user.AvatarURL)
	assert.Equal(t, "https://cdn.example.com/a.png", *user.AvatarURL)

	_, err = svc.UpdateAvatar(ctx, f.alice.ID, "javascript:alert(1)")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.UpdateAvatar(ctx, uuid.New(), "https://cdn.example.com/a.png")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
