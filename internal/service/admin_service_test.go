package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/tally/internal/domain"
	"github.com/vedran77/tally/pkg/passhash"
	"go.uber.org/zap"
)

func TestGetStandardRateDefaultsToFallback(t *testing.T) {
	f := newFixture(t)

	rate, err := f.admin.GetStandardRate(context.Background())
	require.NoError(t, err)
	assert.True(t, rate.Equal(domain.FallbackRate))
}

func TestSetStandardRateRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.admin.SetStandardRate(ctx, f.alice.ID, dec("9"))
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.admin.SetStandardRate(ctx, uuid.New(), dec("9"))
	assert.ErrorIs(t, err, ErrForbidden)

	rate, err := f.admin.GetStandardRate(ctx)
	require.NoError(t, err)
	assert.True(t, rate.Equal(domain.FallbackRate))
}

func TestSetStandardRate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	root := addUser(t, f.store, "root", true)

	_, err := f.admin.SetStandardRate(ctx, root.ID, dec("0"))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.admin.SetStandardRate(ctx, root.ID, dec("7.5"))
	require.NoError(t, err)

	rate, err := f.admin.GetStandardRate(ctx)
	require.NoError(t, err)
	assert.True(t, rate.Equal(dec("7.5")))
	assert.Equal(t, "7.5", f.cache.data[standardRateCacheKey])

	// a new value replaces the cached one
	_, err = f.admin.SetStandardRate(ctx, root.ID, dec("7.7"))
	require.NoError(t, err)
	assert.Equal(t, "7.7", f.cache.data[standardRateCacheKey])

	rate, err = f.admin.GetStandardRate(ctx)
	require.NoError(t, err)
	assert.True(t, rate.Equal(dec("7.7")))
}

func TestStaleReadDoesNotOverwriteNewStandardRate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	root := addUser(t, f.store, "root", true)

	_, err := f.admin.SetStandardRate(ctx, root.ID, dec("7"))
	require.NoError(t, err)
	require.NoError(t, f.cache.Del(ctx, standardRateCacheKey))

	cfg := newStalledConfig(f.store.Config())
	admin := NewAdminService(cfg, f.store.Users(), NewRoleAuthorizer(), f.cache, AdminConfig{
		CacheTTL: time.Minute,
		Fallback: domain.FallbackRate,
	}, zap.NewNop())
	rates := NewRateService(f.store.Preferences(), admin, domain.FallbackRate)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _, _ = admin.StandardRate(ctx)
	}()
	<-cfg.loaded

	_, err = admin.SetStandardRate(ctx, root.ID, dec("9.9"))
	require.NoError(t, err)

	close(cfg.release)
	<-done

	rate, err := rates.ResolveDefaultRate(ctx, f.key)
	require.NoError(t, err)
	assert.True(t, rate.Equal(dec("9.9")), rate.String())
}

func TestStandardRateServedFromCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.cache.Set(ctx, standardRateCacheKey, "6.66", time.Minute))

	rate, ok, err := f.admin.StandardRate(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, rate.Equal(dec("6.66")))
}

func TestPromoteToAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	hash, err := passhash.Hash("let-me-in")
	require.NoError(t, err)
	admin := NewAdminService(f.store.Config(), f.store.Users(), NewRoleAuthorizer(), f.cache, AdminConfig{
		Fallback:   domain.FallbackRate,
		SecretHash: hash,
	}, zap.NewNop())

	_, err = admin.PromoteToAdmin(ctx, f.alice.ID, "guess")
	assert.ErrorIs(t, err, ErrInvalidAdminSecret)

	user, err := admin.PromoteToAdmin(ctx, f.alice.ID, "let-me-in")
	require.NoError(t, err)
	assert.True(t, user.IsAdmin)

	_, err = admin.SetStandardRate(ctx, f.alice.ID, dec("9.1"))
	assert.NoError(t, err)

	_, err = admin.PromoteToAdmin(ctx, uuid.New(), "let-me-in")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestPromoteWithoutConfiguredSecret(t *testing.T) {
	f := newFixture(t)

	_, err := f.admin.PromoteToAdmin(context.Background(), f.alice.ID, "")
	assert.ErrorIs(t, err, ErrInvalidAdminSecret)
}

func TestRoleAuthorizer(t *testing.T) {
	authz := NewRoleAuthorizer()

	assert.True(t, authz.IsAuthorized(&domain.User{IsAdmin: true}, ActionSetStandardRate))
	assert.False(t, authz.IsAuthorized(&domain.User{}, ActionSetStandardRate))
	assert.False(t, authz.IsAuthorized(nil, ActionSetStandardRate))
}
