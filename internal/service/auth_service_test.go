package service

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/tally/internal/domain"
	"github.com/vedran77/tally/internal/repository/memory"
)

const testSecret = "test-secret"

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthService(memory.NewStore().Users(), testSecret)

	reg, err := svc.Register(ctx, RegisterInput{DisplayName: " Ana ", Password: "Sup3rSecret"})
	require.NoError(t, err)
	assert.Equal(t, "Ana", reg.User.DisplayName)
	assert.NotEqual(t, "Sup3rSecret", reg.User.PasswordHash)

	claims := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(reg.AccessToken, claims, func(*jwt.Token) (any, error) {
		return []byte(testSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID.String(), claims.Subject)

	login, err := svc.Login(ctx, LoginInput{DisplayName: "Ana", Password: "Sup3rSecret"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, login.User.ID)
}

func TestRegisterRejectsDuplicateDisplayName(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthService(memory.NewStore().Users(), testSecret)

	_, err := svc.Register(ctx, RegisterInput{DisplayName: "Ana", Password: "Sup3rSecret"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{DisplayName: "Ana", Password: "0therSecret"})
	assert.ErrorIs(t, err, ErrDisplayNameTaken)
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestRegisterValidation(t *testing.T) {
	svc := NewAuthService(memory.NewStore().Users(), testSecret)

	_, err := svc.Register(context.Background(), RegisterInput{DisplayName: "A", Password: "short"})
	require.ErrorIs(t, err, domain.ErrValidation)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "display_name")
	assert.Contains(t, verr.Fields, "password")
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthService(memory.NewStore().Users(), testSecret)

	_, err := svc.Register(ctx, RegisterInput{DisplayName: "Ana", Password: "Sup3rSecret"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginInput{DisplayName: "Ana", Password: "Wr0ngSecret"})
	assert.ErrorIs(t, err, ErrInvalidCreds)

	_, err = svc.Login(ctx, LoginInput{DisplayName: "Nobody", Password: "Sup3rSecret"})
	assert.ErrorIs(t, err, ErrInvalidCreds)
}
