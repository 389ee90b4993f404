package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/vedran77/tally/internal/domain"
	"github.com/vedran77/tally/internal/repository"
	"github.com/vedran77/tally/pkg/passhash"
	"github.com/vedran77/tally/pkg/validator"
)

const tokenTTL = 24 * time.Hour

type AuthService struct {
	userRepo  repository.UserRepository
	jwtSecret []byte
}

func NewAuthService(userRepo repository.UserRepository, jwtSecret string) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
	}
}

type RegisterInput struct {
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type LoginInput struct {
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type AuthResponse struct {
	User        *domain.User `json:"user"`
	AccessToken string       `json:"access_token"`
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResponse, error) {
	if errs := validator.ValidateRegister(input.DisplayName, input.Password); errs.HasErrors() {
		return nil, &ValidationError{Fields: errs}
	}
	displayName := strings.TrimSpace(input.DisplayName)

	existing, err := s.userRepo.GetByDisplayName(ctx, displayName)
	if err != nil {
		return nil, storageErr("get user by display name", err)
	}
	if existing != nil {
		return nil, ErrDisplayNameTaken
	}

	hash, err := passhash.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New(),
		DisplayName:  displayName,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// lost a race with another registration
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrDisplayNameTaken
		}
		return nil, storageErr("create user", err)
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	return &AuthResponse{User: user, AccessToken: token}, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	if errs := validator.ValidateLogin(input.DisplayName, input.Password); errs.HasErrors() {
		return nil, &ValidationError{Fields: errs}
	}

	user, err := s.userRepo.GetByDisplayName(ctx, strings.TrimSpace(input.DisplayName))
	if err != nil {
		return nil, storageErr("get user by display name", err)
	}
	if user == nil {
		return nil, ErrInvalidCreds
	}

	if !passhash.Verify(input.Password, user.PasswordHash) {
		return nil, ErrInvalidCreds
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	return &AuthResponse{User: user, AccessToken: token}, nil
}

func (s *AuthService) generateToken(userID uuid.UUID) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
