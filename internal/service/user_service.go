package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/vedran77/tally/internal/domain"
	"github.com/vedran77/tally/internal/repository"
	"github.com/vedran77/tally/pkg/validator"
)

type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// ListUsers returns everyone except currentUserID, ordered by display name.
func (s *UserService) ListUsers(ctx context.Context, currentUserID uuid.UUID) ([]domain.User, error) {
	users, err := s.userRepo.ListExcept(ctx, currentUserID)
	if err != nil {
		return nil, storageErr("list users", err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storageErr("get user", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) (*domain.User, error) {
	if errs := validator.ValidateAvatarURL(avatarURL); errs.HasErrors() {
		return nil, &ValidationError{Fields: errs}
	}

	if _, err := s.GetUser(ctx, id); err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdateAvatar(ctx, id, strings.TrimSpace(avatarURL)); err != nil {
		return nil, storageErr("update avatar", err)
	}

	return s.GetUser(ctx, id)
}
