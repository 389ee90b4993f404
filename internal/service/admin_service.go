package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vedran77/tally/internal/cache"
	"github.com/vedran77/tally/internal/domain"
	"github.com/vedran77/tally/internal/repository"
	"github.com/vedran77/tally/pkg/passhash"
	"github.com/vedran77/tally/pkg/validator"
	"go.uber.org/zap"
)

const standardRateCacheKey = "config:" + domain.StandardRateKey

// AdminService manages the standard rate and admin promotion.
type AdminService struct {
	config      repository.ConfigRepository
	users       repository.UserRepository
	authz       Authorizer
	cache       cache.Cache
	cacheTTL    time.Duration
	fallback    decimal.Decimal
	adminSecret string
	logger      *zap.Logger
}

type AdminConfig struct {
	CacheTTL time.Duration
	Fallback decimal.Decimal
	// SecretHash is the passhash encoding of the promotion secret. Empty
	// disables promotion.
	SecretHash string
}

func NewAdminService(
	config repository.ConfigRepository,
	users repository.UserRepository,
	authz Authorizer,
	c cache.Cache,
	cfg AdminConfig,
	logger *zap.Logger,
) *AdminService {
	return &AdminService{
		config:      config,
		users:       users,
		authz:       authz,
		cache:       c,
		cacheTTL:    cfg.CacheTTL,
		fallback:    cfg.Fallback,
		adminSecret: cfg.SecretHash,
		logger:      logger,
	}
}

// StandardRate returns the configured standard rate. ok is false when an
// admin never set one.
func (s *AdminService) StandardRate(ctx context.Context) (decimal.Decimal, bool, error) {
	if cached, err := s.cache.Get(ctx, standardRateCacheKey); err == nil {
		if rate, err := decimal.NewFromString(cached); err == nil {
			return rate, true, nil
		}
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("standard rate cache read failed", zap.Error(err))
	}

	entry, err := s.config.Get(ctx, domain.StandardRateKey)
	if err != nil {
		return decimal.Decimal{}, false, storageErr("get standard rate", err)
	}
	if entry == nil {
		return decimal.Decimal{}, false, nil
	}

	rate, err := decimal.NewFromString(entry.Value)
	if err != nil || !rate.IsPositive() {
		s.logger.Warn("ignoring malformed standard rate",
			zap.String("value", entry.Value),
		)
		return decimal.Decimal{}, false, nil
	}

	// SetNX so a value loaded before a concurrent SetStandardRate cannot
	// replace the one it wrote.
	if _, err := s.cache.SetNX(ctx, standardRateCacheKey, rate.String(), s.cacheTTL); err != nil {
		s.logger.Warn("standard rate cache write failed", zap.Error(err))
	}

	return rate, true, nil
}

// GetStandardRate returns the standard rate, or the fallback when unset.
func (s *AdminService) GetStandardRate(ctx context.Context) (decimal.Decimal, error) {
	rate, ok, err := s.StandardRate(ctx)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if !ok {
		return s.fallback, nil
	}
	return rate, nil
}

func (s *AdminService) SetStandardRate(ctx context.Context, actorID uuid.UUID, rate decimal.Decimal) (decimal.Decimal, error) {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return decimal.Decimal{}, storageErr("get user", err)
	}
	if !s.authz.IsAuthorized(actor, ActionSetStandardRate) {
		return decimal.Decimal{}, ErrForbidden
	}

	if errs := validator.ValidateRate(rate); errs.HasErrors() {
		return decimal.Decimal{}, &ValidationError{Fields: errs}
	}

	if err := s.config.Set(ctx, domain.StandardRateKey, rate.String()); err != nil {
		return decimal.Decimal{}, storageErr("set standard rate", err)
	}
	if err := s.cache.Set(ctx, standardRateCacheKey, rate.String(), s.cacheTTL); err != nil {
		s.logger.Warn("standard rate cache write failed", zap.Error(err))
		if err := s.cache.Del(ctx, standardRateCacheKey); err != nil {
			s.logger.Error("standard rate cache invalidation failed", zap.Error(err))
		}
	}

	s.logger.Info("standard rate updated",
		zap.Stringer("actor_id", actorID),
		zap.String("rate", rate.String()),
	)

	return rate, nil
}

// PromoteToAdmin grants the admin role when secret matches the configured hash.
func (s *AdminService) PromoteToAdmin(ctx context.Context, userID uuid.UUID, secret string) (*domain.User, error) {
	if s.adminSecret == "" || !passhash.Verify(secret, s.adminSecret) {
		return nil, ErrInvalidAdminSecret
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, storageErr("get user", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if !user.IsAdmin {
		if err := s.users.SetAdmin(ctx, userID, true); err != nil {
			return nil, storageErr("promote user", err)
		}
		user.IsAdmin = true
		s.logger.Info("user promoted to admin", zap.Stringer("user_id", userID))
	}

	return user, nil
}
