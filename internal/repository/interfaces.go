package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vedran77/tally/internal/domain"
)

// Lookups return (nil, nil) when the record does not exist.

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByDisplayName(ctx context.Context, displayName string) (*domain.User, error)
	ListExcept(ctx context.Context, id uuid.UUID) ([]domain.User, error)
	UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) error
	SetAdmin(ctx context.Context, id uuid.UUID, isAdmin bool) error
}

type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	ListByConversation(ctx context.Context, key domain.ConversationKey) ([]domain.Message, error)
	GetByRequestID(ctx context.Context, requestID uuid.UUID) (*domain.Message, error)
	// DeleteByRequestID removes the message paired with a request and
	// reports whether one existed.
	DeleteByRequestID(ctx context.Context, requestID uuid.UUID) (bool, error)
}

type RequestRepository interface {
	Create(ctx context.Context, req *domain.Request) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Request, error)
	// MarkReceived moves a pending request to received. It reports false
	// when no pending request with that id exists.
	MarkReceived(ctx context.Context, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	// ListByConversation returns the requests referenced by the
	// conversation's request messages.
	ListByConversation(ctx context.Context, key domain.ConversationKey) ([]domain.Request, error)
	// DeleteOrphans removes requests created before cutoff that no message references.
	DeleteOrphans(ctx context.Context, cutoff time.Time) (int64, error)
}

type PreferenceRepository interface {
	// Upsert keeps exactly one preference per conversation.
	Upsert(ctx context.Context, key domain.ConversationKey, rate decimal.Decimal) error
	Get(ctx context.Context, key domain.ConversationKey) (*domain.RatePreference, error)
}

type ConfigRepository interface {
	Get(ctx context.Context, key string) (*domain.ConfigEntry, error)
	Set(ctx context.Context, key, value string) error
}

// Transactor runs fn so that every repository call made with the ctx it
// receives commits or rolls back together.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ErrConflict is returned by stores when a write violates a uniqueness constraint.
var ErrConflict = errors.New("unique constraint violated")
